package menu

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/appetiteclub/ordering/internal/core"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	service *Service
	logger  aqm.Logger
	tlm     *telemetry.HTTP
}

func NewHandler(service *Service, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		service: service,
		logger:  logger,
		tlm:     telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/restaurants/{id}/menu", h.GetRestaurantMenu)

	r.Route("/menu-items/{id}", func(r chi.Router) {
		r.Patch("/availability", h.ToggleItemAvailability)
		r.Put("/default-variant", h.SetDefaultVariant)
		r.Get("/variants/{variantID}/price", h.ResolveVariantPrice)
		r.Put("/variants/{variantID}/price", h.UpdateVariantPrice)
		r.Patch("/variants/{variantID}/availability", h.ToggleVariantAvailability)
	})
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) GetRestaurantMenu(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetRestaurantMenu")
	defer finish()
	log := h.log(r)

	id, ok := parseUUIDParam(w, r, "id", "Invalid restaurant ID")
	if !ok {
		return
	}

	menu, err := h.service.GetRestaurantMenu(r.Context(), id)
	if err != nil {
		log.Errorf("cannot get restaurant menu: %v", err)
		core.RespondError(w, err)
		return
	}

	aqm.Respond(w, http.StatusOK, menu, nil)
}

func (h *Handler) ResolveVariantPrice(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ResolveVariantPrice")
	defer finish()
	log := h.log(r)

	itemID, ok := parseUUIDParam(w, r, "id", "Invalid menu item ID")
	if !ok {
		return
	}
	variantID, ok := parseUUIDParam(w, r, "variantID", "Invalid variant ID")
	if !ok {
		return
	}

	price, err := h.service.ResolveVariantPrice(r.Context(), itemID, variantID)
	if err != nil {
		log.Debug("cannot resolve variant price", "error", err)
		core.RespondError(w, err)
		return
	}

	aqm.Respond(w, http.StatusOK, price, nil)
}

type setDefaultVariantRequest struct {
	VariantID uuid.UUID `json:"variant_id"`
}

func (h *Handler) SetDefaultVariant(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetDefaultVariant")
	defer finish()
	log := h.log(r)

	itemID, ok := parseUUIDParam(w, r, "id", "Invalid menu item ID")
	if !ok {
		return
	}

	var req setDefaultVariantRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VariantID == uuid.Nil {
		v := &core.ValidationError{}
		v.Add("variant_id", "variant_id is required")
		core.RespondError(w, v)
		return
	}

	variant, err := h.service.SetDefaultVariant(r.Context(), itemID, req.VariantID)
	if err != nil {
		log.Errorf("cannot set default variant: %v", err)
		core.RespondError(w, err)
		return
	}

	aqm.RespondSuccess(w, variant)
}

func (h *Handler) ToggleItemAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ToggleItemAvailability")
	defer finish()
	log := h.log(r)

	itemID, ok := parseUUIDParam(w, r, "id", "Invalid menu item ID")
	if !ok {
		return
	}

	item, err := h.service.ToggleItemAvailability(r.Context(), itemID)
	if err != nil {
		log.Errorf("cannot toggle menu item availability: %v", err)
		core.RespondError(w, err)
		return
	}

	aqm.RespondSuccess(w, item, aqm.RESTfulLinksFor(item)...)
}

func (h *Handler) ToggleVariantAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ToggleVariantAvailability")
	defer finish()
	log := h.log(r)

	itemID, ok := parseUUIDParam(w, r, "id", "Invalid menu item ID")
	if !ok {
		return
	}
	variantID, ok := parseUUIDParam(w, r, "variantID", "Invalid variant ID")
	if !ok {
		return
	}

	variant, err := h.service.ToggleVariantAvailability(r.Context(), itemID, variantID)
	if err != nil {
		log.Errorf("cannot toggle variant availability: %v", err)
		core.RespondError(w, err)
		return
	}

	aqm.RespondSuccess(w, variant)
}

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

func (h *Handler) UpdateVariantPrice(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateVariantPrice")
	defer finish()
	log := h.log(r)

	itemID, ok := parseUUIDParam(w, r, "id", "Invalid menu item ID")
	if !ok {
		return
	}
	variantID, ok := parseUUIDParam(w, r, "variantID", "Invalid variant ID")
	if !ok {
		return
	}

	var req updatePriceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	variant, err := h.service.UpdateVariantPrice(r.Context(), itemID, variantID, req.Price)
	if err != nil {
		log.Errorf("cannot update variant price: %v", err)
		core.RespondError(w, err)
		return
	}

	aqm.RespondSuccess(w, variant)
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, msg)
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Cannot read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
