package order

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
	"github.com/appetiteclub/ordering/pkg/enums/orderstatus"
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
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrder)
		r.Patch("/{id}/status", h.UpdateOrderStatus)
		r.Get("/{id}/history", h.GetOrderHistory)
	})
	r.Get("/restaurants/{id}/orders", h.ListOrders)
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()
	log := h.log(r)

	var req CreateOrderRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	created, err := h.service.CreateOrder(r.Context(), req)
	if err != nil {
		log.Error("cannot create order", "error", err)
		core.RespondError(w, err)
		return
	}

	links := aqm.RESTfulLinksFor(&created.Order)

	w.Header().Set("Location", "/orders/"+created.ID.String())
	w.WriteHeader(http.StatusCreated)
	aqm.RespondSuccess(w, created, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r, "Invalid order ID")
	if !ok {
		return
	}

	o, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		log.Debug("cannot get order", "error", err, "order_id", id.String())
		core.RespondError(w, err)
		return
	}

	aqm.RespondSuccess(w, o, aqm.RESTfulLinksFor(&o.Order)...)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateOrderStatus")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r, "Invalid order ID")
	if !ok {
		return
	}

	var req TransitionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	target := orderstatus.ByName(strings.ToLower(strings.TrimSpace(req.Status)))
	if target == nil {
		v := &core.ValidationError{}
		v.Add("status", "unknown status "+req.Status)
		core.RespondError(w, v)
		return
	}

	updated, err := h.service.TransitionOrderStatus(r.Context(), id, *target, req.Note)
	if err != nil {
		log.Error("cannot update order status", "error", err, "order_id", id.String())
		core.RespondError(w, err)
		return
	}

	aqm.RespondSuccess(w, updated, aqm.RESTfulLinksFor(updated)...)
}

func (h *Handler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrderHistory")
	defer finish()
	log := h.log(r)

	id, ok := h.parseIDParam(w, r, "Invalid order ID")
	if !ok {
		return
	}

	entries, err := h.service.OrderHistory(r.Context(), id)
	if err != nil {
		log.Debug("cannot get order history", "error", err, "order_id", id.String())
		core.RespondError(w, err)
		return
	}

	aqm.RespondCollection(w, entries, "order-status-log")
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()
	log := h.log(r)

	restaurantID, ok := h.parseIDParam(w, r, "Invalid restaurant ID")
	if !ok {
		return
	}

	filter, page, verr := parseListQuery(r)
	if verr != nil {
		core.RespondError(w, verr)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), restaurantID, filter, page)
	if err != nil {
		log.Error("cannot list orders", "error", err)
		core.RespondError(w, err)
		return
	}

	aqm.RespondCollection(w, orders, "order")
}

// parseListQuery turns query parameters into typed predicates:
// status=pending,confirmed table=<uuid> since=<rfc3339> before=<rfc3339>
// page=<n> limit=<n>.
func parseListQuery(r *http.Request) (Filter, Page, error) {
	q := r.URL.Query()
	v := &core.ValidationError{}
	var filter Filter

	if raw := q.Get("status"); raw != "" {
		var statuses []orderstatus.Status
		for _, name := range strings.Split(raw, ",") {
			s := orderstatus.ByName(strings.TrimSpace(name))
			if s == nil {
				v.Add("status", "unknown status "+name)
				continue
			}
			statuses = append(statuses, *s)
		}
		filter = filter.With(StatusIn{Statuses: statuses})
	}

	if raw := q.Get("table"); raw != "" {
		tableID, err := uuid.Parse(raw)
		if err != nil {
			v.Add("table", "invalid table id")
		} else {
			filter = filter.With(TableIs{TableID: tableID})
		}
	}

	if raw := q.Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			v.Add("since", "must be an RFC 3339 timestamp")
		} else {
			filter = filter.With(CreatedSince{Time: t})
		}
	}

	if raw := q.Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			v.Add("before", "must be an RFC 3339 timestamp")
		} else {
			filter = filter.With(CreatedBefore{Time: t})
		}
	}

	var page Page
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			v.Add("page", "page must be a positive integer")
		}
		page.Number = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			v.Add("limit", "limit must be a positive integer")
		}
		page.Limit = n
	}

	return filter, page, v.OrNil()
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, msg)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
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
