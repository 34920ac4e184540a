package kitchen

import (
	"net/http"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/ordering/internal/core"
)

type Handler struct {
	estimator *Estimator
	logger    aqm.Logger
	tlm       *telemetry.HTTP
}

func NewHandler(estimator *Estimator, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		estimator: estimator,
		logger:    logger,
		tlm:       telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/restaurants/{id}/kitchen-load", func(r chi.Router) {
		r.Get("/", h.GetKitchenLoad)
		r.Post("/recompute", h.RecomputeKitchenLoad)
	})
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", aqm.RequestIDFrom(r.Context()))
}

type loadResponse struct {
	*Snapshot
	QueueDelayMinutes int `json:"queue_delay_minutes"`
}

func (h *Handler) GetKitchenLoad(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetKitchenLoad")
	defer finish()
	log := h.log(r)

	restaurantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid restaurant ID")
		return
	}

	snap, err := h.estimator.Get(r.Context(), restaurantID)
	if err != nil {
		log.Errorf("cannot get kitchen load: %v", err)
		core.RespondError(w, err)
		return
	}

	aqm.Respond(w, http.StatusOK, loadResponse{Snapshot: snap, QueueDelayMinutes: h.estimator.QueueDelay(snap)}, nil)
}

func (h *Handler) RecomputeKitchenLoad(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RecomputeKitchenLoad")
	defer finish()
	log := h.log(r)

	restaurantID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		aqm.RespondError(w, http.StatusBadRequest, "Invalid restaurant ID")
		return
	}

	snap, err := h.estimator.Recompute(r.Context(), restaurantID)
	if err != nil {
		log.Errorf("cannot recompute kitchen load: %v", err)
		core.RespondError(w, err)
		return
	}

	aqm.Respond(w, http.StatusOK, loadResponse{Snapshot: snap, QueueDelayMinutes: h.estimator.QueueDelay(snap)}, nil)
}
