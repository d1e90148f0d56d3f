package score

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/api"
)

// Handler handles score-related HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates a new score handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the score routes, mounted under
// /projects/{projectID}/compliance/score
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Get)
	r.Get("/history", h.History)
	r.Post("/recalculate", h.Recalculate)

	return r
}

// Get returns the current compliance score
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	s, err := h.service.Current(r.Context(), projectID)
	if err != nil {
		api.InternalError(w)
		return
	}

	api.RespondData(w, http.StatusOK, s)
}

// History returns score history for trending
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "month"
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 365 {
		limit = 30
	}

	entries, err := h.service.History(r.Context(), projectID, period, limit)
	if err != nil {
		if errors.Is(err, ErrInvalidPeriod) {
			api.BadRequest(w, "Invalid period. Use: week, month, quarter, year")
			return
		}
		api.InternalError(w)
		return
	}
	if entries == nil {
		entries = []*HistoryEntry{}
	}

	api.RespondData(w, http.StatusOK, map[string]interface{}{"history": entries})
}

// Recalculate forces a score recomputation
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	s, err := h.service.Calculate(r.Context(), projectID)
	if err != nil {
		api.InternalError(w)
		return
	}

	api.RespondData(w, http.StatusOK, s)
}

// HealthHandler serves the compliance health component
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	component, err := h.service.Health(r.Context(), projectID)
	if err != nil {
		api.InternalError(w)
		return
	}

	api.RespondData(w, http.StatusOK, component)
}
