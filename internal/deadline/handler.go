package deadline

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/api"
	"github.com/efilo/compliance/internal/clause"
	"github.com/efilo/compliance/internal/severity"
)

// Handler handles deadline-related HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates a new deadline handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the deadline routes, mounted under
// /projects/{projectID}/compliance/deadlines
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{deadlineID}", h.GetByID)
	r.Post("/{deadlineID}/waive", h.Waive)

	return r
}

// List returns deadlines for a project
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	var status *Status
	if statusStr := r.URL.Query().Get("status"); statusStr != "" {
		if !ValidStatus(statusStr) {
			api.BadRequest(w, "Invalid status: "+statusStr)
			return
		}
		s := Status(statusStr)
		status = &s
	}

	var sev *severity.Severity
	if sevStr := r.URL.Query().Get("severity"); sevStr != "" {
		if !severity.Valid(sevStr) {
			api.BadRequest(w, "Invalid severity: "+sevStr)
			return
		}
		s := severity.Severity(sevStr)
		sev = &s
	}

	deadlines, err := h.service.List(r.Context(), projectID, status, sev)
	if err != nil {
		api.InternalError(w)
		return
	}
	if deadlines == nil {
		deadlines = []*Deadline{}
	}

	api.RespondData(w, http.StatusOK, deadlines)
}

// Create creates a deadline from a trigger body
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	var req struct {
		ClauseID           uuid.UUID `json:"clauseId"`
		TriggerEventType   string    `json:"triggerEventType"`
		TriggerDescription string    `json:"triggerDescription"`
		TriggeredAt        time.Time `json:"triggeredAt"`
		TriggerEventID     *string   `json:"triggerEventId,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	if req.ClauseID == uuid.Nil || req.TriggerDescription == "" {
		api.BadRequest(w, "clauseId and triggerDescription are required")
		return
	}
	if !ValidTriggerType(req.TriggerEventType) {
		api.BadRequest(w, "Invalid trigger event type: "+req.TriggerEventType)
		return
	}
	if req.TriggeredAt.IsZero() {
		req.TriggeredAt = time.Now()
	}

	var triggeredBy *uuid.UUID
	if id, err := uuid.Parse(api.GetUserID(r.Context())); err == nil {
		triggeredBy = &id
	}

	d, err := h.service.Create(r.Context(), CreateParams{
		ProjectID:          projectID,
		ClauseID:           req.ClauseID,
		TriggerEventType:   TriggerEventType(req.TriggerEventType),
		TriggerEventID:     req.TriggerEventID,
		TriggerDescription: req.TriggerDescription,
		TriggeredAt:        req.TriggeredAt,
		TriggeredBy:        triggeredBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, clause.ErrClauseNotFound):
			api.BadRequest(w, "Clause not found")
		case errors.Is(err, ErrClauseMissingParams):
			api.BadRequest(w, "Failed to create deadline — check clause parameters")
		default:
			api.InternalError(w)
		}
		return
	}

	api.RespondData(w, http.StatusOK, d)
}

// GetByID returns a single deadline
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	deadlineID, err := uuid.Parse(chi.URLParam(r, "deadlineID"))
	if err != nil {
		api.BadRequest(w, "invalid deadline ID")
		return
	}

	d, err := h.service.GetByID(r.Context(), projectID, deadlineID)
	if err != nil {
		if errors.Is(err, ErrDeadlineNotFound) {
			api.NotFound(w, "Deadline not found")
			return
		}
		api.InternalError(w)
		return
	}

	api.RespondData(w, http.StatusOK, d)
}

// Waive waives a deadline with a reason
func (h *Handler) Waive(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	deadlineID, err := uuid.Parse(chi.URLParam(r, "deadlineID"))
	if err != nil {
		api.BadRequest(w, "invalid deadline ID")
		return
	}

	userID, err := uuid.Parse(api.GetUserID(r.Context()))
	if err != nil {
		api.Unauthorized(w, "Authentication required")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		api.BadRequest(w, "reason is required")
		return
	}

	d, err := h.service.Waive(r.Context(), projectID, deadlineID, userID, req.Reason)
	if err != nil {
		if errors.Is(err, ErrDeadlineNotFound) {
			api.NotFound(w, "Deadline not found")
			return
		}
		api.InternalError(w)
		return
	}

	api.RespondData(w, http.StatusOK, d)
}
