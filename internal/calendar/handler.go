package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/api"
)

// Handler handles project holiday HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates a new holiday handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List returns project holidays
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	holidays, err := h.service.ListHolidays(r.Context(), projectID)
	if err != nil {
		api.InternalError(w)
		return
	}
	if holidays == nil {
		holidays = []*ProjectHoliday{}
	}

	api.RespondData(w, http.StatusOK, holidays)
}

// Create adds a project-specific holiday
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	var req struct {
		Date        string  `json:"date"`
		Name        string  `json:"name"`
		Description *string `json:"description,omitempty"`
		Recurring   bool    `json:"recurring"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	if req.Name == "" {
		api.BadRequest(w, "name is required")
		return
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		api.BadRequest(w, "Invalid date format. Use YYYY-MM-DD.")
		return
	}

	holiday := &ProjectHoliday{
		ProjectID:   projectID,
		Date:        day,
		Name:        req.Name,
		Description: req.Description,
		Recurring:   req.Recurring,
		Source:      SourceManual,
	}

	if err := h.service.AddHoliday(r.Context(), holiday); err != nil {
		if errors.Is(err, ErrDuplicateHoliday) {
			api.Conflict(w, "Holiday already exists for this date")
			return
		}
		api.InternalError(w)
		return
	}

	api.RespondData(w, http.StatusOK, holiday)
}

// Delete removes a project holiday
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	holidayID, err := uuid.Parse(chi.URLParam(r, "holidayID"))
	if err != nil {
		api.BadRequest(w, "invalid holiday ID")
		return
	}

	if err := h.service.DeleteHoliday(r.Context(), projectID, holidayID); err != nil {
		if errors.Is(err, ErrHolidayNotFound) {
			api.NotFound(w, "Holiday not found")
			return
		}
		api.InternalError(w)
		return
	}

	api.RespondData(w, http.StatusOK, map[string]bool{"success": true})
}
