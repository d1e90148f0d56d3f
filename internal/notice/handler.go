package notice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/ai"
	"github.com/efilo/compliance/internal/api"
	"github.com/efilo/compliance/internal/clause"
)

// Handler handles notice-related HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates a new notice handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the notice routes, mounted under
// /projects/{projectID}/compliance/notices
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{noticeID}", h.GetByID)
	r.Patch("/{noticeID}", h.Update)
	r.Delete("/{noticeID}", h.Delete)
	r.Post("/{noticeID}/send", h.Send)
	r.Post("/{noticeID}/confirm-delivery", h.ConfirmDelivery)
	r.Post("/{noticeID}/regenerate", h.Regenerate)

	return r
}

// respondServiceError maps notice engine errors to HTTP responses
func respondServiceError(w http.ResponseWriter, err error) {
	var stateErr *StateError
	var apiErr *ai.APIError
	switch {
	case errors.As(err, &apiErr):
		api.UpstreamError(w, "Language model request failed")
	case errors.Is(err, ErrNoticeNotFound):
		api.NotFound(w, "Notice not found")
	case errors.Is(err, clause.ErrClauseNotFound):
		api.BadRequest(w, "Linked clause not found")
	case errors.As(err, &stateErr):
		api.BadRequest(w, stateErr.Error())
	case errors.Is(err, ErrNoRecipientEmail):
		api.BadRequest(w, "Notice has no recipient email")
	case errors.Is(err, ErrNoLinkedClause):
		api.BadRequest(w, "Notice has no linked clause")
	case errors.Is(err, ErrInvalidMethod):
		api.BadRequest(w, "Invalid method. Use: "+strings.Join(ValidDeliveryMethods(), ", "))
	default:
		api.InternalError(w)
	}
}

// List returns notices for a project
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

	var noticeType *Type
	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		if !ValidType(typeStr) {
			api.BadRequest(w, "Invalid type: "+typeStr)
			return
		}
		t := Type(typeStr)
		noticeType = &t
	}

	notices, err := h.service.List(r.Context(), projectID, status, noticeType)
	if err != nil {
		api.InternalError(w)
		return
	}
	if notices == nil {
		notices = []*Notice{}
	}

	api.RespondData(w, http.StatusOK, notices)
}

// Create creates a notice draft, optionally AI-generated
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	userID, err := uuid.Parse(api.GetUserID(r.Context()))
	if err != nil {
		api.Unauthorized(w, "Authentication required")
		return
	}

	var req struct {
		Type               string     `json:"type"`
		Title              string     `json:"title"`
		ClauseID           *uuid.UUID `json:"clauseId,omitempty"`
		DeadlineID         *uuid.UUID `json:"deadlineId,omitempty"`
		RecipientName      *string    `json:"recipientName,omitempty"`
		RecipientEmail     *string    `json:"recipientEmail,omitempty"`
		GenerateWithAI     bool       `json:"generateWithAI"`
		TriggerDescription string     `json:"triggerDescription,omitempty"`
		TriggerDate        *time.Time `json:"triggerDate,omitempty"`
		DeadlineDate       *time.Time `json:"deadlineDate,omitempty"`
		AdditionalContext  string     `json:"additionalContext,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	if req.Title == "" {
		api.BadRequest(w, "title is required")
		return
	}
	if !ValidType(req.Type) {
		api.BadRequest(w, "Invalid notice type: "+req.Type)
		return
	}
	if req.GenerateWithAI && req.ClauseID != nil &&
		(req.TriggerDescription == "" || req.TriggerDate == nil || req.DeadlineDate == nil) {
		api.BadRequest(w, "triggerDescription, triggerDate, and deadlineDate required for AI generation")
		return
	}

	n, err := h.service.Create(r.Context(), CreateParams{
		ProjectID:          projectID,
		Type:               Type(req.Type),
		Title:              req.Title,
		ClauseID:           req.ClauseID,
		DeadlineID:         req.DeadlineID,
		RecipientName:      req.RecipientName,
		RecipientEmail:     req.RecipientEmail,
		DueDate:            req.DeadlineDate,
		CreatedBy:          userID,
		GenerateWithAI:     req.GenerateWithAI,
		TriggerDescription: req.TriggerDescription,
		TriggerDate:        req.TriggerDate,
		DeadlineDate:       req.DeadlineDate,
		AdditionalContext:  req.AdditionalContext,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	api.RespondData(w, http.StatusOK, n)
}

// GetByID returns a single notice
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	projectID, noticeID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	n, err := h.service.GetByID(r.Context(), projectID, noticeID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	api.RespondData(w, http.StatusOK, n)
}

// Update edits a notice
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, noticeID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(api.GetUserID(r.Context()))
	if err != nil {
		api.Unauthorized(w, "Authentication required")
		return
	}

	var req struct {
		Title          *string    `json:"title,omitempty"`
		Content        *string    `json:"content,omitempty"`
		Status         *string    `json:"status,omitempty"`
		RecipientName  *string    `json:"recipientName,omitempty"`
		RecipientEmail *string    `json:"recipientEmail,omitempty"`
		DueDate        *time.Time `json:"dueDate,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}

	params := UpdateParams{
		Title:          req.Title,
		Content:        req.Content,
		RecipientName:  req.RecipientName,
		RecipientEmail: req.RecipientEmail,
		DueDate:        req.DueDate,
	}
	if req.Status != nil {
		if !ValidStatus(*req.Status) {
			api.BadRequest(w, "Invalid status: "+*req.Status)
			return
		}
		s := Status(*req.Status)
		params.Status = &s
	}

	n, err := h.service.Update(r.Context(), projectID, noticeID, userID, params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	api.RespondData(w, http.StatusOK, n)
}

// Delete removes a draft notice
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID, noticeID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(api.GetUserID(r.Context()))
	if err != nil {
		api.Unauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Delete(r.Context(), projectID, noticeID, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	api.RespondData(w, http.StatusOK, map[string]bool{"success": true})
}

// Send delivers a notice via email
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	projectID, noticeID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(api.GetUserID(r.Context()))
	if err != nil {
		api.Unauthorized(w, "Authentication required")
		return
	}

	n, err := h.service.Send(r.Context(), projectID, noticeID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	api.RespondData(w, http.StatusOK, n)
}

// ConfirmDelivery records delivery evidence for a sent notice
func (h *Handler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	projectID, noticeID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(api.GetUserID(r.Context()))
	if err != nil {
		api.Unauthorized(w, "Authentication required")
		return
	}

	var req struct {
		Method         string  `json:"method"`
		TrackingNumber *string `json:"trackingNumber,omitempty"`
		Carrier        *string `json:"carrier,omitempty"`
		DeliveredAt    *string `json:"deliveredAt,omitempty"`
		SignedBy       *string `json:"signedBy,omitempty"`
		ReceivedBy     *string `json:"receivedBy,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.BadRequest(w, "invalid request body")
		return
	}
	if req.Method == "" {
		api.BadRequest(w, "method is required")
		return
	}

	var deliveredAt *time.Time
	if req.DeliveredAt != nil {
		if t, err := time.Parse(time.RFC3339, *req.DeliveredAt); err == nil {
			deliveredAt = &t
		}
	}

	n, err := h.service.ConfirmDelivery(r.Context(), projectID, noticeID, userID, ConfirmDeliveryParams{
		Method:         req.Method,
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		DeliveredAt:    deliveredAt,
		SignedBy:       req.SignedBy,
		ReceivedBy:     req.ReceivedBy,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	api.RespondData(w, http.StatusOK, n)
}

// Regenerate reruns the AI draft for a notice
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	projectID, noticeID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}

	userID, err := uuid.Parse(api.GetUserID(r.Context()))
	if err != nil {
		api.Unauthorized(w, "Authentication required")
		return
	}

	var req struct {
		CustomInstructions string `json:"customInstructions,omitempty"`
	}
	// Body is optional for regenerate
	json.NewDecoder(r.Body).Decode(&req)

	n, err := h.service.Regenerate(r.Context(), projectID, noticeID, userID, req.CustomInstructions)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	api.RespondData(w, http.StatusOK, map[string]string{"content": n.Content})
}

func (h *Handler) parseIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return uuid.Nil, uuid.Nil, false
	}
	noticeID, err := uuid.Parse(chi.URLParam(r, "noticeID"))
	if err != nil {
		api.BadRequest(w, "invalid notice ID")
		return uuid.Nil, uuid.Nil, false
	}
	return projectID, noticeID, true
}
