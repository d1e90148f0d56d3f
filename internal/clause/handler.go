package clause

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/api"
	"github.com/efilo/compliance/internal/document"
)

// Handler handles clause-related HTTP requests
type Handler struct {
	repo      *Repository
	service   *Service
	extractor *Extractor
}

// NewHandler creates a new clause handler
func NewHandler(repo *Repository, service *Service, extractor *Extractor) *Handler {
	return &Handler{repo: repo, service: service, extractor: extractor}
}

// Routes returns the clause routes, mounted under
// /projects/{projectID}/compliance/clauses. ParseContract is registered
// separately at the compliance root.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{clauseID}", h.GetByID)
	r.Patch("/{clauseID}/confirm", h.Confirm)

	return r
}

// ParseContract extracts compliance clauses from a parsed document
func (h *Handler) ParseContract(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	var req struct {
		DocumentID uuid.UUID `json:"documentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DocumentID == uuid.Nil {
		api.BadRequest(w, "documentId is required")
		return
	}

	var userID *uuid.UUID
	if id, err := uuid.Parse(api.GetUserID(r.Context())); err == nil {
		userID = &id
	}

	clauses, err := h.extractor.ExtractFromDocument(r.Context(), projectID, req.DocumentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, document.ErrDocumentNotFound):
			api.BadRequest(w, "Document not found")
		case errors.Is(err, document.ErrNoChunks):
			api.BadRequest(w, "Document has no extracted text")
		default:
			api.RespondDetail(w, http.StatusInternalServerError, "Failed to extract clauses")
		}
		return
	}

	if clauses == nil {
		clauses = []*Clause{}
	}

	api.RespondData(w, http.StatusOK, map[string]interface{}{
		"clausesExtracted": len(clauses),
		"clauses":          clauses,
	})
}

// List returns contract clauses for a project
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	var kind *Kind
	if kindStr := r.URL.Query().Get("kind"); kindStr != "" {
		if !ValidKind(kindStr) {
			api.BadRequest(w, "Invalid kind: "+kindStr)
			return
		}
		k := Kind(kindStr)
		kind = &k
	}

	confirmedOnly := r.URL.Query().Get("confirmed") == "true"

	clauses, err := h.repo.ListByProject(r.Context(), projectID, kind, confirmedOnly)
	if err != nil {
		api.InternalError(w)
		return
	}
	if clauses == nil {
		clauses = []*Clause{}
	}

	api.RespondData(w, http.StatusOK, clauses)
}

// GetByID returns a single clause
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	clauseID, err := uuid.Parse(chi.URLParam(r, "clauseID"))
	if err != nil {
		api.BadRequest(w, "invalid clause ID")
		return
	}

	c, err := h.repo.GetByID(r.Context(), projectID, clauseID)
	if err != nil {
		if errors.Is(err, ErrClauseNotFound) {
			api.NotFound(w, "Clause not found")
			return
		}
		api.InternalError(w)
		return
	}

	api.RespondData(w, http.StatusOK, c)
}

// Confirm marks a clause as reviewed and accurate
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	clauseID, err := uuid.Parse(chi.URLParam(r, "clauseID"))
	if err != nil {
		api.BadRequest(w, "invalid clause ID")
		return
	}

	userID, err := uuid.Parse(api.GetUserID(r.Context()))
	if err != nil {
		api.Unauthorized(w, "Authentication required")
		return
	}

	c, err := h.service.Confirm(r.Context(), projectID, clauseID, userID)
	if err != nil {
		if errors.Is(err, ErrClauseNotFound) {
			api.NotFound(w, "Clause not found")
			return
		}
		api.InternalError(w)
		return
	}

	api.RespondData(w, http.StatusOK, c)
}
