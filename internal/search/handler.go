package search

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/efilo/compliance/internal/api"
)

// Handler handles compliance search requests
type Handler struct {
	service *Service
}

// NewHandler creates a new search handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Search runs a keyword search across compliance entities
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		api.BadRequest(w, "invalid project ID")
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		api.BadRequest(w, "q is required")
		return
	}

	var types []string
	if typesParam := r.URL.Query().Get("types"); typesParam != "" {
		for _, t := range strings.Split(typesParam, ",") {
			t = strings.TrimSpace(t)
			if t == TypeClause || t == TypeDeadline || t == TypeNotice {
				types = append(types, t)
			}
		}
	}

	results, err := h.service.Search(r.Context(), projectID, Params{
		Query:    q,
		Types:    types,
		Status:   r.URL.Query().Get("status"),
		Severity: r.URL.Query().Get("severity"),
	})
	if err != nil {
		api.InternalError(w)
		return
	}
	if results == nil {
		results = []Result{}
	}

	api.RespondData(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}
