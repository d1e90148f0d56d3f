package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Envelope conventions: successful responses wrap the payload as
// {"data": ...}; errors carry {"detail": ...} with a 4xx/5xx status.

// RespondData sends a JSON success response wrapped in a data envelope
func RespondData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// RespondDetail sends a JSON error response with a detail message
func RespondDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// BadRequest sends a 400 response
func BadRequest(w http.ResponseWriter, detail string) {
	RespondDetail(w, http.StatusBadRequest, detail)
}

// Unauthorized sends a 401 response
func Unauthorized(w http.ResponseWriter, detail string) {
	RespondDetail(w, http.StatusUnauthorized, detail)
}

// Forbidden sends a 403 response
func Forbidden(w http.ResponseWriter, detail string) {
	RespondDetail(w, http.StatusForbidden, detail)
}

// NotFound sends a 404 response
func NotFound(w http.ResponseWriter, detail string) {
	RespondDetail(w, http.StatusNotFound, detail)
}

// Conflict sends a 409 response
func Conflict(w http.ResponseWriter, detail string) {
	RespondDetail(w, http.StatusConflict, detail)
}

// UpstreamError sends a 502 response for language-model or email transport failures
func UpstreamError(w http.ResponseWriter, detail string) {
	RespondDetail(w, http.StatusBadGateway, detail)
}

// InternalError sends a 500 response
func InternalError(w http.ResponseWriter) {
	RespondDetail(w, http.StatusInternalServerError, "Internal server error")
}

// RateLimited sends a 429 response
func RateLimited(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	RespondDetail(w, http.StatusTooManyRequests, "Rate limit exceeded")
}
