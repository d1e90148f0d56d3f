package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/efilo/compliance/internal/api"
)

// Middleware provides JWT authentication middleware
type Middleware struct {
	jwtManager *JWTManager
}

// NewMiddleware creates a new auth middleware
func NewMiddleware(jwtManager *JWTManager) *Middleware {
	return &Middleware{jwtManager: jwtManager}
}

// RequireAuth returns middleware that requires a valid JWT bearer token
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			api.Unauthorized(w, "Authorization header required")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			api.Unauthorized(w, "Invalid authorization format")
			return
		}

		token := authHeader[7:]

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				api.Unauthorized(w, "Token has expired")
				return
			}
			api.Unauthorized(w, "Invalid token")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, api.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, api.UserRoleKey, claims.Role)
		ctx = context.WithValue(ctx, api.UserEmailKey, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole returns middleware that requires one of the given roles
func (m *Middleware) RequireRole(roles ...string) api.Middleware {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userRole := api.GetUserRole(r.Context())
			if userRole == "" {
				api.Unauthorized(w, "Authentication required")
				return
			}
			if !allowed[userRole] {
				api.Forbidden(w, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
