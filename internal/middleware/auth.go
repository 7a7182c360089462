package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ukydev/equipment-diagnostics/internal/auth"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	UserContextKey contextKey = "user"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authService *auth.Service
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(authService *auth.Service) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates JWT tokens and adds user context. Public paths pass
// through without a token, but still get the claims when a valid one is sent.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if shouldSkipAuth(r.URL.Path) {
			if authHeader != "" {
				if claims, err := m.authService.ValidateToken(authHeader); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), UserContextKey, claims))
				}
			}
			next.ServeHTTP(w, r)
			return
		}

		if authHeader == "" {
			WriteError(w, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}

		claims, err := m.authService.ValidateToken(authHeader)
		if err != nil {
			WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission middleware checks if the user has the required permission
func (m *AuthMiddleware) RequirePermission(requiredAction string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetUserFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "User context not found")
				return
			}

			if !HasPermission(claims, requiredAction) {
				WriteError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HasPermission checks the role carried by claims against an action.
func HasPermission(claims *models.Claims, action string) bool {
	user := &models.User{Role: claims.Role}
	return user.HasPermission(action)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(ctx context.Context) (*models.Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.Claims)
	return claims, ok
}

// shouldSkipAuth determines if authentication should be skipped for a given path
func shouldSkipAuth(path string) bool {
	exact := []string{
		"/api/auth/signin",
		"/api/auth/signup",
		"/api/config/status",
		"/api/config/credentials",
		"/health",
	}
	for _, p := range exact {
		if path == p {
			return true
		}
	}
	return strings.HasPrefix(path, "/files/")
}
