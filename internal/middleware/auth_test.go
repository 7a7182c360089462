package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/equipment-diagnostics/internal/auth"
	"github.com/ukydev/equipment-diagnostics/internal/config"
	"github.com/ukydev/equipment-diagnostics/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newAuthService(t *testing.T) *auth.Service {
	t.Helper()
	service, err := auth.NewService(config.AuthConfig{JWTSecret: "middleware-test", TokenExpiry: time.Hour})
	require.NoError(t, err)
	return service
}

func tokenFor(t *testing.T, service *auth.Service, role models.Role) (string, *models.User) {
	t.Helper()
	user := &models.User{
		ID:    primitive.NewObjectID(),
		Email: string(role) + "@example.com",
		Role:  role,
	}
	token, _, err := service.GenerateToken(user)
	require.NoError(t, err)
	return token, user
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	authService := newAuthService(t)
	middleware := NewAuthMiddleware(authService)

	t.Run("valid token", func(t *testing.T) {
		token, user := tokenFor(t, authService, models.RoleTechnician)

		req := httptest.NewRequest("GET", "/api/logs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			claims, ok := GetUserFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, user.Email, claims.Email)
			assert.Equal(t, user.Role, claims.Role)
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing authorization header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/logs", nil)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "unauthorized", body["error"])
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/logs", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		token, _ := tokenFor(t, authService, models.RoleTechnician)
		claims, err := authService.ValidateToken(token)
		require.NoError(t, err)
		authService.Revoke(claims)

		req := httptest.NewRequest("GET", "/api/logs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		middleware.Authenticate(http.NotFoundHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("skip auth path", func(t *testing.T) {
		for _, path := range []string{"/api/auth/signin", "/health", "/api/config/status", "/files/manuals/a.pdf"} {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				_, ok := GetUserFromContext(r.Context())
				assert.False(t, ok)
			})

			middleware.Authenticate(handler).ServeHTTP(w, req)
			assert.True(t, handlerCalled, path)
			assert.Equal(t, http.StatusOK, w.Code, path)
		}
	})

	t.Run("skip auth path keeps valid claims", func(t *testing.T) {
		token, user := tokenFor(t, authService, models.RoleAdmin)
		req := httptest.NewRequest("PUT", "/api/config/credentials", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		var got *models.Claims
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = GetUserFromContext(r.Context())
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		require.NotNil(t, got)
		assert.Equal(t, user.ID.Hex(), got.UserID)
	})

	t.Run("prefix of a public path is not public", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/auth/signinx", nil)
		w := httptest.NewRecorder()
		middleware.Authenticate(http.NotFoundHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthMiddleware_RequirePermission(t *testing.T) {
	authService := newAuthService(t)
	middleware := NewAuthMiddleware(authService)

	tests := []struct {
		name       string
		role       models.Role
		permission string
		wantCode   int
	}{
		{"admin can delete manuals", models.RoleAdmin, models.PermDeleteManual, http.StatusOK},
		{"technician can analyze", models.RoleTechnician, models.PermAnalyze, http.StatusOK},
		{"technician cannot delete manuals", models.RoleTechnician, models.PermDeleteManual, http.StatusForbidden},
		{"viewer can view logs", models.RoleViewer, models.PermViewLogs, http.StatusOK},
		{"viewer cannot analyze", models.RoleViewer, models.PermAnalyze, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _ := tokenFor(t, authService, tt.role)
			req := httptest.NewRequest("GET", "/api/manuals", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			})

			middleware.Authenticate(middleware.RequirePermission(tt.permission)(handler)).ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantCode == http.StatusOK, handlerCalled)
		})
	}

	t.Run("no user context", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/manuals", nil)
		w := httptest.NewRecorder()
		middleware.RequirePermission(models.PermViewManuals)(http.NotFoundHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetUserFromContext(t *testing.T) {
	claims := &models.Claims{
		UserID: "test-id",
		Email:  "tech@example.com",
		Role:   models.RoleAdmin,
	}

	ctx := context.WithValue(context.Background(), UserContextKey, claims)

	retrievedClaims, ok := GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims.UserID, retrievedClaims.UserID)
	assert.Equal(t, claims.Email, retrievedClaims.Email)
	assert.Equal(t, claims.Role, retrievedClaims.Role)

	_, ok = GetUserFromContext(context.Background())
	assert.False(t, ok)
}
