package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ukydev/equipment-diagnostics/internal/middleware"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	store AuthStore
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(store AuthStore) *AuthHandler {
	return &AuthHandler{store: store}
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.store.SignIn(r.Context(), creds)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, session)
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	session, err := h.store.SignUp(r.Context(), creds)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, session)
}

// SignOut handles POST /api/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SignOut(r.Context(), r.Header.Get("Authorization")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "unauthorized", "User context not found")
		return
	}

	user, err := h.store.CurrentUser(r.Context(), claims)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword handles POST /api/auth/password
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, "unauthorized", "User context not found")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		badRequest(w, "Current and new password are required")
		return
	}

	if err := h.store.UpdatePassword(r.Context(), claims, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (models.Credentials, bool) {
	var creds models.Credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&creds); err != nil {
		badRequest(w, "Invalid JSON")
		return creds, false
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		badRequest(w, "Email and password are required")
		return creds, false
	}
	return creds, true
}
