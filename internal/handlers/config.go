package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/middleware"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// Credentials reads and persists the override credentials. *config.Resolver
// implements it.
type Credentials interface {
	Path() string
	StoreConfigured() bool
	AIKey() string
	SetStoreCredentials(url, key string) error
	SetAIKey(key string) error
}

// ConfigHandler reports and updates the backend credentials.
type ConfigHandler struct {
	store       Store
	analyzer    Analyzer
	credentials Credentials
	logger      *log.Logger
}

// NewConfigHandler creates a new configuration handler
func NewConfigHandler(store Store, analyzer Analyzer, credentials Credentials, logger *log.Logger) *ConfigHandler {
	return &ConfigHandler{store: store, analyzer: analyzer, credentials: credentials, logger: logger}
}

// ConfigStatus tells the client whether the running process has a store
// and an inference key, and whether persisted credentials are waiting for a
// restart.
type ConfigStatus struct {
	StoreConfigured bool   `json:"store_configured"`
	AIConfigured    bool   `json:"ai_configured"`
	CredentialsFile string `json:"credentials_file"`
	RestartRequired bool   `json:"restart_required"`
}

func (h *ConfigHandler) status() ConfigStatus {
	s := ConfigStatus{
		StoreConfigured: h.store.IsConfigured(),
		AIConfigured:    h.analyzer.Configured(),
		CredentialsFile: h.credentials.Path(),
	}
	s.RestartRequired = (!s.StoreConfigured && h.credentials.StoreConfigured()) ||
		(!s.AIConfigured && h.credentials.AIKey() != "")
	return s
}

// Status handles GET /api/config/status
func (h *ConfigHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.status())
}

type credentialsRequest struct {
	StoreURL string `json:"store_url"`
	StoreKey string `json:"store_key"`
	AIKey    string `json:"ai_key"`
}

// UpdateCredentials handles PUT /api/config/credentials. Anyone may set the
// credentials while none resolve; afterwards it takes an admin, even when the
// store could not be reached at startup.
func (h *ConfigHandler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	if h.store.IsConfigured() || h.credentials.StoreConfigured() {
		claims, ok := middleware.GetUserFromContext(r.Context())
		if !ok {
			middleware.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authorization header required")
			return
		}
		if !middleware.HasPermission(claims, models.PermManageConfig) {
			middleware.WriteError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
			return
		}
	}

	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		badRequest(w, "Invalid JSON")
		return
	}
	req.StoreURL = strings.TrimSpace(req.StoreURL)
	req.StoreKey = strings.TrimSpace(req.StoreKey)
	req.AIKey = strings.TrimSpace(req.AIKey)

	if req.StoreURL == "" && req.StoreKey == "" && req.AIKey == "" {
		badRequest(w, "Provide the store credentials, the AI key, or both")
		return
	}

	if req.StoreURL != "" || req.StoreKey != "" {
		if err := h.credentials.SetStoreCredentials(req.StoreURL, req.StoreKey); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if req.AIKey != "" {
		if err := h.credentials.SetAIKey(req.AIKey); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	h.logger.WithFields(log.Fields{
		"file":  h.credentials.Path(),
		"store": req.StoreURL != "",
		"ai":    req.AIKey != "",
	}).Info("Credentials updated")

	s := h.status()
	s.RestartRequired = true
	middleware.WriteJSON(w, http.StatusOK, s)
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
