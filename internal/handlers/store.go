package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/auth"
	"github.com/ukydev/equipment-diagnostics/internal/diagnosis"
	"github.com/ukydev/equipment-diagnostics/internal/middleware"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// Store is the persistence surface used by the handlers. *gateway.Gateway
// implements it.
type Store interface {
	IsConfigured() bool
	GetLogs(ctx context.Context) []models.MaintenanceLog
	SaveLog(ctx context.Context, entry models.MaintenanceLog) (*models.MaintenanceLog, error)
	GetManuals(ctx context.Context) []models.Manual
	SaveManual(ctx context.Context, manual models.Manual) (*models.Manual, error)
	DeleteManual(ctx context.Context, id string) error
	FindManualByModel(ctx context.Context, model string) *models.Manual
	UploadFile(ctx context.Context, fileName string, content io.Reader) (*models.UploadedFile, error)
	OpenFile(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// AuthStore holds the account operations. *gateway.Gateway implements it.
type AuthStore interface {
	SignIn(ctx context.Context, creds models.Credentials) (*models.Session, error)
	SignUp(ctx context.Context, creds models.Credentials) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, claims *models.Claims) (*models.User, error)
	UpdatePassword(ctx context.Context, claims *models.Claims, current, next string) error
}

// Analyzer produces a diagnosis. *diagnosis.Client implements it.
type Analyzer interface {
	Configured() bool
	Analyze(ctx context.Context, info models.EquipmentInfo, manualText, history string, image *diagnosis.Image) (*models.DiagnosticResult, error)
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	message := err.Error()

	switch {
	case errors.Is(err, models.ErrValidation):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, models.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrConfigurationMissing):
		status, code = http.StatusServiceUnavailable, "configuration_missing"
	case errors.Is(err, models.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "rate_limited"
		message = "The analysis service is busy, wait a minute and try again"
	case errors.Is(err, models.ErrSchemaMismatch):
		status, code = http.StatusBadGateway, "analysis_failed"
	case errors.Is(err, models.ErrBackendUnavailable):
		status, code = http.StatusBadGateway, "backend_unavailable"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrRevokedToken):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrUserInactive):
		status, code = http.StatusForbidden, "user_inactive"
	case errors.Is(err, auth.ErrEmailTaken):
		status, code = http.StatusConflict, "email_taken"
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("code", code).Error("Request failed")
	}
	if code == "internal_error" {
		message = "Internal server error"
	}
	middleware.WriteError(w, status, code, message)
}

func badRequest(w http.ResponseWriter, message string) {
	middleware.WriteError(w, http.StatusBadRequest, "validation_failed", message)
}

func validationError(message string) error {
	return fmt.Errorf("%w: %s", models.ErrValidation, message)
}
