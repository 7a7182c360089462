package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the gateway, the inference client and the handlers.
var (
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrBackendNotConfigured = fmt.Errorf("backend not configured: %w", ErrConfigurationMissing)
	ErrBackendUnavailable   = errors.New("backend unavailable")
	ErrRateLimited          = errors.New("rate limited")
	ErrSchemaMismatch       = errors.New("schema mismatch")
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
)
