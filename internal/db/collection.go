package db

import (
	"context"
	"io"

	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// LogCollection defines the interface for maintenance log operations.
type LogCollection interface {
	InsertLog(ctx context.Context, log models.MaintenanceLog) (*models.MaintenanceLog, error)
	FindLogs(ctx context.Context) ([]models.MaintenanceLog, error)
}

// ManualCollection defines the interface for manual operations.
type ManualCollection interface {
	InsertManual(ctx context.Context, manual models.Manual) (*models.Manual, error)
	FindManuals(ctx context.Context) ([]models.Manual, error)
	FindManualByModel(ctx context.Context, model string) (*models.Manual, error)
	DeleteManual(ctx context.Context, id string) error
}

// BlobStore stores uploaded files under opaque keys.
type BlobStore interface {
	Upload(ctx context.Context, key string, content io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
}

// Cursor defines the subset of a MongoDB cursor the collections rely on.
type Cursor interface {
	All(ctx context.Context, out interface{}) error
	Close(ctx context.Context) error
}
