package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/auth"
	"github.com/ukydev/equipment-diagnostics/internal/db"
	"github.com/ukydev/equipment-diagnostics/internal/events"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// Deps are the storage and side-channel services the gateway mediates.
// Collections and blobs are nil when the store is not configured.
type Deps struct {
	Logs    db.LogCollection
	Manuals db.ManualCollection
	Users   db.UserCollection
	Blobs   db.BlobStore
	Auth    *auth.Service
	Events  events.Publisher
}

// Gateway is the single entry point for durable reads and writes. Reads
// degrade to empty results; writes fail when the store is not configured.
type Gateway struct {
	configured bool
	logs       db.LogCollection
	manuals    db.ManualCollection
	users      db.UserCollection
	blobs      db.BlobStore
	auth       *auth.Service
	events     events.Publisher
	logger     *log.Logger
	now        func() time.Time
}

// New builds a gateway. configured should reflect whether store credentials
// were resolved; it is forced to false when the collections are missing.
func New(configured bool, deps Deps, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.StandardLogger()
	}
	pub := deps.Events
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &Gateway{
		configured: configured && deps.Logs != nil && deps.Manuals != nil && deps.Users != nil && deps.Blobs != nil,
		logs:       deps.Logs,
		manuals:    deps.Manuals,
		users:      deps.Users,
		blobs:      deps.Blobs,
		auth:       deps.Auth,
		events:     pub,
		logger:     logger,
		now:        time.Now,
	}
}

// IsConfigured reports whether the backing store is usable.
func (g *Gateway) IsConfigured() bool {
	return g.configured
}

// GetLogs returns all maintenance logs, newest first. It never fails: an
// unconfigured or failing store yields an empty list.
func (g *Gateway) GetLogs(ctx context.Context) []models.MaintenanceLog {
	if !g.configured {
		return []models.MaintenanceLog{}
	}
	logs, err := g.logs.FindLogs(ctx)
	if err != nil {
		g.logger.WithError(err).Warn("Failed to fetch maintenance logs")
		return []models.MaintenanceLog{}
	}
	if logs == nil {
		logs = []models.MaintenanceLog{}
	}
	return logs
}

// SaveLog persists a log. The date is always set to the current time.
func (g *Gateway) SaveLog(ctx context.Context, entry models.MaintenanceLog) (*models.MaintenanceLog, error) {
	if !g.configured {
		return nil, fmt.Errorf("save log: %w", models.ErrConfigurationMissing)
	}
	entry.Date = g.now()

	saved, err := g.logs.InsertLog(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("%w: insert log: %v", models.ErrBackendUnavailable, err)
	}

	g.logger.WithFields(log.Fields{
		"log_id":     saved.ID.Hex(),
		"model":      saved.EquipmentModel,
		"resolution": saved.ResolutionType,
	}).Info("Maintenance log saved")
	g.publish(ctx, events.TopicLogCreated, saved)
	return saved, nil
}

// GetManuals returns all manuals, newest first. It never fails.
func (g *Gateway) GetManuals(ctx context.Context) []models.Manual {
	if !g.configured {
		return []models.Manual{}
	}
	manuals, err := g.manuals.FindManuals(ctx)
	if err != nil {
		g.logger.WithError(err).Warn("Failed to fetch manuals")
		return []models.Manual{}
	}
	if manuals == nil {
		manuals = []models.Manual{}
	}
	return manuals
}

// SaveManual persists manual metadata.
func (g *Gateway) SaveManual(ctx context.Context, manual models.Manual) (*models.Manual, error) {
	if !g.configured {
		return nil, fmt.Errorf("save manual: %w", models.ErrConfigurationMissing)
	}
	manual.CreatedAt = g.now()

	saved, err := g.manuals.InsertManual(ctx, manual)
	if err != nil {
		return nil, fmt.Errorf("%w: insert manual: %v", models.ErrBackendUnavailable, err)
	}
	g.publish(ctx, events.TopicManualCreated, saved)
	return saved, nil
}

// DeleteManual removes a manual by id.
func (g *Gateway) DeleteManual(ctx context.Context, id string) error {
	if !g.configured {
		return fmt.Errorf("delete manual: %w", models.ErrConfigurationMissing)
	}

	if err := g.manuals.DeleteManual(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrValidation) {
			return err
		}
		return fmt.Errorf("%w: delete manual: %v", models.ErrBackendUnavailable, err)
	}
	g.publish(ctx, events.TopicManualDeleted, map[string]string{"id": id})
	return nil
}

// FindManualByModel returns the newest manual whose model contains the
// query, case-insensitively, or nil. It never fails.
func (g *Gateway) FindManualByModel(ctx context.Context, model string) *models.Manual {
	if !g.configured || model == "" {
		return nil
	}
	manual, err := g.manuals.FindManualByModel(ctx, model)
	if err != nil {
		g.logger.WithError(err).WithField("model", model).Warn("Failed to look up manual")
		return nil
	}
	return manual
}

func (g *Gateway) publish(ctx context.Context, topic string, payload any) {
	if err := g.events.Publish(ctx, topic, payload); err != nil {
		g.logger.WithError(err).WithField("topic", topic).Warn("Failed to publish event")
	}
}
