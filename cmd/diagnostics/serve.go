package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/equipment-diagnostics/internal/auth"
	"github.com/ukydev/equipment-diagnostics/internal/config"
	"github.com/ukydev/equipment-diagnostics/internal/db"
	"github.com/ukydev/equipment-diagnostics/internal/diagnosis"
	"github.com/ukydev/equipment-diagnostics/internal/events"
	"github.com/ukydev/equipment-diagnostics/internal/gateway"
	"github.com/ukydev/equipment-diagnostics/internal/handlers"
	"github.com/ukydev/equipment-diagnostics/internal/middleware"
	"go.mongodb.org/mongo-driver/mongo"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. The service starts even without store or AI
credentials: reads come back empty, writes and analyses report the missing
configuration, and /api/config/credentials accepts the values to persist.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	resolver := newResolver()
	cfg, err := config.Load(resolver)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, resolver, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(log.Fields{
			"port":             cfg.Server.Port,
			"store_configured": cfg.Store.Configured(),
			"ai_configured":    cfg.AI.APIKey != "",
		}).Info("HTTP server listening")
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return app.server.Shutdown(shutdownCtx)
}

// app owns the server and every connection opened for it.
type app struct {
	server  *http.Server
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, resolver *config.Resolver, logger *log.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		return fail(fmt.Errorf("auth service: %w", err))
	}

	publisher, err := events.NewPublisher(cfg.Events, logger)
	if err != nil {
		// Events are best effort; keep serving without them.
		logger.WithError(err).Warn("Events disabled")
		publisher = events.NopPublisher{}
	}
	a.closers = append(a.closers, publisher.Close)

	analyzer, err := diagnosis.New(ctx, cfg.AI, logger)
	if err != nil {
		return fail(err)
	}
	if !analyzer.Configured() {
		logger.Warn("No Gemini API key resolved, analysis disabled")
	}

	deps := gateway.Deps{Auth: authService, Events: publisher}
	if cfg.Store.Configured() {
		if err := connectStore(ctx, cfg, &deps, a, logger); err != nil {
			// An unreachable store degrades to the unconfigured mode.
			logger.WithError(err).Error("Store unavailable, running without persistence")
			deps = gateway.Deps{Auth: authService, Events: publisher}
		}
	} else {
		logger.Warn("Store credentials not resolved, running without persistence")
	}
	gw := gateway.New(cfg.Store.Configured(), deps, logger)

	router := handlers.NewRouter(handlers.Dependencies{
		Store:       gw,
		Auth:        gw,
		Analyzer:    analyzer,
		Credentials: resolver,
		AuthMW:      middleware.NewAuthMiddleware(authService),
		Logger:      logger,
		TrustProxy:  cfg.Server.TrustProxy,
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func connectStore(ctx context.Context, cfg *config.Config, deps *gateway.Deps, a *app, logger *log.Logger) error {
	client, err := db.ConnectMongo(ctx, cfg.Store)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	})

	database := client.Database(cfg.Store.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		logger.WithError(err).Warn("Failed to ensure indexes")
	}

	blobs, err := newBlobStore(ctx, cfg, database, a)
	if err != nil {
		return err
	}

	deps.Logs = &db.MongoLogCollection{Collection: database.Collection(db.LogsCollection)}
	deps.Manuals = &db.MongoManualCollection{Collection: database.Collection(db.ManualsCollection)}
	deps.Users = &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}
	deps.Blobs = blobs

	logger.WithFields(log.Fields{
		"database": cfg.Store.Database,
		"blobs":    cfg.Store.BlobBackend,
	}).Info("Connected to MongoDB")
	return nil
}

func newBlobStore(ctx context.Context, cfg *config.Config, database *mongo.Database, a *app) (db.BlobStore, error) {
	if cfg.Store.BlobBackend == "gcs" {
		store, err := db.NewGCSStore(ctx, cfg.Store.GCSBucket, cfg.Store.GCSCDNDomain)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = store.Close() })
		return store, nil
	}
	store, err := db.NewGridFSStore(database, cfg.Store.GridFSBucket, cfg.Server.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	return store, nil
}
