package handlers

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/equipment-diagnostics/internal/middleware"
	"github.com/ukydev/equipment-diagnostics/internal/models"
)

// Dependencies wires the router.
type Dependencies struct {
	Store       Store
	Auth        AuthStore
	Analyzer    Analyzer
	Credentials Credentials
	AuthMW      *middleware.AuthMiddleware
	Logger      *log.Logger
	// TrustProxy keys per-client limits on forwarding headers.
	TrustProxy bool
}

// Sign-in and sign-up attempts allowed per client IP.
const (
	authAttempts = 10
	authWindow   = time.Minute
)

// NewRouter registers every route and wraps the mux in the shared middleware.
func NewRouter(deps Dependencies) http.Handler {
	authH := NewAuthHandler(deps.Auth)
	diagH := NewDiagnosticsHandler(deps.Store, deps.Analyzer, deps.Logger)
	logsH := NewLogsHandler(deps.Store)
	manualsH := NewManualsHandler(deps.Store, deps.Logger)
	configH := NewConfigHandler(deps.Store, deps.Analyzer, deps.Credentials, deps.Logger)

	limiter := middleware.NewRateLimitMiddleware(deps.TrustProxy)
	throttle := limiter.RateLimit(authAttempts, authWindow)
	guard := middleware.NewInFlightGuard(deps.TrustProxy)
	can := func(perm string, h http.HandlerFunc) http.Handler {
		return deps.AuthMW.RequirePermission(perm)(h)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", Health)

	mux.Handle("POST /api/auth/signin", throttle(http.HandlerFunc(authH.SignIn)))
	mux.Handle("POST /api/auth/signup", throttle(http.HandlerFunc(authH.SignUp)))
	mux.HandleFunc("POST /api/auth/signout", authH.SignOut)
	mux.HandleFunc("GET /api/auth/me", authH.Me)
	mux.HandleFunc("POST /api/auth/password", authH.UpdatePassword)

	mux.Handle("POST /api/diagnostics/analyze", guard.Guard(can(models.PermAnalyze, diagH.Analyze)))

	mux.Handle("GET /api/logs", can(models.PermViewLogs, logsH.List))
	mux.Handle("POST /api/logs", can(models.PermCreateLog, logsH.Create))

	mux.Handle("GET /api/manuals", can(models.PermViewManuals, manualsH.List))
	mux.Handle("POST /api/manuals", can(models.PermUploadManual, manualsH.Create))
	mux.Handle("GET /api/manuals/search", can(models.PermViewManuals, manualsH.Search))
	mux.Handle("POST /api/manuals/upload", can(models.PermUploadManual, manualsH.Upload))
	mux.Handle("DELETE /api/manuals/{id}", can(models.PermDeleteManual, manualsH.Delete))
	mux.HandleFunc("GET /files/{key...}", manualsH.Download)

	mux.HandleFunc("GET /api/config/status", configH.Status)
	mux.HandleFunc("PUT /api/config/credentials", configH.UpdateCredentials)

	var h http.Handler = mux
	h = deps.AuthMW.Authenticate(h)
	h = middleware.RequestLogger(deps.Logger)(h)
	return h
}
