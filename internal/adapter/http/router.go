package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/obligent/obligent/internal/adapter/http/handler"
	"github.com/obligent/obligent/internal/adapter/http/middleware"
	"github.com/obligent/obligent/internal/infrastructure/auth"
	"github.com/obligent/obligent/internal/infrastructure/metrics"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	IntentHandler   *handler.IntentHandler
	AccountHandler  *handler.AccountHandler
	TransferHandler *handler.TransferHandler
	RouteHandler    *handler.RouteHandler
	MirrorHandler   *handler.MirrorHandler
	HonoringHandler *handler.HonoringHandler
	AuditHandler    *handler.AuditHandler
	LedgerHandler   *handler.LedgerHandler
	HealthHandler   *handler.HealthHandler

	// TokenManager guards the admin surface; nil disables the guard.
	TokenManager *auth.TokenManager
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
	RateLimit    float64
	RateBurst    int
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health and telemetry
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	adminOnly := middleware.AdminAuth(cfg.TokenManager, cfg.Metrics)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
			r.Use(limiter.Limit)
		}

		// Intents
		r.Route("/intents", func(r chi.Router) {
			r.Post("/", cfg.IntentHandler.Submit)
			r.Get("/{id}", cfg.IntentHandler.Get)
			r.Post("/{id}/cancel", cfg.IntentHandler.Cancel)
		})

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.With(adminOnly).Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.With(adminOnly).Post("/{id}/deactivate", cfg.AccountHandler.Deactivate)
			r.Get("/{id}/transfers", cfg.TransferHandler.ListByAccount)
		})

		// Transfers (authoritative reads)
		r.Route("/transfers", func(r chi.Router) {
			r.Get("/{id}", cfg.TransferHandler.Get)
			r.Get("/{id}/honoring", cfg.TransferHandler.ListHonoring)
		})

		// Clearing routes
		r.Route("/routes", func(r chi.Router) {
			r.With(adminOnly).Post("/", cfg.RouteHandler.Create)
			r.Get("/", cfg.RouteHandler.List)
		})

		// Mirror (eventually consistent reads)
		r.Route("/mirror", func(r chi.Router) {
			r.Get("/transfers/{id}", cfg.MirrorHandler.GetTransfer)
			r.Get("/accounts/{id}/transfers", cfg.MirrorHandler.AccountHistory)
			r.With(adminOnly).Post("/rebuild", cfg.MirrorHandler.Rebuild)
		})

		// Honoring agent callbacks
		r.Post("/honoring/callback", cfg.HonoringHandler.Callback)

		// Audit and consistency
		r.With(adminOnly).Get("/audit", cfg.AuditHandler.List)
		r.With(adminOnly).Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
