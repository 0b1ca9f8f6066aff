package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/adapter/http/handler"
	"github.com/iho/splitsync/internal/adapter/http/middleware"
	"github.com/iho/splitsync/internal/infrastructure/auth"
	"github.com/iho/splitsync/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	GroupHandler      *handler.GroupHandler
	ExpenseHandler    *handler.ExpenseHandler
	SettlementHandler *handler.SettlementHandler
	BalanceHandler    *handler.BalanceHandler
	SyncHandler       *handler.SyncHandler
	HealthHandler     *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Logger           *zerolog.Logger

	// JWTManager is required on /api/v1 when set. Without it requests act
	// as the device identity.
	JWTManager          *auth.JWTManager
	AuthFailureRecorder middleware.AuthFailureRecorder

	// MetricsHandler serves /metrics; nil uses the default gatherer.
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger).Wrap)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager, cfg.AuthFailureRecorder))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", cfg.GroupHandler.Create)
			r.Get("/", cfg.GroupHandler.List)

			r.Route("/{groupID}", func(r chi.Router) {
				r.Get("/", cfg.GroupHandler.Get)
				r.Patch("/", cfg.GroupHandler.Rename)
				r.Put("/sync", cfg.GroupHandler.SetSync)

				r.Get("/members", cfg.GroupHandler.ListMembers)
				r.Post("/members", cfg.GroupHandler.AddMember)
				r.Delete("/members/{userID}", cfg.GroupHandler.RemoveMember)

				r.Get("/expenses", cfg.ExpenseHandler.List)
				r.Post("/expenses", cfg.ExpenseHandler.Create)

				r.Get("/settlements", cfg.SettlementHandler.List)
				r.Post("/settlements", cfg.SettlementHandler.Record)

				r.Get("/debts", cfg.BalanceHandler.Debts)
				r.Get("/balances", cfg.BalanceHandler.Balances)
				r.Get("/simplified", cfg.BalanceHandler.Simplified)
				r.Get("/report", cfg.BalanceHandler.Report)
				r.Get("/report.xlsx", cfg.BalanceHandler.ExportXLSX)

				r.Get("/sync/status", cfg.SyncHandler.Status)
				r.Post("/sync/now", cfg.SyncHandler.SyncNow)
				r.Get("/sync/conflicts", cfg.SyncHandler.Conflicts)
				r.Post("/sync/resolve", cfg.SyncHandler.Resolve)
				r.Post("/sync/merge", cfg.SyncHandler.Merge)
			})
		})

		r.Route("/expenses/{expenseID}", func(r chi.Router) {
			r.Get("/", cfg.ExpenseHandler.Get)
			r.Patch("/", cfg.ExpenseHandler.Update)
			r.Delete("/", cfg.ExpenseHandler.Delete)
		})

		r.Route("/settlements/{settlementID}", func(r chi.Router) {
			r.Get("/", cfg.SettlementHandler.Get)
			r.Post("/confirm", cfg.SettlementHandler.Confirm)
			r.Post("/cancel", cfg.SettlementHandler.Cancel)
		})

		r.Get("/sync", cfg.SyncHandler.ListStatus)
		r.Get("/queue", cfg.SyncHandler.Queue)
		r.Post("/queue/process", cfg.SyncHandler.ProcessQueue)
	})

	return r
}
