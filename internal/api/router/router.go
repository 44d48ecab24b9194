package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/dishom/opsboard/internal/api/handlers"
	"github.com/dishom/opsboard/internal/api/middleware"
	"github.com/dishom/opsboard/internal/config"
	"github.com/dishom/opsboard/internal/pkg/logger"
	"github.com/dishom/opsboard/internal/pkg/metrics"
)

type Handlers struct {
	Health   *handlers.HealthHandler
	Audit    *handlers.AuditHandler
	Rule     *handlers.RuleHandler
	Incident *handlers.IncidentHandler
	Metrics  *handlers.MetricsHandler
	Actions  *handlers.ActionsHandler
	LiveFeed *handlers.LiveFeedHandler
}

func New(cfg *config.Config, log *logger.Logger, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.DefaultCORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(cfg.Engine.RateLimitPerSecond, cfg.Engine.RateLimitBurst))

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)

		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)
		r.Handle("/metrics", metrics.Handler())
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth.JWTSecret))

		// Audit trail: requires the view-logs capability
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireViewLogs)

			r.Route("/api/v1/logs", func(r chi.Router) {
				r.Get("/", h.Audit.List)
				r.Get("/timeline", h.Audit.Timeline)
			})
			r.Get("/api/v1/live-events", h.Audit.RecentEvents)
		})

		// Dashboard metrics: any authenticated operator
		r.Get("/api/v1/metrics", h.Metrics.Trends)

		// Incident and rule management: requires manage-incidents
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireManageIncidents)

			r.Route("/api/v1/incidents", func(r chi.Router) {
				r.Get("/", h.Incident.List)
				r.Post("/", h.Incident.Create)
				r.Post("/bulk_resolve", h.Incident.BulkResolve)
				r.Get("/{id}", h.Incident.Get)
				r.Patch("/{id}/status", h.Incident.UpdateStatus)
				r.Patch("/{id}/assign", h.Incident.Assign)
			})

			r.Route("/api/v1/alerts", func(r chi.Router) {
				r.Get("/", h.Rule.List)
				r.Post("/", h.Rule.Create)
				r.Get("/{id}", h.Rule.Get)
				r.Put("/{id}", h.Rule.Update)
				r.Delete("/{id}", h.Rule.Delete)
			})

			r.Post("/api/v1/actions", h.Actions.Execute)
		})

		// Live feed WebSocket: token rides in query or cookie
		r.Get("/ws/live-events/{app}", h.LiveFeed.Serve)
	})

	return r
}
