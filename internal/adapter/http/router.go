package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/goportfolio/internal/adapter/http/handler"
	"github.com/iho/goportfolio/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	PortfolioHandler *handler.PortfolioHandler
	FIFOHandler      *handler.FIFOHandler
	PriceHandler     *handler.PriceHandler
	HealthHandler    *handler.HealthHandler
	Logger           zerolog.Logger
	Metrics          middleware.HTTPRecorder // optional
	Gatherer         prometheus.Gatherer     // optional, serves /metrics
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/fifo", cfg.FIFOHandler.Calculate)

		// Portfolios
		r.Route("/portfolios", func(r chi.Router) {
			r.Post("/", cfg.PortfolioHandler.Create)
			r.Get("/", cfg.PortfolioHandler.List)
			r.Get("/{id}", cfg.PortfolioHandler.Get)
			r.Get("/{id}/summary", cfg.PortfolioHandler.Summary)
			r.Get("/{id}/holdings", cfg.PortfolioHandler.Holdings)
			r.Post("/{id}/recalculate", cfg.PortfolioHandler.Recalculate)
			r.Post("/{id}/trades", cfg.PortfolioHandler.RecordTrade)
			r.Post("/{id}/deposits", cfg.PortfolioHandler.RecordDeposit)
		})

		r.Put("/prices/{symbol}", cfg.PriceHandler.Set)
	})

	return r
}
