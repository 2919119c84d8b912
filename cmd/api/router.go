package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-inventaris/internal/alerts"
	"github.com/noah-isme/toko-inventaris/internal/common"
	"github.com/noah-isme/toko-inventaris/internal/health"
	"github.com/noah-isme/toko-inventaris/internal/inventory"
	"github.com/noah-isme/toko-inventaris/internal/obs"
	"github.com/noah-isme/toko-inventaris/internal/pricing"
	"github.com/noah-isme/toko-inventaris/internal/ratelimit"
	"github.com/noah-isme/toko-inventaris/internal/security"
)

type routerDeps struct {
	Logger         zerolog.Logger
	Inventory      *inventory.Handler
	Pricing        pricing.Handler
	Alerts         alerts.Source
	Health         health.Handler
	Metrics        *obs.HTTPMetrics
	Tracing        bool
	Limiter        ratelimit.Allower
	RateWindow     time.Duration
	RateMax        int
	AllowedOrigins []string
	Idempotency    common.Idem
	MaxBodyBytes   int64
	HSTSMaxAge     int
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Tracing {
		r.Use(obs.TracingMiddleware("inventaris-api"))
	}
	if d.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.Metrics}.Middleware)
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{HSTSMaxAge: d.HSTSMaxAge}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(d.AllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id", common.IdempotencyHeader},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	limit := ratelimit.Handler{
		Limiter: d.Limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ClientKey,
			Window: d.RateWindow,
			Max:    d.RateMax,
		},
		OnError: func(err error) {
			d.Logger.Warn().Err(err).Msg("rate_limit_unavailable")
		},
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limit.Middleware)
		v.Use(security.BodyLimit{Max: d.MaxBodyBytes}.Middleware)
		v.Use(d.Idempotency.Middleware)
		v.Route("/products", d.Inventory.Routes)
		v.Get("/inventory/summary", d.Inventory.Summary)
		v.Method(http.MethodGet, "/inventory/alerts", alerts.RecentHandler{Source: d.Alerts})
		v.Post("/discounts/quote", d.Pricing.Quote)
		v.Get("/discounts/tier", d.Pricing.Tier)
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
