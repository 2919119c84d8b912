package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-inventaris/internal/alerts"
	"github.com/noah-isme/toko-inventaris/internal/cache"
	"github.com/noah-isme/toko-inventaris/internal/common"
	"github.com/noah-isme/toko-inventaris/internal/config"
	"github.com/noah-isme/toko-inventaris/internal/events"
	"github.com/noah-isme/toko-inventaris/internal/health"
	"github.com/noah-isme/toko-inventaris/internal/inventory"
	"github.com/noah-isme/toko-inventaris/internal/lock"
	"github.com/noah-isme/toko-inventaris/internal/obs"
	"github.com/noah-isme/toko-inventaris/internal/pricing"
	"github.com/noah-isme/toko-inventaris/internal/ratelimit"
	"github.com/noah-isme/toko-inventaris/internal/resilience"
	"github.com/noah-isme/toko-inventaris/internal/store/memory"
	"github.com/noah-isme/toko-inventaris/internal/store/postgres"
)

func main() {
	cfg := config.MustLoad()

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Str("service", "api").Logger()
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "inventaris-api",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var (
		repo       inventory.Repository
		eventStore events.EventStore
		history    events.History
		deps       []health.Dependency
	)
	if cfg.UsePostgres() {
		if cfg.RunMigrations {
			if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
				logger.Fatal().Err(err).Msg("run migrations")
			}
			logger.Info().Msg("migrations applied")
		}
		pool, err := openPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		repo = postgres.Repository{DB: pool}
		pgEvents := postgres.EventStore{DB: pool}
		eventStore, history = pgEvents, pgEvents
		deps = append(deps, health.Dependency{Name: "database", Check: pool.Ping})
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory store")
		repo = memory.NewRepository()
		memEvents := &memory.EventStore{}
		eventStore, history = memEvents, memEvents
		deps = append(deps, health.Dependency{Name: "database"})
	}

	var (
		locker      inventory.Locker = &lock.Local{}
		limiter     ratelimit.Allower = ratelimit.NewMemoryLimiter("inventaris")
		notifiers   []events.Notifier
		alertSource alerts.Source
		idem        common.Idem
	)
	if cfg.UseRedis() {
		redisClient, err := openRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()

		resilience.MustRegisterMetrics(cfg.Obs.MetricsNamespace, nil)
		repo = cache.ProductRepository{
			Repository: repo,
			Cache:      cache.NewJSON(redisClient, cfg.ProductCacheTTL),
			Breaker:    resilience.NewBreaker("product-cache", 10, 0.5, 30*time.Second).WithLogger(logger),
			Logger:     logger,
		}
		idem = common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
		locker = lock.Locker{R: redisClient, TTL: cfg.LockTTL, RetryBackoff: cfg.LockRetryBackoff}
		limiter = ratelimit.Limiter{Client: redisClient, Prefix: "inventaris:ratelimit"}

		asynqClient := asynq.NewClientFromRedisClient(redisClient)
		notifiers = append(notifiers, alerts.Notifier{
			Client:   asynqClient,
			Queue:    cfg.AlertsQueue,
			MaxRetry: cfg.AlertsMaxRetry,
		})
		alertSource = alerts.RedisRecorder{Client: redisClient}
		deps = append(deps, health.Dependency{Name: "redis", Check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	} else {
		logger.Warn().Msg("REDIS_URL not set, using in-process locks and rate limiting; alerts disabled")
		deps = append(deps, health.Dependency{Name: "redis"})
	}

	bus := &events.Bus{Store: eventStore, Notifiers: notifiers}
	svc := inventory.NewService(inventory.ServiceConfig{
		Repository: repo,
		Locker:     locker,
		Events:     bus,
		TaxBps:     cfg.PricingTaxRateBPS,
		Logger:     &logger,
	})

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	handler := newRouter(routerDeps{
		Logger:         logger,
		Inventory:      inventory.NewHandler(inventory.HandlerConfig{Service: svc, History: history}),
		Pricing:        pricing.Handler{TaxBps: cfg.PricingTaxRateBPS},
		Alerts:         alertSource,
		Health:         health.Handler{Deps: deps, Timeout: 500 * time.Millisecond},
		Metrics:        httpMetrics,
		Tracing:        tracingEnabled,
		Limiter:        limiter,
		RateWindow:     cfg.RateLimitWindow,
		RateMax:        cfg.RateLimitMax,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Idempotency:    idem,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		HSTSMaxAge:     cfg.HSTSMaxAge,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop, stopCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopCancel()

	go func() {
		<-stop.Done()
		health.SetReady(false)
		logger.Info().Msg("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Bool("postgres", cfg.UsePostgres()).Bool("redis", cfg.UseRedis()).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func openPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "inventaris-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func openRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
