package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/goportfolio/internal/adapter/http"
	"github.com/iho/goportfolio/internal/adapter/http/handler"
	"github.com/iho/goportfolio/internal/adapter/price"
	"github.com/iho/goportfolio/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/goportfolio/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/goportfolio/internal/adapter/repository/redis"
	"github.com/iho/goportfolio/internal/infrastructure/config"
	"github.com/iho/goportfolio/internal/infrastructure/logger"
	"github.com/iho/goportfolio/internal/infrastructure/metrics"
	"github.com/iho/goportfolio/internal/infrastructure/postgres"
	"github.com/iho/goportfolio/internal/infrastructure/redis"
	"github.com/iho/goportfolio/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLog); err != nil {
		appLog.Fatal().Err(err).Msg("server failed")
	}

	appLog.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log).Up(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cache, redisPinger, closeCache, err := newPriceCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	portfolioUC := newPortfolioUseCase(cfg, pool, cache, m, log)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		PortfolioHandler: handler.NewPortfolioHandler(portfolioUC),
		FIFOHandler:      handler.NewFIFOHandler(portfolioUC),
		PriceHandler:     handler.NewPriceHandler(portfolioUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisPinger),
		Logger:           log,
		Metrics:          m,
		Gatherer:         reg,
	})

	return serve(ctx, newHTTPServer(cfg, router), cfg.HTTPShutdownTimeout, log)
}

// newPriceCache connects to Redis when REDIS_URL is set and falls back to an
// in-process cache otherwise. The returned pinger is nil for the fallback.
func newPriceCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (usecase.Cache, handler.Pinger, func(), error) {
	if !cfg.UseRedis() {
		log.Info().Msg("REDIS_URL not set, using in-process price cache")
		return memory.NewCache(cfg.PriceCacheTTL, 2*cfg.PriceCacheTTL), nil, func() {}, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisURL, 5*time.Second)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info().Msg("connected to redis")

	cache := redisRepo.NewCache(client)
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close redis client")
		}
	}

	return cache, cache, closeFn, nil
}

func newPortfolioUseCase(cfg *config.Config, pool *pgxpool.Pool, cache usecase.Cache, m *metrics.Metrics, log zerolog.Logger) *usecase.PortfolioUseCase {
	calcCfg := usecase.CalculationConfig{DivisionPrecision: cfg.DecimalPrecision}
	fifo := usecase.NewFIFOCalculationService(calcCfg, log)

	prices := price.NewCachedStore(postgresRepo.NewPriceRepository(pool), cache, cfg.PriceCacheTTL, m, log)

	return usecase.NewPortfolioUseCase(usecase.PortfolioUseCaseConfig{
		PortfolioRepo:    postgresRepo.NewPortfolioRepository(pool),
		TradeRepo:        postgresRepo.NewTradeRepository(pool),
		DepositRepo:      postgresRepo.NewDepositRepository(pool),
		Prices:           prices,
		Calculator:       usecase.NewPortfolioCalculationService(fifo, calcCfg, log),
		IDGen:            postgresRepo.NewULIDGenerator(),
		Retrier:          postgresRepo.NewRetrier(log),
		Metrics:          m,
		Logger:           log,
		FetchConcurrency: cfg.PriceFetchConcurrency,
		DefaultCurrency:  cfg.BaseCurrency,
	})
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// serve runs server until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, log zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
