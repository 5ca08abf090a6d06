package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platofoods/plato-backend/api/routes"
	"github.com/platofoods/plato-backend/internal/carts"
	"github.com/platofoods/plato-backend/internal/catalog"
	"github.com/platofoods/plato-backend/internal/dispatch"
	internalorders "github.com/platofoods/plato-backend/internal/orders"
	"github.com/platofoods/plato-backend/internal/tracking"
	"github.com/platofoods/plato-backend/pkg/config"
	"github.com/platofoods/plato-backend/pkg/db"
	"github.com/platofoods/plato-backend/pkg/logger"
	"github.com/platofoods/plato-backend/pkg/metrics"
	"github.com/platofoods/plato-backend/pkg/migrate"
	"github.com/platofoods/plato-backend/pkg/outbox"
	"github.com/platofoods/plato-backend/pkg/pricing"
	"github.com/platofoods/plato-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	estimator, err := pricing.NewEstimator(cfg.Pricing.CourierSpeedKmh, cfg.Pricing.FallbackDistanceKm)
	if err != nil {
		logg.Error(context.Background(), "failed to build eta estimator", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	cartsRepo := carts.NewRepository(dbClient.DB())
	ordersRepo := internalorders.NewRepository(dbClient.DB())
	trackingRepo := tracking.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	hub := tracking.NewHub()

	catalogService := catalog.NewService(catalogRepo)
	cartService := carts.NewService(cartsRepo, catalogRepo)
	ordersService := internalorders.NewService(
		ordersRepo,
		catalogRepo,
		cartsRepo,
		estimator,
		dbClient,
		outboxService,
		hub,
		dispatchMetrics,
		logg,
	)
	dispatchService := dispatch.NewService(ordersRepo, dbClient, outboxService, dispatchMetrics, logg)
	trackingService := tracking.NewService(trackingRepo, ordersRepo, catalogRepo, hub, dispatchMetrics, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			catalogService,
			cartService,
			ordersService,
			dispatchService,
			trackingService,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(logCtx, "api server shut down gracefully")
}
