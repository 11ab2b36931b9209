package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/juncraft/craftboard/internal/adapter/api"
	"github.com/juncraft/craftboard/internal/adapter/api/middleware"
	"github.com/juncraft/craftboard/internal/adapter/metrics"
	"github.com/juncraft/craftboard/internal/adapter/properties"
	"github.com/juncraft/craftboard/internal/adapter/rcon"
	"github.com/juncraft/craftboard/internal/adapter/repository/postgres"
	redisrepo "github.com/juncraft/craftboard/internal/adapter/repository/redis"
	"github.com/juncraft/craftboard/internal/adapter/repository/spool"
	"github.com/juncraft/craftboard/internal/adapter/tailer"
	"github.com/juncraft/craftboard/internal/domain"
	"github.com/juncraft/craftboard/internal/pkg/config"
	"github.com/juncraft/craftboard/internal/pkg/logger"
	"github.com/juncraft/craftboard/internal/usecase"

	_ "github.com/lib/pq" // Keep for postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// --- Start Admin and Metrics Server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	adminServer := &http.Server{
		Addr:    cfg.AdminServerAddr,
		Handler: adminMux,
	}

	go func() {
		logger.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	eventRepo := postgres.NewEventRepository(db, logger)
	sessionRepo := postgres.NewSessionRepository(db, logger)
	metricsRepo := postgres.NewMetricsRepository(db, logger)

	// --- Event Spool ---
	eventSpool, err := spool.New(cfg.SpoolDir, cfg.SpoolMaxSize, logger)
	if err != nil {
		logger.Error("failed to initialize event spool", "error", err)
		os.Exit(1)
	}
	defer eventSpool.Close()

	// --- Optional Live Cache ---
	var live domain.LiveRepository
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("could not connect to redis, live cache degraded until it recovers", "error", err)
		}
		liveRepo := redisrepo.NewLiveRepository(redisClient, logger)
		go liveRepo.StartHealthCheck(ctx, 5*time.Second)
		live = liveRepo
	}

	// --- Command Gateway ---
	gateway := rcon.NewGateway(cfg.RCONAddr, cfg.RCONPassword, cfg.RCONTimeout, cfg.CommandRate, logger, m)
	defer gateway.Close()

	// --- Event Router and Status Poller ---
	router := usecase.NewEventRouter(eventRepo, sessionRepo, eventSpool, live, logger, m)
	go router.StartSpoolReplay(ctx, 30*time.Second)

	propsReader := properties.NewReader(cfg.PropertiesPath, logger)
	poller := usecase.NewStatusPoller(gateway, propsReader, metricsRepo, router, cfg.PollInterval, logger, m)
	go poller.Run(ctx)

	// --- Log Tailer ---
	tl := tailer.New(cfg.ServerLogPath, cfg.TailInterval, logger, m)
	unsubscribe := tl.Subscribe(func(event domain.Event) {
		router.HandleLogEvent(ctx, event)
	})
	defer unsubscribe()
	go startTailer(ctx, tl, logger)

	// --- Retention Cleanup ---
	go runRetention(ctx, eventRepo, metricsRepo, cfg, logger)

	// --- API Server ---
	apiRouter := api.NewRouter(api.Deps{
		Status:   poller,
		Config:   propsReader,
		Events:   eventRepo,
		Sessions: sessionRepo,
		Metrics:  metricsRepo,
		Log:      tl,
		Gateway:  gateway,
		Stream:   router,
	}, cfg.APIToken, logger)

	apiServer := &http.Server{
		Addr:         cfg.APIServerAddr,
		Handler:      middleware.Logging(logger)(apiRouter),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // SSE connections stay open indefinitely
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		logger.Info("starting api server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down...")

	tl.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin server shutdown failed", "error", err)
	}
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}

	logger.Info("shut down gracefully")
}

// startTailer keeps trying to attach to the log file until it appears.
// Server restarts can briefly leave no log file on disk.
func startTailer(ctx context.Context, tl *tailer.Tailer, logger *slog.Logger) {
	for {
		err := tl.Start(ctx)
		if err == nil {
			return
		}
		logger.Warn("log tailer start failed, retrying", "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

// runRetention prunes old rows once a day.
func runRetention(ctx context.Context, events domain.EventRepository, metricsRepo domain.MetricsRepository, cfg *config.Config, logger *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	prune := func() {
		if n, err := metricsRepo.PruneMetrics(ctx, time.Now().Add(-cfg.MetricsRetention)); err != nil {
			logger.Error("metrics retention prune failed", "error", err)
		} else if n > 0 {
			logger.Info("pruned old metric samples", "rows", n)
		}
		if n, err := events.PruneEvents(ctx, time.Now().Add(-cfg.EventsRetention)); err != nil {
			logger.Error("events retention prune failed", "error", err)
		} else if n > 0 {
			logger.Info("pruned old events", "rows", n)
		}
	}

	prune()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
