package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/vasu241267/s-panel/internal/platform/config"
	"github.com/vasu241267/s-panel/internal/platform/database"
	"github.com/vasu241267/s-panel/internal/platform/logger"
	"github.com/vasu241267/s-panel/internal/platform/messagebroker"

	"github.com/vasu241267/s-panel/internal/relay/app"
	"github.com/vasu241267/s-panel/internal/relay/dedup"
	"github.com/vasu241267/s-panel/internal/relay/domain"
	"github.com/vasu241267/s-panel/internal/relay/extract"
	"github.com/vasu241267/s-panel/internal/relay/messenger"
	pgrepo "github.com/vasu241267/s-panel/internal/relay/repository/postgres"
	redisrepo "github.com/vasu241267/s-panel/internal/relay/repository/redis"
	"github.com/vasu241267/s-panel/internal/relay/source"
)

const (
	serviceName     = "relay_service"
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("starting service",
		"poll_interval", cfg.PollInterval,
		"private_workers", cfg.PrivateWorkers,
		"metrics_port", cfg.MetricsPort,
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN, appLogger)
	if err != nil {
		appLogger.Error("failed to initialize database pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(mainCtx).Err(); err != nil {
		// The lease cache degrades to the database; keep going.
		appLogger.Warn("redis unreachable, lease cache will fall through", "error", err)
	}

	nc, err := messagebroker.NewNATSClient(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer nc.Close()

	// Storage and collaborators.
	otpRepo := pgrepo.NewPgOTPRepository(dbPool)
	leaseRepo := redisrepo.NewCachedLeaseRepository(
		pgrepo.NewPgLeaseRepository(dbPool), redisClient, cfg.LeaseCacheTTL, appLogger,
	)
	statsRepo := pgrepo.NewPgStatsRepository(dbPool)

	clock := app.NewClock()
	events := app.NewEventPublisher(nc, clock, appLogger)

	window := dedup.NewWindow(cfg.DedupCapacity)
	extractor := extract.New(extract.Options{
		YearRejectMin: cfg.YearRejectMin,
		YearRejectMax: cfg.YearRejectMax,
	})

	panelClient := source.NewPanelClient(appLogger, cfg.PanelBaseURL, cfg.PanelAPIToken,
		&http.Client{Timeout: cfg.UpstreamTimeout})
	sendClient := messenger.NewClient(appLogger, cfg.TelegramAPIURL, cfg.BotToken,
		&http.Client{Timeout: cfg.SendTimeout})

	broadcastQueue := app.NewQueue(domain.ClassBroadcast, cfg.BroadcastQueueSize)
	privateQueue := app.NewQueue(domain.ClassPrivate, cfg.PrivateQueueSize)
	queues := map[domain.TargetClass]*app.Queue{
		domain.ClassBroadcast: broadcastQueue,
		domain.ClassPrivate:   privateQueue,
	}

	router := app.NewRouter(leaseRepo, cfg.BroadcastChatID, cfg.PreviewLength, appLogger)
	poller := app.NewPoller(app.PollerConfig{
		Interval:        cfg.PollInterval,
		Backoff:         cfg.PollBackoff,
		BatchSize:       cfg.PollBatchSize,
		FingerprintText: cfg.FingerprintTextLength,
	}, panelClient, window, extractor, otpRepo, router, queues, clock, appLogger)

	sweeper := app.NewRetentionSweeper(otpRepo, cfg.Retention, cfg.RetentionSweepInterval, clock, appLogger)

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error { return poller.Run(groupCtx) })
	g.Go(func() error { return sweeper.Run(groupCtx) })

	// One dedicated broadcast sender keeps public-channel ordering;
	// private sends fan out across the pool.
	broadcastWorker := app.NewWorker(broadcastQueue, sendClient, statsRepo, events, clock,
		cfg.SendTimeout, cfg.BroadcastSendDelay, appLogger)
	g.Go(func() error { return broadcastWorker.Run(groupCtx) })

	for i := 0; i < cfg.PrivateWorkers; i++ {
		worker := app.NewWorker(privateQueue, sendClient, statsRepo, events, clock,
			cfg.SendTimeout, cfg.PrivateSendDelay, appLogger)
		g.Go(func() error { return worker.Run(groupCtx) })
	}

	// Metrics surface for the surrounding bot/UI layer.
	metricsRouter := chi.NewRouter()
	metricsRouter.Use(chimiddleware.Recoverer)
	metricsRouter.Handle("/metrics", promhttp.Handler())

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsRouter,
	}
	g.Go(func() error {
		appLogger.Info("metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	appLogger.Info("service components started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLogger.Info("shutdown signal received", "signal", sig.String())
		mainCancel()
	case <-groupCtx.Done():
		appLogger.Warn("component exited, shutting down", "error", groupCtx.Err())
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("service stopped")
}
