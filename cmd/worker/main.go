package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chancat/channel-catalog-go/internal/app"
	"github.com/chancat/channel-catalog-go/internal/config"
	"github.com/chancat/channel-catalog-go/internal/queue"
	"github.com/chancat/channel-catalog-go/internal/service/digest"
	"github.com/chancat/channel-catalog-go/internal/source/telegram"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"go.uber.org/zap"
)

const connectTimeout = 2 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Redis.URL == "" {
		return fmt.Errorf("redis.url is required for the worker")
	}

	log.Info("worker starting",
		zap.Int("concurrency", cfg.Worker.Concurrency),
		zap.String("cycle_schedule", cfg.Collector.Schedule),
		zap.String("digest_schedule", cfg.Digest.Schedule),
		zap.String("digest_timezone", cfg.Digest.Timezone),
	)

	ctx := context.Background()
	pool, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	log.Info("database connection established")

	stores := app.NewStores(pool)

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	conn, err := telegram.Connect(connCtx, telegram.CollectorOptions(cfg.Telegram), log.Named("collector"))
	cancel()
	if err != nil {
		return fmt.Errorf("collector session: %w", err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn("failed to close collector session", zap.Error(err))
		}
	}()

	src := telegram.NewSource(conn.API(), app.RetryPolicy(cfg), log)

	locker, closeLocker, err := app.NewLocker(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLocker() }()

	coll := app.NewCollector(cfg, pool, stores, src, locker, log)

	publishing, err := app.NewPublishing(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publishing.Close(); err != nil {
			log.Warn("failed to close digest notifiers", zap.Error(err))
		}
	}()
	if publishing.Manager.Len() == 0 {
		log.Warn("no digest notifiers configured, digests will be generated but not delivered")
	}

	generator := app.NewDigestGenerator(cfg, app.NewRankingEngine(cfg, stores), log)
	sender := digest.NewSender(generator, publishing.Manager)

	handler := queue.NewHandler(coll, sender, log)
	server, err := queue.NewServer(cfg.Redis.URL, cfg.Worker.Concurrency, handler, log)
	if err != nil {
		return fmt.Errorf("create queue server: %w", err)
	}

	scheduler, err := queue.NewScheduler(cfg.Redis.URL, queue.Schedule{
		Cycle:    cfg.Collector.Schedule,
		Digest:   cfg.Digest.Schedule,
		Location: cfg.DigestLocation(),
	}, log)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	if err := server.Start(); err != nil {
		return fmt.Errorf("start queue server: %w", err)
	}
	defer server.Stop()

	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer scheduler.Stop()

	log.Info("worker started", zap.Any("schedules", scheduler.Entries()))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown

	log.Info("shutdown signal received", zap.String("signal", sig.String()))
	return nil
}
