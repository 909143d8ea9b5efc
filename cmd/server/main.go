package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chancat/channel-catalog-go/internal/app"
	"github.com/chancat/channel-catalog-go/internal/config"
	"github.com/chancat/channel-catalog-go/internal/handler"
	"github.com/chancat/channel-catalog-go/internal/metrics"
	"github.com/chancat/channel-catalog-go/internal/middleware"
	"github.com/chancat/channel-catalog-go/internal/queue"
	"github.com/chancat/channel-catalog-go/internal/service/catalog"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
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

	admins, err := cfg.Admins()
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		log.Warn("no administrators configured, admin endpoints will reject all requests",
			zap.String("env_var", "CATALOG_ADMIN_IDS"),
		)
	}

	ctx := context.Background()
	pool, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	log.Info("database connection established", zap.Int32("max_conns", pool.Config().MaxConns))

	stores := app.NewStores(pool)

	// The queue is optional: without it approvals wait for the next
	// scheduled cycle and the admin trigger endpoints answer 503.
	var (
		refresher catalog.Refresher
		tasks     handler.TaskEnqueuer
	)
	if cfg.Redis.URL != "" {
		queueClient, err := queue.NewClient(cfg.Redis.URL, log)
		if err != nil {
			log.Warn("failed to initialize queue client, refreshes will not be enqueued", zap.Error(err))
		} else {
			defer queueClient.Close()
			refresher = queueClient
			tasks = queueClient
			log.Info("queue client initialized")
		}
	}

	catalogService := app.NewCatalog(cfg, stores, refresher, log)
	engine := app.NewRankingEngine(cfg, stores)

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	handler.NewRouter(router, handler.Routes{
		Channels:  handler.NewChannelHandler(catalogService, log),
		Rankings:  handler.NewRankingHandler(engine, log),
		Admin:     handler.NewAdminHandler(catalogService, tasks, log),
		Health:    handler.NewHealthHandler(pool, nil),
		AdminAuth: middleware.NewAdminAuth(admins, log).Handler(),
		Metrics:   metrics.Handler(),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				log.Error("failed to close server", zap.Error(err))
			}
			return err
		}

		log.Info("server stopped gracefully")
	}
	return nil
}
