package main

import (
	"context"
	"fmt"

	"github.com/chancat/channel-catalog-go/internal/app"
	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/internal/queue"
	"github.com/chancat/channel-catalog-go/internal/service/catalog"
	"github.com/chancat/channel-catalog-go/internal/service/collector"
	"github.com/chancat/channel-catalog-go/internal/service/digest"
	"github.com/chancat/channel-catalog-go/internal/source/telegram"

	"go.uber.org/zap"
)

// channelCatalog is the moderation surface the channels commands use.
type channelCatalog interface {
	List(ctx context.Context, status models.Status) ([]*models.Channel, error)
	Approve(ctx context.Context, channelID int64) error
	Reject(ctx context.Context, channelID int64) error
	Delete(ctx context.Context, channelID int64) error
	Summary(ctx context.Context) (*models.StatusCounts, error)
}

type taskEnqueuer interface {
	EnqueueCycle(ctx context.Context) error
	EnqueueDigest(ctx context.Context) error
}

type cycleRunner interface {
	RunCycle(ctx context.Context) (*collector.CycleResult, error)
}

// digestFunc produces one digest, publishing it or not.
type digestFunc func(ctx context.Context) (*digest.Digest, error)

// The openers are variables so tests can swap in fakes. Each returns a
// cleanup function that is safe to call on success.
var (
	openCatalog   = defaultOpenCatalog
	openQueue     = defaultOpenQueue
	openCollector = defaultOpenCollector
	openDigest    = defaultOpenDigest
)

func defaultOpenCatalog(ctx context.Context) (channelCatalog, func(), error) {
	pool, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := pool.Close

	var refresher catalog.Refresher
	if cfg.Redis.URL != "" {
		client, err := queue.NewClient(cfg.Redis.URL, log)
		if err != nil {
			log.Warn("queue unavailable, approved channels wait for the next cycle", zap.Error(err))
		} else {
			refresher = client
			cleanup = func() {
				_ = client.Close()
				pool.Close()
			}
		}
	}

	return app.NewCatalog(cfg, app.NewStores(pool), refresher, log), cleanup, nil
}

func defaultOpenQueue() (taskEnqueuer, func(), error) {
	if cfg.Redis.URL == "" {
		return nil, nil, fmt.Errorf("redis.url is not configured")
	}
	client, err := queue.NewClient(cfg.Redis.URL, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

func defaultOpenCollector(ctx context.Context) (cycleRunner, func(), error) {
	pool, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	conn, err := telegram.Connect(ctx, telegram.CollectorOptions(cfg.Telegram), log.Named("collector"))
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("collector session: %w", err)
	}

	locker, closeLocker, err := app.NewLocker(cfg)
	if err != nil {
		_ = conn.Close()
		pool.Close()
		return nil, nil, err
	}

	src := telegram.NewSource(conn.API(), app.RetryPolicy(cfg), log)
	c := app.NewCollector(cfg, pool, app.NewStores(pool), src, locker, log)
	return c, func() {
		_ = closeLocker()
		_ = conn.Close()
		pool.Close()
	}, nil
}

func defaultOpenDigest(ctx context.Context, publish bool) (digestFunc, func(), error) {
	pool, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	generator := app.NewDigestGenerator(cfg, app.NewRankingEngine(cfg, app.NewStores(pool)), log)
	if !publish {
		return generator.Generate, pool.Close, nil
	}

	publishing, err := app.NewPublishing(ctx, cfg, log)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	sender := digest.NewSender(generator, publishing.Manager)
	return sender.Send, func() {
		_ = publishing.Close()
		pool.Close()
	}, nil
}
