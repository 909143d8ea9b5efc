// Package app wires the catalog components from configuration. The
// binaries under cmd/ share it so they build identical services.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chancat/channel-catalog-go/internal/config"
	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/db/repository"
	"github.com/chancat/channel-catalog-go/internal/lock"
	"github.com/chancat/channel-catalog-go/internal/publisher"
	"github.com/chancat/channel-catalog-go/internal/queue"
	"github.com/chancat/channel-catalog-go/internal/service/catalog"
	"github.com/chancat/channel-catalog-go/internal/service/collector"
	"github.com/chancat/channel-catalog-go/internal/service/digest"
	"github.com/chancat/channel-catalog-go/internal/service/growth"
	"github.com/chancat/channel-catalog-go/internal/service/quota"
	"github.com/chancat/channel-catalog-go/internal/service/ranking"
	"github.com/chancat/channel-catalog-go/internal/source"
	"github.com/chancat/channel-catalog-go/internal/source/telegram"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Stores are the repositories over one pool.
type Stores struct {
	Channels repository.ChannelRepository
	Posts    repository.PostRepository
	Rankings repository.RankingRepository
}

// NewStores creates the repositories.
func NewStores(pool *pgxpool.Pool) *Stores {
	return &Stores{
		Channels: repository.NewChannelRepository(pool),
		Posts:    repository.NewPostRepository(pool),
		Rankings: repository.NewRankingRepository(pool),
	}
}

// OpenDatabase connects the pool described by cfg.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg.Database.Pool())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return pool, nil
}

// NewRankingEngine builds the ranking engine from the ranking section.
func NewRankingEngine(cfg *config.Config, stores *Stores) *ranking.Engine {
	return ranking.NewEngine(stores.Rankings, ranking.Options{
		Window:               cfg.Collector.Window,
		DefaultLimit:         cfg.Ranking.DefaultLimit,
		MinGrowthSubscribers: cfg.Ranking.MinGrowthSubscribers,
		SmallChannelMax:      cfg.Ranking.SmallChannelMax,
	})
}

// NewCatalog builds the moderation service. refresher may be nil.
func NewCatalog(cfg *config.Config, stores *Stores, refresher catalog.Refresher, log *zap.Logger) *catalog.Service {
	quotaManager := quota.NewManager(stores.Channels, cfg.Catalog.MaxChannelsPerSubmitter, log)
	return catalog.NewService(stores.Channels, stores.Posts, quotaManager, refresher, log)
}

// NewCollector builds the collector over src. locker may be nil for a
// process-local lock.
func NewCollector(cfg *config.Config, pool *pgxpool.Pool, stores *Stores, src source.Source, locker lock.Locker, log *zap.Logger) *collector.Collector {
	calc := growth.NewCalculator(pool, cfg.CollectorLocation(), log)
	return collector.New(stores.Channels, stores.Posts, calc, src, locker, collector.Options{
		Pause:   cfg.Collector.Pause,
		Window:  cfg.Collector.Window,
		LockTTL: cfg.Collector.LockTTL,
	}, log)
}

// NewDigestGenerator builds the digest generator.
func NewDigestGenerator(cfg *config.Config, engine *ranking.Engine, log *zap.Logger) *digest.Generator {
	return digest.NewGenerator(engine, digest.Options{
		Limit:           cfg.Digest.Limit,
		Location:        cfg.DigestLocation(),
		SmallChannelMax: cfg.Ranking.SmallChannelMax,
	}, log)
}

// NewLocker returns a Redis lock when Redis is configured and a local one
// otherwise. The returned close function is never nil.
func NewLocker(cfg *config.Config) (lock.Locker, func() error, error) {
	if cfg.Redis.URL == "" {
		return lock.NewLocalLocker(), func() error { return nil }, nil
	}
	client, err := queue.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis client: %w", err)
	}
	return lock.NewRedisLocker(client), client.Close, nil
}

// RetryPolicy converts the telegram section into a retry policy.
func RetryPolicy(cfg *config.Config) telegram.RetryPolicy {
	policy := telegram.DefaultRetryPolicy()
	if cfg.Telegram.Retries > 0 {
		policy.Retries = cfg.Telegram.Retries
	}
	if cfg.Telegram.Timeout > 0 {
		policy.Timeout = cfg.Telegram.Timeout
	}
	return policy
}

// Closer releases a resource opened during wiring.
type Closer func() error

// Publishing is the digest fan-out with the resources it holds.
type Publishing struct {
	Manager  *publisher.Manager
	RabbitMQ *publisher.RabbitMQNotifier
	closers  []Closer
}

// Close releases every notifier session.
func (p *Publishing) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewPublishing connects the configured notifiers: the report channel when a
// bot token and target are set, and RabbitMQ when enabled.
func NewPublishing(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Publishing, error) {
	p := &Publishing{}
	var notifiers []publisher.Notifier

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ReportChannel != "" {
		connCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		conn, err := telegram.Connect(connCtx, telegram.ReporterOptions(cfg.Telegram), log.Named("reporter"))
		cancel()
		if err != nil {
			return nil, fmt.Errorf("connect report bot: %w", err)
		}
		p.closers = append(p.closers, conn.Close)
		notifiers = append(notifiers, telegram.NewReporter(conn.API(), cfg.Telegram.ReportChannel, cfg.Digest.Pause, RetryPolicy(cfg), log))
	}

	if cfg.RabbitMQ.Enabled {
		rmq, err := publisher.NewRabbitMQNotifier(cfg.RabbitMQ, log)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.RabbitMQ = rmq
		p.closers = append(p.closers, rmq.Close)
		notifiers = append(notifiers, rmq)
	}

	p.Manager = publisher.NewManager(log, notifiers...)
	return p, nil
}
