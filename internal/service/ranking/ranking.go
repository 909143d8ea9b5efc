// Package ranking answers the leaderboard queries over approved channels.
package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/internal/db/repository"
)

// MaxLimit caps every ranking.
const MaxLimit = 100

// Options configures an Engine.
type Options struct {
	// Window is how far back from query time posts are considered.
	Window time.Duration
	// DefaultLimit replaces non-positive limits.
	DefaultLimit int
	// MinGrowthSubscribers excludes smaller channels from growth rankings.
	MinGrowthSubscribers int64
	// SmallChannelMax is the exclusive subscriber cap of the small-channel ranking.
	SmallChannelMax int64
	// Now overrides the clock in tests.
	Now func() time.Time
}

// DefaultOptions returns the thresholds the catalog ships with.
func DefaultOptions() Options {
	return Options{
		Window:               7 * 24 * time.Hour,
		DefaultLimit:         20,
		MinGrowthSubscribers: 100,
		SmallChannelMax:      3000,
	}
}

// Engine produces the top-K views. It holds no state between calls; the
// post window is recomputed from the clock on every query.
type Engine struct {
	repo repository.RankingRepository
	opts Options
}

// NewEngine creates an Engine over repo. Non-positive options take their
// DefaultOptions value.
func NewEngine(repo repository.RankingRepository, opts Options) *Engine {
	def := DefaultOptions()
	if opts.Window <= 0 {
		opts.Window = def.Window
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = def.DefaultLimit
	}
	if opts.MinGrowthSubscribers <= 0 {
		opts.MinGrowthSubscribers = def.MinGrowthSubscribers
	}
	if opts.SmallChannelMax <= 0 {
		opts.SmallChannelMax = def.SmallChannelMax
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{repo: repo, opts: opts}
}

// ByReactions ranks recent posts by reaction count.
func (e *Engine) ByReactions(ctx context.Context, limit int) ([]models.RankedPost, error) {
	return e.posts(ctx, models.MetricReactions, 0, limit)
}

// ByViews ranks recent posts by view count.
func (e *Engine) ByViews(ctx context.Context, limit int) ([]models.RankedPost, error) {
	return e.posts(ctx, models.MetricViews, 0, limit)
}

// ByForwards ranks recent posts by forward count.
func (e *Engine) ByForwards(ctx context.Context, limit int) ([]models.RankedPost, error) {
	return e.posts(ctx, models.MetricForwards, 0, limit)
}

// SmallChannelViews ranks recent posts by views, restricted to channels
// below the small-channel subscriber cap.
func (e *Engine) SmallChannelViews(ctx context.Context, limit int) ([]models.RankedPost, error) {
	return e.posts(ctx, models.MetricViews, e.opts.SmallChannelMax, limit)
}

// ByMetric dispatches to the post ranking named by metric.
func (e *Engine) ByMetric(ctx context.Context, metric models.Metric, limit int) ([]models.RankedPost, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}
	return e.posts(ctx, metric, 0, limit)
}

// ByGrowth ranks channels by the growth of period ("7d", anything else is 30 days).
func (e *Engine) ByGrowth(ctx context.Context, period string, limit int) ([]models.RankedChannel, error) {
	channels, err := e.repo.TopGrowth(ctx, models.ParsePeriod(period), e.opts.MinGrowthSubscribers, e.limit(limit))
	if err != nil {
		return nil, fmt.Errorf("rank by growth: %w", err)
	}
	return channels, nil
}

func (e *Engine) posts(ctx context.Context, metric models.Metric, maxSubscribers int64, limit int) ([]models.RankedPost, error) {
	posts, err := e.repo.TopPosts(ctx, repository.PostFilter{
		Metric:         metric,
		Since:          e.opts.Now().Add(-e.opts.Window),
		MaxSubscribers: maxSubscribers,
		Limit:          e.limit(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("rank by %s: %w", metric, err)
	}
	return posts, nil
}

func (e *Engine) limit(n int) int {
	if n <= 0 {
		return e.opts.DefaultLimit
	}
	if n > MaxLimit {
		return MaxLimit
	}
	return n
}
