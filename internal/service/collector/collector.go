// Package collector runs the collection cycle: for every approved channel it
// samples metadata, refreshes growth, and stores recent message statistics.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/internal/db/repository"
	"github.com/chancat/channel-catalog-go/internal/lock"
	"github.com/chancat/channel-catalog-go/internal/metrics"
	"github.com/chancat/channel-catalog-go/internal/service/growth"
	"github.com/chancat/channel-catalog-go/internal/source"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// ErrRefreshInProgress is returned when another worker holds the channel's lease.
	ErrRefreshInProgress = errors.New("channel refresh already in progress")

	// ErrNotApproved is returned when a refresh is requested for a channel
	// that is not approved.
	ErrNotApproved = errors.New("channel is not approved")
)

// GrowthUpdater records a subscriber sample and returns the new growth.
type GrowthUpdater interface {
	Update(ctx context.Context, channelID, subscribers int64, now time.Time) (growth.Growth, error)
}

// Options configures a Collector.
type Options struct {
	// Pause is the minimum spacing between two channel fetches.
	Pause time.Duration
	// Window bounds how old a message may be and still be stored.
	Window time.Duration
	// LockTTL bounds how long a crashed worker can block a channel.
	LockTTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// ChannelResult describes the refresh of one channel.
type ChannelResult struct {
	ChannelID   int64         `json:"channel_id"`
	Handle      string        `json:"handle"`
	Title       string        `json:"title"`
	Subscribers int64         `json:"subscribers"`
	Growth      growth.Growth `json:"growth"`
	Posts       int           `json:"posts"`
	PostErrors  int           `json:"post_errors"`
}

// CycleResult summarizes a collection cycle.
type CycleResult struct {
	StartedAt time.Time        `json:"started_at"`
	Duration  time.Duration    `json:"duration"`
	Total     int              `json:"total"`
	Updated   int              `json:"updated"`
	Skipped   int              `json:"skipped"`
	Channels  []*ChannelResult `json:"channels"`
}

// Collector drives the data source against the stores.
type Collector struct {
	channels repository.ChannelRepository
	posts    repository.PostRepository
	growth   GrowthUpdater
	source   source.Source
	locker   lock.Locker
	limiter  *rate.Limiter
	opts     Options
	logger   *zap.Logger
}

// New creates a Collector.
func New(
	channels repository.ChannelRepository,
	posts repository.PostRepository,
	growthUpdater GrowthUpdater,
	src source.Source,
	locker lock.Locker,
	opts Options,
	log *zap.Logger,
) *Collector {
	if opts.Pause <= 0 {
		opts.Pause = 5 * time.Second
	}
	if opts.Window <= 0 {
		opts.Window = 7 * 24 * time.Hour
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}

	return &Collector{
		channels: channels,
		posts:    posts,
		growth:   growthUpdater,
		source:   src,
		locker:   locker,
		limiter:  rate.NewLimiter(rate.Every(opts.Pause), 1),
		opts:     opts,
		logger:   logger.OrNop(log),
	}
}

// RunCycle refreshes every approved channel, one at a time. A failing
// channel is logged and skipped. When ctx is cancelled the cycle stops at the
// next channel boundary and returns what it finished together with ctx.Err().
func (c *Collector) RunCycle(ctx context.Context) (*CycleResult, error) {
	started := c.opts.Now()
	result := &CycleResult{StartedAt: started, Channels: make([]*ChannelResult, 0)}
	defer func() {
		result.Duration = c.opts.Now().Sub(started)
		metrics.RecordCycle(result.Duration)
	}()

	channels, err := c.channels.ListByStatus(ctx, models.StatusApproved)
	if err != nil {
		return result, fmt.Errorf("list approved channels: %w", err)
	}
	result.Total = len(channels)

	c.logger.Info("collection cycle started", zap.Int("channels", len(channels)))

	for _, ch := range channels {
		// The limiter is also the cancellation point between channels.
		if err := c.limiter.Wait(ctx); err != nil {
			c.logger.Info("collection cycle cancelled",
				zap.Int("updated", result.Updated),
				zap.Int("remaining", result.Total-result.Updated-result.Skipped),
			)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			return result, err
		}

		res, err := c.RefreshChannel(ctx, ch)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Updated++
		result.Channels = append(result.Channels, res)
	}

	c.logger.Info("collection cycle finished",
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", c.opts.Now().Sub(started)),
	)
	return result, nil
}

// Refresh refreshes one channel by ID outside of a cycle, as done right
// after approval.
func (c *Collector) Refresh(ctx context.Context, channelID int64) (*ChannelResult, error) {
	ch, err := c.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if ch.Status != models.StatusApproved {
		return nil, fmt.Errorf("refresh channel %d: %w", channelID, ErrNotApproved)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.RefreshChannel(ctx, ch)
}

// RefreshChannel samples one channel under its lease. A lock or fetch error
// means the channel was skipped; a failed growth update does not skip it.
func (c *Collector) RefreshChannel(ctx context.Context, ch *models.Channel) (*ChannelResult, error) {
	log := c.logger.With(zap.Int64("channel_id", ch.ID), zap.String("handle", ch.Handle))

	unlock, ok, err := c.locker.TryLock(ctx, lock.ChannelKey(ch.ID), c.opts.LockTTL)
	if err != nil {
		log.Warn("channel lock unavailable", zap.Error(err))
		metrics.RecordRefresh(metrics.OutcomeFailed)
		return nil, err
	}
	if !ok {
		log.Info("channel refresh already running elsewhere, skipping")
		metrics.RecordRefresh(metrics.OutcomeSkipped)
		return nil, ErrRefreshInProgress
	}
	defer unlock()

	info, err := c.source.FetchChannelInfo(ctx, ch.Handle)
	if err != nil {
		if errors.Is(err, source.ErrChannelNotFound) {
			log.Warn("channel not found at source, skipping")
			metrics.RecordRefresh(metrics.OutcomeNotFound)
		} else {
			log.Error("fetch channel info failed", zap.Error(err))
			metrics.RecordRefresh(metrics.OutcomeFailed)
		}
		return nil, fmt.Errorf("fetch channel info %s: %w", ch.Handle, err)
	}

	title := ch.Title
	if info.Title != "" && (info.Title != ch.Title || info.Description != ch.Description) {
		if err := c.channels.UpdateMetadata(ctx, ch.ID, info.Title, info.Description); err != nil {
			log.Warn("update channel metadata failed", zap.Error(err))
		} else {
			title = info.Title
		}
	}

	now := c.opts.Now()
	g, err := c.growth.Update(ctx, ch.ID, info.Subscribers, now)
	if err != nil {
		// Growth falls back to zero; the channel's posts are still ingested.
		log.Warn("growth update failed, recording zero growth", zap.Error(err))
		g = growth.Growth{}
	}

	res := &ChannelResult{
		ChannelID:   ch.ID,
		Handle:      ch.Handle,
		Title:       title,
		Subscribers: info.Subscribers,
		Growth:      g,
	}

	since := now.Add(-c.opts.Window)
	for msg, err := range c.source.FetchRecentMessages(ctx, ch.Handle, since) {
		if err != nil {
			// Posts stored so far stay; the snapshot is already committed.
			log.Warn("fetch recent messages interrupted", zap.Error(err), zap.Int("posts", res.Posts))
			break
		}
		if msg.Timestamp.Before(since) {
			break
		}
		if msg.Views == 0 && msg.Reactions == 0 {
			continue
		}

		if err := c.posts.Upsert(ctx, &models.Post{
			ChannelID:   ch.ID,
			MessageID:   msg.ID,
			PublishedAt: msg.Timestamp,
			Views:       msg.Views,
			Reactions:   msg.Reactions,
			Forwards:    msg.Forwards,
			Text:        msg.Text,
		}); err != nil {
			log.Warn("upsert post failed", zap.Int64("message_id", msg.ID), zap.Error(err))
			metrics.RecordPostUpsert(false)
			res.PostErrors++
			continue
		}
		metrics.RecordPostUpsert(true)
		res.Posts++
	}

	metrics.RecordRefresh(metrics.OutcomeUpdated)
	log.Info("channel refreshed",
		zap.Int64("subscribers", res.Subscribers),
		zap.Float64("growth_7d", g.Week),
		zap.Float64("growth_30d", g.Month),
		zap.Int("posts", res.Posts),
	)
	return res, nil
}
