// Package catalog implements submission and moderation of channels.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/internal/db/repository"
	"github.com/chancat/channel-catalog-go/internal/service/quota"
	"github.com/chancat/channel-catalog-go/internal/validation"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"go.uber.org/zap"
)

// ErrQuotaExceeded is returned when the submitter has used up their channel limit.
var ErrQuotaExceeded = errors.New("submission quota exceeded")

// Refresher schedules an out-of-cycle refresh of one channel.
type Refresher interface {
	EnqueueChannelRefresh(ctx context.Context, channelID int64) error
}

// SubmitResult tells the submitter what happened to their channel.
type SubmitResult struct {
	Created bool            `json:"created"`
	Channel *models.Channel `json:"channel"`
	Quota   *quota.Usage    `json:"quota,omitempty"`
}

// ChannelDetails is a channel with its stored post count.
type ChannelDetails struct {
	*models.Channel
	Posts int64 `json:"posts"`
}

// Service is the moderation workflow over the channel registry.
type Service struct {
	channels  repository.ChannelRepository
	posts     repository.PostRepository
	quota     *quota.Manager
	refresher Refresher
	logger    *zap.Logger
}

// NewService creates a Service. refresher may be nil, in which case approved
// channels wait for the next cycle.
func NewService(
	channels repository.ChannelRepository,
	posts repository.PostRepository,
	quotaManager *quota.Manager,
	refresher Refresher,
	log *zap.Logger,
) *Service {
	return &Service{
		channels:  channels,
		posts:     posts,
		quota:     quotaManager,
		refresher: refresher,
		logger:    logger.OrNop(log),
	}
}

// Submit registers a channel for moderation. Re-submitting a known handle is
// not an error: Created is false and Channel is the existing record.
func (s *Service) Submit(ctx context.Context, rawHandle, title string, submitterID int64) (*SubmitResult, error) {
	handle, err := validation.NormalizeHandle(rawHandle)
	if err != nil {
		return nil, err
	}
	title, err = validation.NormalizeTitle(title, handle)
	if err != nil {
		return nil, err
	}

	existing, err := s.channels.GetByHandle(ctx, handle)
	switch {
	case err == nil:
		return &SubmitResult{Created: false, Channel: existing}, nil
	case !db.IsNotFound(err):
		return nil, err
	}

	allowed, usage, err := s.quota.CheckSubmissionAllowed(ctx, submitterID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return &SubmitResult{Quota: usage}, ErrQuotaExceeded
	}

	channel := models.NewChannel(handle, title, submitterID)
	created, err := s.channels.Submit(ctx, channel)
	if err != nil {
		return nil, err
	}

	if !created {
		// Lost a race with a concurrent submission of the same handle.
		existing, err = s.channels.GetByHandle(ctx, handle)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Created: false, Channel: existing}, nil
	}

	usage.Used++
	if usage.Remaining > 0 {
		usage.Remaining--
	}

	s.logger.Info("channel submitted",
		zap.Int64("channel_id", channel.ID),
		zap.String("handle", handle),
		zap.Int64("submitted_by", submitterID),
	)
	return &SubmitResult{Created: true, Channel: channel, Quota: usage}, nil
}

// Approve makes a channel eligible for collection and ranking and asks for
// an immediate refresh. A failed enqueue only delays the first sample until
// the next cycle.
func (s *Service) Approve(ctx context.Context, channelID int64) error {
	if err := s.channels.SetStatus(ctx, channelID, models.StatusApproved); err != nil {
		return err
	}
	s.logger.Info("channel approved", zap.Int64("channel_id", channelID))

	if s.refresher != nil {
		if err := s.refresher.EnqueueChannelRefresh(ctx, channelID); err != nil {
			s.logger.Warn("enqueue refresh after approval failed",
				zap.Int64("channel_id", channelID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Reject hides a channel from collection and ranking.
func (s *Service) Reject(ctx context.Context, channelID int64) error {
	if err := s.channels.SetStatus(ctx, channelID, models.StatusRejected); err != nil {
		return err
	}
	s.logger.Info("channel rejected", zap.Int64("channel_id", channelID))
	return nil
}

// Delete removes a channel and everything it owns.
func (s *Service) Delete(ctx context.Context, channelID int64) error {
	if err := s.channels.Delete(ctx, channelID); err != nil {
		return err
	}
	s.logger.Info("channel deleted", zap.Int64("channel_id", channelID))
	return nil
}

// Get returns a channel with its post count.
func (s *Service) Get(ctx context.Context, channelID int64) (*ChannelDetails, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.CountForChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return &ChannelDetails{Channel: channel, Posts: posts}, nil
}

// GetByHandle looks a channel up by any accepted handle form.
func (s *Service) GetByHandle(ctx context.Context, rawHandle string) (*models.Channel, error) {
	handle, err := validation.NormalizeHandle(rawHandle)
	if err != nil {
		return nil, err
	}
	return s.channels.GetByHandle(ctx, handle)
}

// List returns channels in status, or all channels when status is empty.
func (s *Service) List(ctx context.Context, status models.Status) ([]*models.Channel, error) {
	if status == "" {
		return s.channels.ListAll(ctx)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("list channels: %w", repository.ErrInvalidStatus)
	}
	return s.channels.ListByStatus(ctx, status)
}

// Summary returns the per-status counts.
func (s *Service) Summary(ctx context.Context) (*models.StatusCounts, error) {
	return s.channels.CountByStatus(ctx)
}

// PostText returns a stored post's text, "" when unknown.
func (s *Service) PostText(ctx context.Context, channelID, messageID int64) (string, error) {
	return s.posts.GetText(ctx, channelID, messageID)
}
