// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"

	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/internal/db/repository"

	"github.com/stretchr/testify/mock"
)

// ChannelRepository mocks repository.ChannelRepository.
type ChannelRepository struct {
	mock.Mock
}

var _ repository.ChannelRepository = (*ChannelRepository)(nil)

func (m *ChannelRepository) Submit(ctx context.Context, channel *models.Channel) (bool, error) {
	args := m.Called(ctx, channel)
	return args.Bool(0), args.Error(1)
}

func (m *ChannelRepository) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Channel), args.Error(1)
}

func (m *ChannelRepository) GetByHandle(ctx context.Context, handle string) (*models.Channel, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Channel), args.Error(1)
}

func (m *ChannelRepository) SetStatus(ctx context.Context, id int64, status models.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *ChannelRepository) UpdateStats(ctx context.Context, id int64, subscribers int64, growth7d, growth30d float64) error {
	return m.Called(ctx, id, subscribers, growth7d, growth30d).Error(0)
}

func (m *ChannelRepository) UpdateMetadata(ctx context.Context, id int64, title, description string) error {
	return m.Called(ctx, id, title, description).Error(0)
}

func (m *ChannelRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ChannelRepository) ListByStatus(ctx context.Context, status models.Status) ([]*models.Channel, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Channel), args.Error(1)
}

func (m *ChannelRepository) ListAll(ctx context.Context) ([]*models.Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Channel), args.Error(1)
}

func (m *ChannelRepository) CountSubmittedBy(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ChannelRepository) CountByStatus(ctx context.Context) (*models.StatusCounts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StatusCounts), args.Error(1)
}

// PostRepository mocks repository.PostRepository.
type PostRepository struct {
	mock.Mock
}

var _ repository.PostRepository = (*PostRepository)(nil)

func (m *PostRepository) Upsert(ctx context.Context, post *models.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *PostRepository) GetText(ctx context.Context, channelID, messageID int64) (string, error) {
	args := m.Called(ctx, channelID, messageID)
	return args.String(0), args.Error(1)
}

func (m *PostRepository) CountForChannel(ctx context.Context, channelID int64) (int64, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(int64), args.Error(1)
}

// RankingRepository mocks repository.RankingRepository.
type RankingRepository struct {
	mock.Mock
}

var _ repository.RankingRepository = (*RankingRepository)(nil)

func (m *RankingRepository) TopPosts(ctx context.Context, filter repository.PostFilter) ([]models.RankedPost, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RankedPost), args.Error(1)
}

func (m *RankingRepository) TopGrowth(ctx context.Context, period models.Period, minSubscribers int64, limit int) ([]models.RankedChannel, error) {
	args := m.Called(ctx, period, minSubscribers, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RankedChannel), args.Error(1)
}
