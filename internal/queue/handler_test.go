package queue

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/service/collector"
	"github.com/chancat/channel-catalog-go/internal/service/digest"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) RunCycle(ctx context.Context) (*collector.CycleResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*collector.CycleResult)
	return res, args.Error(1)
}

func (m *mockCollector) Refresh(ctx context.Context, channelID int64) (*collector.ChannelResult, error) {
	args := m.Called(ctx, channelID)
	res, _ := args.Get(0).(*collector.ChannelResult)
	return res, args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context) (*digest.Digest, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(*digest.Digest)
	return d, args.Error(1)
}

func channelTask(t *testing.T, id int64) *asynq.Task {
	t.Helper()
	task, err := NewCollectChannelTask(id)
	require.NoError(t, err)
	return task
}

func TestHandler_HandleCollectCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		c := new(mockCollector)
		c.On("RunCycle", ctx).Return(&collector.CycleResult{Total: 3, Updated: 2, Skipped: 1}, nil)

		h := NewHandler(c, nil, zap.NewNop())
		require.NoError(t, h.HandleCollectCycle(ctx, NewCollectCycleTask()))
		c.AssertExpectations(t)
	})

	t.Run("failure is retried", func(t *testing.T) {
		c := new(mockCollector)
		c.On("RunCycle", ctx).Return(&collector.CycleResult{}, errors.New("db down"))

		h := NewHandler(c, nil, nil)
		err := h.HandleCollectCycle(ctx, NewCollectCycleTask())
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})
}

func TestHandler_HandleCollectChannel(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		err       error
		wantErr   bool
		skipRetry bool
	}{
		{name: "success"},
		{name: "missing channel", err: db.ErrNotFound, wantErr: true, skipRetry: true},
		{name: "not approved", err: fmt.Errorf("refresh channel 7: %w", collector.ErrNotApproved), wantErr: true, skipRetry: true},
		{name: "already running", err: collector.ErrRefreshInProgress, wantErr: true, skipRetry: true},
		{name: "transient", err: errors.New("timeout"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := new(mockCollector)
			var res *collector.ChannelResult
			if tt.err == nil {
				res = &collector.ChannelResult{ChannelID: 7, Posts: 12}
			}
			c.On("Refresh", ctx, int64(7)).Return(res, tt.err)

			h := NewHandler(c, nil, nil)
			err := h.HandleCollectChannel(ctx, channelTask(t, 7))

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("malformed payload is not retried", func(t *testing.T) {
		h := NewHandler(new(mockCollector), nil, nil)
		err := h.HandleCollectChannel(ctx, asynq.NewTask(TypeCollectChannel, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestHandler_HandleSendDigest(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s := new(mockSender)
		s.On("Send", ctx).Return(&digest.Digest{ID: uuid.New()}, nil)

		h := NewHandler(new(mockCollector), s, nil)
		require.NoError(t, h.HandleSendDigest(ctx, NewSendDigestTask()))
		s.AssertExpectations(t)
	})

	t.Run("publish failure is retried", func(t *testing.T) {
		s := new(mockSender)
		s.On("Send", ctx).Return(nil, errors.New("broker gone"))

		h := NewHandler(new(mockCollector), s, nil)
		err := h.HandleSendDigest(ctx, NewSendDigestTask())
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("no sender", func(t *testing.T) {
		h := NewHandler(new(mockCollector), nil, nil)
		assert.ErrorIs(t, h.HandleSendDigest(ctx, NewSendDigestTask()), asynq.SkipRetry)
	})
}

func TestHandler_Mux(t *testing.T) {
	c := new(mockCollector)
	c.On("RunCycle", mock.Anything).Return(&collector.CycleResult{}, nil)

	h := NewHandler(c, nil, nil)
	require.NoError(t, h.Mux().ProcessTask(context.Background(), NewCollectCycleTask()))
	c.AssertExpectations(t)
}
