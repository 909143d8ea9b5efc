package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	// refreshUniqueTTL stops repeated approvals from stacking refreshes.
	refreshUniqueTTL = 10 * time.Minute
	// cycleUniqueTTL keeps at most one cycle queued.
	cycleUniqueTTL = 25 * time.Minute

	cycleTimeout   = 2 * time.Hour
	refreshTimeout = 10 * time.Minute
	digestTimeout  = 15 * time.Minute
)

// Client wraps asynq client for enqueueing tasks
type Client struct {
	asynqClient *asynq.Client
	logger      *zap.Logger
}

// NewClient creates a new queue client
func NewClient(redisURL string, log *zap.Logger) (*Client, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return &Client{
		asynqClient: asynq.NewClient(redisOpt),
		logger:      logger.OrNop(log),
	}, nil
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// EnqueueCycle enqueues a collection cycle. A cycle already waiting in the
// queue absorbs the request.
func (c *Client) EnqueueCycle(ctx context.Context) error {
	return c.enqueue(ctx, NewCollectCycleTask(),
		asynq.Queue(QueueCollector),
		asynq.MaxRetry(1),
		asynq.Timeout(cycleTimeout),
		asynq.Unique(cycleUniqueTTL),
	)
}

// EnqueueChannelRefresh enqueues an immediate refresh of one channel.
func (c *Client) EnqueueChannelRefresh(ctx context.Context, channelID int64) error {
	task, err := NewCollectChannelTask(channelID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return c.enqueue(ctx, task,
		asynq.Queue(QueueCollector),
		asynq.MaxRetry(3),
		asynq.Timeout(refreshTimeout),
		asynq.Unique(refreshUniqueTTL),
	)
}

// EnqueueDigest enqueues digest generation and delivery.
func (c *Client) EnqueueDigest(ctx context.Context) error {
	return c.enqueue(ctx, NewSendDigestTask(),
		asynq.Queue(QueueDigest),
		asynq.MaxRetry(2),
		asynq.Timeout(digestTimeout),
	)
}

func (c *Client) enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) error {
	info, err := c.asynqClient.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		c.logger.Debug("task already queued", zap.String("type", task.Type()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}

	c.logger.Info("task enqueued",
		zap.String("type", task.Type()),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}
