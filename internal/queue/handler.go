package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/service/collector"
	"github.com/chancat/channel-catalog-go/internal/service/digest"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Collector is the part of the collector the handler drives.
type Collector interface {
	RunCycle(ctx context.Context) (*collector.CycleResult, error)
	Refresh(ctx context.Context, channelID int64) (*collector.ChannelResult, error)
}

// DigestSender generates and publishes one digest.
type DigestSender interface {
	Send(ctx context.Context) (*digest.Digest, error)
}

// Handler processes catalog tasks
type Handler struct {
	collector Collector
	digest    DigestSender
	logger    *zap.Logger
}

// NewHandler creates a new task handler. digestSender may be nil on workers
// that only collect.
func NewHandler(c Collector, digestSender DigestSender, log *zap.Logger) *Handler {
	return &Handler{
		collector: c,
		digest:    digestSender,
		logger:    logger.OrNop(log),
	}
}

// HandleCollectCycle runs one collection cycle.
func (h *Handler) HandleCollectCycle(ctx context.Context, _ *asynq.Task) error {
	res, err := h.collector.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("collection cycle: %w", err)
	}
	h.logger.Info("collection cycle task done",
		zap.Int("total", res.Total),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
	)
	return nil
}

// HandleCollectChannel refreshes one channel. Requests that can never
// succeed are not retried.
func (h *Handler) HandleCollectChannel(ctx context.Context, task *asynq.Task) error {
	payload, err := UnmarshalCollectChannelPayload(task.Payload())
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	res, err := h.collector.Refresh(ctx, payload.ChannelID)
	switch {
	case err == nil:
	case db.IsNotFound(err), errors.Is(err, collector.ErrNotApproved), errors.Is(err, collector.ErrRefreshInProgress):
		h.logger.Info("channel refresh dropped",
			zap.Int64("channel_id", payload.ChannelID),
			zap.Error(err),
		)
		return fmt.Errorf("refresh channel %d: %w: %w", payload.ChannelID, err, asynq.SkipRetry)
	default:
		return fmt.Errorf("refresh channel %d: %w", payload.ChannelID, err)
	}

	h.logger.Info("channel refresh task done",
		zap.Int64("channel_id", res.ChannelID),
		zap.Int("posts", res.Posts),
	)
	return nil
}

// HandleSendDigest generates and publishes a digest.
func (h *Handler) HandleSendDigest(ctx context.Context, _ *asynq.Task) error {
	if h.digest == nil {
		return fmt.Errorf("digest sender not configured: %w", asynq.SkipRetry)
	}

	d, err := h.digest.Send(ctx)
	if err != nil {
		return err
	}
	h.logger.Info("digest task done", zap.String("digest_id", d.ID.String()))
	return nil
}

// Mux routes every task type to its handler.
func (h *Handler) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeCollectCycle, h.HandleCollectCycle)
	mux.HandleFunc(TypeCollectChannel, h.HandleCollectChannel)
	mux.HandleFunc(TypeSendDigest, h.HandleSendDigest)
	return mux
}

// Server wraps asynq server for processing tasks
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	logger      *zap.Logger
}

// NewServer creates a new task processing server. One collection task runs
// at a time per worker; the data source session is shared.
func NewServer(redisURL string, concurrency int, handler *Handler, log *zap.Logger) (*Server, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	log = logger.OrNop(log)
	if concurrency <= 0 {
		concurrency = 1
	}

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueCollector: 6,
				QueueDigest:    4,
			},
			StrictPriority: false,
			Logger:         log.Named("asynq").Sugar(),
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				log.Error("task failed",
					zap.String("type", task.Type()),
					zap.Int("retried", retried),
					zap.Int("max_retry", maxRetry),
					zap.Error(err),
				)
			}),
		},
	)

	return &Server{
		asynqServer: srv,
		mux:         handler.Mux(),
		logger:      log,
	}, nil
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("starting task processing server")
	return s.asynqServer.Start(s.mux)
}

// Stop gracefully stops the server
func (s *Server) Stop() {
	s.logger.Info("shutting down task processing server")
	s.asynqServer.Shutdown()
}
