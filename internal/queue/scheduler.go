package queue

import (
	"fmt"
	"time"

	"github.com/chancat/channel-catalog-go/pkg/logger"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Schedule is the pair of cron specs driving the worker.
type Schedule struct {
	// Cycle triggers collection cycles, e.g. "@every 30m".
	Cycle string
	// Digest triggers digests, e.g. "0 7 * * 6".
	Digest string
	// Location is the zone cron specs are evaluated in.
	Location *time.Location
}

// Scheduler enqueues periodic tasks
type Scheduler struct {
	scheduler *asynq.Scheduler
	logger    *zap.Logger
	entries   map[string]string
}

// NewScheduler registers the cycle and digest entries. An empty cron expression
// disables that entry.
func NewScheduler(redisURL string, sched Schedule, log *zap.Logger) (*Scheduler, error) {
	redisOpt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	log = logger.OrNop(log)

	loc := sched.Location
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		logger:  log,
		entries: make(map[string]string),
	}
	s.scheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: loc,
		Logger:   log.Named("scheduler").Sugar(),
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				log.Warn("scheduled enqueue failed", zap.Error(err))
				return
			}
			log.Info("scheduled task enqueued", zap.String("type", info.Type), zap.String("task_id", info.ID))
		},
	})

	if sched.Cycle != "" {
		id, err := s.scheduler.Register(sched.Cycle, NewCollectCycleTask(),
			asynq.Queue(QueueCollector),
			asynq.MaxRetry(1),
			asynq.Timeout(cycleTimeout),
			asynq.Unique(cycleUniqueTTL),
		)
		if err != nil {
			return nil, fmt.Errorf("register cycle schedule %q: %w", sched.Cycle, err)
		}
		s.entries[TypeCollectCycle] = id
	}

	if sched.Digest != "" {
		id, err := s.scheduler.Register(sched.Digest, NewSendDigestTask(),
			asynq.Queue(QueueDigest),
			asynq.MaxRetry(2),
			asynq.Timeout(digestTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("register digest schedule %q: %w", sched.Digest, err)
		}
		s.entries[TypeSendDigest] = id
	}

	return s, nil
}

// Entries maps task type to scheduler entry ID.
func (s *Scheduler) Entries() map[string]string {
	return s.entries
}

// Start starts enqueueing in the background.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.Int("entries", len(s.entries)))
	return s.scheduler.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.scheduler.Shutdown()
}
