// Package quota enforces the per-submitter channel limit.
package quota

import (
	"context"
	"fmt"

	"github.com/chancat/channel-catalog-go/pkg/logger"

	"go.uber.org/zap"
)

// DefaultLimit is how many channels one user may submit across all statuses.
const DefaultLimit = 5

// Counter counts a user's submissions. repository.ChannelRepository satisfies it.
type Counter interface {
	CountSubmittedBy(ctx context.Context, userID int64) (int64, error)
}

// Usage is a submitter's standing against the limit.
type Usage struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Remaining int64 `json:"remaining"`
}

// Manager checks submissions against the limit.
type Manager struct {
	counter Counter
	limit   int64
	logger  *zap.Logger
}

// NewManager creates a new quota manager
func NewManager(counter Counter, limit int, log *zap.Logger) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Manager{
		counter: counter,
		limit:   int64(limit),
		logger:  logger.OrNop(log),
	}
}

// Usage returns how much of the limit userID has used.
func (m *Manager) Usage(ctx context.Context, userID int64) (*Usage, error) {
	used, err := m.counter.CountSubmittedBy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	remaining := m.limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &Usage{Used: used, Limit: m.limit, Remaining: remaining}, nil
}

// CheckSubmissionAllowed reports whether userID may submit one more channel.
func (m *Manager) CheckSubmissionAllowed(ctx context.Context, userID int64) (bool, *Usage, error) {
	usage, err := m.Usage(ctx, userID)
	if err != nil {
		return false, nil, err
	}

	if usage.Remaining == 0 {
		m.logger.Info("submission quota reached",
			zap.Int64("user_id", userID),
			zap.Int64("used", usage.Used),
			zap.Int64("limit", usage.Limit),
		)
		return false, usage, nil
	}

	return true, usage, nil
}
