// Package publisher fans a generated digest out to every configured notifier.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/chancat/channel-catalog-go/internal/metrics"
	"github.com/chancat/channel-catalog-go/internal/service/digest"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"go.uber.org/zap"
)

// Notifier delivers a digest to one audience.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, d *digest.Digest) error
}

// Manager broadcasts to a fixed set of notifiers.
type Manager struct {
	notifiers []Notifier
	logger    *zap.Logger
}

var _ digest.Publisher = (*Manager)(nil)

// NewManager creates a Manager. Nil notifiers are ignored.
func NewManager(log *zap.Logger, notifiers ...Notifier) *Manager {
	m := &Manager{logger: logger.OrNop(log)}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Len returns the number of notifiers.
func (m *Manager) Len() int {
	return len(m.notifiers)
}

// Broadcast calls every notifier even when an earlier one fails and
// returns the joined failures.
func (m *Manager) Broadcast(ctx context.Context, d *digest.Digest) error {
	if len(m.notifiers) == 0 {
		m.logger.Warn("no notifiers configured, digest dropped", zap.String("digest_id", d.ID.String()))
		return nil
	}

	var errs []error
	for _, n := range m.notifiers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		err := n.Notify(ctx, d)
		metrics.RecordDigest(n.Name(), err == nil)
		if err != nil {
			m.logger.Error("digest delivery failed",
				zap.String("notifier", n.Name()),
				zap.String("digest_id", d.ID.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}

		m.logger.Info("digest delivered",
			zap.String("notifier", n.Name()),
			zap.String("digest_id", d.ID.String()),
		)
	}
	return errors.Join(errs...)
}
