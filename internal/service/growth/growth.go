// Package growth derives subscriber growth percentages from daily snapshots.
package growth

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/internal/db/repository"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	"go.uber.org/zap"
)

// Lookback distances in calendar days.
const (
	WeekDays  = 7
	MonthDays = 30
)

// Growth holds percentage changes against the 7 and 30 day old snapshots.
type Growth struct {
	Week  float64 `json:"growth_7d"`
	Month float64 `json:"growth_30d"`
}

// Percent returns the change from past to current in percent, rounded to one
// decimal place. A past value of zero or less yields 0.
func Percent(current, past int64) float64 {
	if past <= 0 {
		return 0
	}
	pct := float64(current-past) / float64(past) * 100
	return math.Round(pct*10) / 10
}

// Calculator records today's snapshot and refreshes a channel's cached growth.
type Calculator struct {
	pool   db.TxBeginner
	loc    *time.Location
	logger *zap.Logger
}

// NewCalculator creates a Calculator. loc defines where a calendar day starts.
func NewCalculator(pool db.TxBeginner, loc *time.Location, log *zap.Logger) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{pool: pool, loc: loc, logger: logger.OrNop(log)}
}

// Update stores subscribers as the snapshot for now's calendar day, computes
// growth from the snapshots exactly 7 and 30 days earlier, and writes the
// count and both percentages to the channel. Everything happens in one
// transaction. On failure the zero Growth is returned with the error.
func (c *Calculator) Update(ctx context.Context, channelID, subscribers int64, now time.Time) (Growth, error) {
	today := models.Day(now, c.loc)

	var g Growth
	err := db.WithTx(ctx, c.pool, func(tx db.DBTX) error {
		snapshots := repository.NewSnapshotRepository(tx)
		channels := repository.NewChannelRepository(tx)

		if err := snapshots.Upsert(ctx, &models.Snapshot{
			ChannelID:   channelID,
			Date:        today,
			Subscribers: subscribers,
		}); err != nil {
			return err
		}

		week, err := c.against(ctx, snapshots, channelID, subscribers, today.AddDate(0, 0, -WeekDays))
		if err != nil {
			return err
		}
		month, err := c.against(ctx, snapshots, channelID, subscribers, today.AddDate(0, 0, -MonthDays))
		if err != nil {
			return err
		}

		if err := channels.UpdateStats(ctx, channelID, subscribers, week, month); err != nil {
			return err
		}

		g = Growth{Week: week, Month: month}
		return nil
	})
	if err != nil {
		c.logger.Error("growth update failed",
			zap.Int64("channel_id", channelID),
			zap.Int64("subscribers", subscribers),
			zap.Error(err),
		)
		return Growth{}, fmt.Errorf("update growth for channel %d: %w", channelID, err)
	}

	c.logger.Debug("growth updated",
		zap.Int64("channel_id", channelID),
		zap.Int64("subscribers", subscribers),
		zap.Float64("growth_7d", g.Week),
		zap.Float64("growth_30d", g.Month),
	)
	return g, nil
}

func (c *Calculator) against(ctx context.Context, snapshots repository.SnapshotRepository, channelID, current int64, day time.Time) (float64, error) {
	past, found, err := snapshots.GetOn(ctx, channelID, day)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return Percent(current, past), nil
}
