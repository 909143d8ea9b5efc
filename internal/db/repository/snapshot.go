package repository

import (
	"context"
	"errors"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/db/models"

	"github.com/jackc/pgx/v5"
)

// SnapshotRepository stores one subscriber count per channel per calendar day.
type SnapshotRepository interface {
	// Upsert records the count for the snapshot's day, replacing any earlier
	// value for the same day.
	Upsert(ctx context.Context, snapshot *models.Snapshot) error

	// GetOn returns the count recorded on day. found is false when no
	// snapshot exists for that exact day.
	GetOn(ctx context.Context, channelID int64, day time.Time) (subscribers int64, found bool, err error)
}

type snapshotRepository struct {
	db db.DBTX
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(conn db.DBTX) SnapshotRepository {
	return &snapshotRepository{db: conn}
}

func (r *snapshotRepository) Upsert(ctx context.Context, snapshot *models.Snapshot) error {
	query := `
		INSERT INTO subscriber_snapshots (channel_id, snapshot_date, subscribers)
		VALUES ($1, $2, $3)
		ON CONFLICT (channel_id, snapshot_date) DO UPDATE
		SET subscribers = EXCLUDED.subscribers
	`

	_, err := r.db.Exec(ctx, query, snapshot.ChannelID, snapshot.Date, snapshot.Subscribers)
	if err != nil {
		return db.WrapError(err, "upsert snapshot")
	}

	return nil
}

func (r *snapshotRepository) GetOn(ctx context.Context, channelID int64, day time.Time) (int64, bool, error) {
	query := `
		SELECT subscribers
		FROM subscriber_snapshots
		WHERE channel_id = $1 AND snapshot_date = $2
	`

	var subscribers int64
	err := r.db.QueryRow(ctx, query, channelID, day).Scan(&subscribers)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, db.WrapError(err, "get snapshot")
	}

	return subscribers, true, nil
}
