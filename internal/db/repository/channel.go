package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/db/models"

	"github.com/jackc/pgx/v5"
)

// ErrInvalidStatus is returned when a status outside pending/approved/rejected is written.
var ErrInvalidStatus = errors.New("invalid channel status")

// ChannelRepository is the channel registry.
type ChannelRepository interface {
	// Submit inserts a pending channel unless one with the same handle exists.
	// created reports whether a row was inserted; an existing row is left untouched.
	Submit(ctx context.Context, channel *models.Channel) (created bool, err error)

	// GetByID retrieves a channel by its registry ID.
	GetByID(ctx context.Context, id int64) (*models.Channel, error)

	// GetByHandle retrieves a channel by its normalized handle.
	GetByHandle(ctx context.Context, handle string) (*models.Channel, error)

	// SetStatus moves a channel to another moderation state.
	SetStatus(ctx context.Context, id int64, status models.Status) error

	// UpdateStats writes the current subscriber count and growth percentages.
	UpdateStats(ctx context.Context, id int64, subscribers int64, growth7d, growth30d float64) error

	// UpdateMetadata refreshes the title and description reported by the data source.
	UpdateMetadata(ctx context.Context, id int64, title, description string) error

	// Delete removes a channel together with its posts and snapshots.
	Delete(ctx context.Context, id int64) error

	// ListByStatus returns channels in the given state, newest first.
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Channel, error)

	// ListAll returns every channel, newest first.
	ListAll(ctx context.Context) ([]*models.Channel, error)

	// CountSubmittedBy counts channels submitted by a user across all states.
	CountSubmittedBy(ctx context.Context, userID int64) (int64, error)

	// CountByStatus returns the per-status channel counts.
	CountByStatus(ctx context.Context) (*models.StatusCounts, error)
}

type channelRepository struct {
	db db.DBTX
}

// NewChannelRepository creates a new ChannelRepository.
func NewChannelRepository(conn db.DBTX) ChannelRepository {
	return &channelRepository{db: conn}
}

const channelColumns = `id, handle, title, description, submitted_by, status,
		       subscribers, growth_7d, growth_30d, created_at, updated_at`

func (r *channelRepository) Submit(ctx context.Context, channel *models.Channel) (bool, error) {
	query := `
		INSERT INTO channels (handle, title, submitted_by, status)
		VALUES ($1, $2, $3, 'pending')
		ON CONFLICT (handle) DO NOTHING
		RETURNING id, status, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		channel.Handle,
		channel.Title,
		channel.SubmittedBy,
	).Scan(
		&channel.ID,
		&channel.Status,
		&channel.CreatedAt,
		&channel.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, db.WrapError(err, "submit channel")
	}

	return true, nil
}

func (r *channelRepository) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = $1`

	channel, err := scanChannel(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, db.WrapError(err, "get channel by id")
	}

	return channel, nil
}

func (r *channelRepository) GetByHandle(ctx context.Context, handle string) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE handle = $1`

	channel, err := scanChannel(r.db.QueryRow(ctx, query, handle))
	if err != nil {
		return nil, db.WrapError(err, "get channel by handle")
	}

	return channel, nil
}

func (r *channelRepository) SetStatus(ctx context.Context, id int64, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("set channel status %q: %w", status, ErrInvalidStatus)
	}

	query := `
		UPDATE channels
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, string(status), id)
	if err != nil {
		return db.WrapError(err, "set channel status")
	}

	if result.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "set channel status")
	}

	return nil
}

func (r *channelRepository) UpdateStats(ctx context.Context, id int64, subscribers int64, growth7d, growth30d float64) error {
	query := `
		UPDATE channels
		SET subscribers = $1,
		    growth_7d = $2,
		    growth_30d = $3,
		    updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.db.Exec(ctx, query, subscribers, growth7d, growth30d, id)
	if err != nil {
		return db.WrapError(err, "update channel stats")
	}

	if result.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "update channel stats")
	}

	return nil
}

func (r *channelRepository) UpdateMetadata(ctx context.Context, id int64, title, description string) error {
	query := `
		UPDATE channels
		SET title = $1, description = $2, updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, title, description, id)
	if err != nil {
		return db.WrapError(err, "update channel metadata")
	}

	if result.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "update channel metadata")
	}

	return nil
}

func (r *channelRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM channels WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return db.WrapError(err, "delete channel")
	}

	if result.RowsAffected() == 0 {
		return db.WrapError(pgx.ErrNoRows, "delete channel")
	}

	return nil
}

func (r *channelRepository) ListByStatus(ctx context.Context, status models.Status) ([]*models.Channel, error) {
	query := `SELECT ` + channelColumns + `
		FROM channels
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, string(status))
	if err != nil {
		return nil, db.WrapError(err, "list channels by status")
	}
	defer rows.Close()

	return scanChannels(rows)
}

func (r *channelRepository) ListAll(ctx context.Context) ([]*models.Channel, error) {
	query := `SELECT ` + channelColumns + `
		FROM channels
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, db.WrapError(err, "list channels")
	}
	defer rows.Close()

	return scanChannels(rows)
}

func (r *channelRepository) CountSubmittedBy(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM channels WHERE submitted_by = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, db.WrapError(err, "count channels by submitter")
	}

	return count, nil
}

func (r *channelRepository) CountByStatus(ctx context.Context) (*models.StatusCounts, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'approved'),
		       COUNT(*) FILTER (WHERE status = 'rejected')
		FROM channels
	`

	counts := &models.StatusCounts{}
	err := r.db.QueryRow(ctx, query).Scan(
		&counts.Total,
		&counts.Pending,
		&counts.Approved,
		&counts.Rejected,
	)
	if err != nil {
		return nil, db.WrapError(err, "count channels by status")
	}

	return counts, nil
}

func scanChannel(row pgx.Row) (*models.Channel, error) {
	channel := &models.Channel{}
	err := row.Scan(
		&channel.ID,
		&channel.Handle,
		&channel.Title,
		&channel.Description,
		&channel.SubmittedBy,
		&channel.Status,
		&channel.Subscribers,
		&channel.Growth7d,
		&channel.Growth30d,
		&channel.CreatedAt,
		&channel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return channel, nil
}

func scanChannels(rows pgx.Rows) ([]*models.Channel, error) {
	channels := make([]*models.Channel, 0)
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	return channels, nil
}
