package repository

import (
	"context"
	"errors"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/db/models"

	"github.com/jackc/pgx/v5"
)

// PostRepository stores the latest observed engagement of channel messages.
type PostRepository interface {
	// Upsert inserts a post or overwrites the stored counters and text of an
	// existing (channel, message) pair.
	Upsert(ctx context.Context, post *models.Post) error

	// GetText returns the stored text of a post, or "" when the post is unknown.
	GetText(ctx context.Context, channelID, messageID int64) (string, error)

	// CountForChannel returns how many posts are stored for a channel.
	CountForChannel(ctx context.Context, channelID int64) (int64, error)
}

type postRepository struct {
	db db.DBTX
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(conn db.DBTX) PostRepository {
	return &postRepository{db: conn}
}

func (r *postRepository) Upsert(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (channel_id, message_id, published_at, views, reactions, forwards, text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (channel_id, message_id) DO UPDATE
		SET published_at = EXCLUDED.published_at,
		    views = EXCLUDED.views,
		    reactions = EXCLUDED.reactions,
		    forwards = EXCLUDED.forwards,
		    text = EXCLUDED.text,
		    updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query,
		post.ChannelID,
		post.MessageID,
		post.PublishedAt,
		post.Views,
		post.Reactions,
		post.Forwards,
		post.Text,
	)
	if err != nil {
		return db.WrapError(err, "upsert post")
	}

	return nil
}

func (r *postRepository) GetText(ctx context.Context, channelID, messageID int64) (string, error) {
	query := `SELECT text FROM posts WHERE channel_id = $1 AND message_id = $2`

	var text string
	err := r.db.QueryRow(ctx, query, channelID, messageID).Scan(&text)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", db.WrapError(err, "get post text")
	}

	return text, nil
}

func (r *postRepository) CountForChannel(ctx context.Context, channelID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM posts WHERE channel_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, channelID).Scan(&count); err != nil {
		return 0, db.WrapError(err, "count posts")
	}

	return count, nil
}
