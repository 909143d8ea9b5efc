package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/db/models"

	"github.com/jackc/pgx/v5"
)

// RankingRepository runs the read-only ranking queries over approved channels.
type RankingRepository interface {
	// TopPosts returns posts of approved channels matching the filter with a
	// positive metric value, highest first.
	TopPosts(ctx context.Context, filter PostFilter) ([]models.RankedPost, error)

	// TopGrowth returns approved channels with at least minSubscribers,
	// ordered by the growth of the given period.
	TopGrowth(ctx context.Context, period models.Period, minSubscribers int64, limit int) ([]models.RankedChannel, error)
}

// PostFilter narrows a post ranking.
type PostFilter struct {
	Metric models.Metric
	// Since is the inclusive lower bound on the publication timestamp.
	Since time.Time
	// MaxSubscribers, when positive, keeps only channels with fewer subscribers.
	MaxSubscribers int64
	Limit          int
}

type rankingRepository struct {
	db db.DBTX
}

// NewRankingRepository creates a new RankingRepository.
func NewRankingRepository(conn db.DBTX) RankingRepository {
	return &rankingRepository{db: conn}
}

var metricColumns = map[models.Metric]string{
	models.MetricReactions: "p.reactions",
	models.MetricViews:     "p.views",
	models.MetricForwards:  "p.forwards",
}

var growthColumns = map[models.Period]string{
	models.Period7d:  "c.growth_7d",
	models.Period30d: "c.growth_30d",
}

func (r *rankingRepository) TopPosts(ctx context.Context, filter PostFilter) ([]models.RankedPost, error) {
	column, ok := metricColumns[filter.Metric]
	if !ok {
		return nil, fmt.Errorf("top posts: unknown metric %q", filter.Metric)
	}

	query := fmt.Sprintf(`
		SELECT p.channel_id, c.handle, c.title, p.message_id, p.published_at,
		       COALESCE(p.text, ''), COALESCE(%[1]s, 0) AS value
		FROM posts p
		JOIN channels c ON c.id = p.channel_id
		WHERE c.status = 'approved'
		  AND p.published_at >= $1
		  AND COALESCE(%[1]s, 0) > 0
		  AND ($2::BIGINT <= 0 OR c.subscribers < $2)
		ORDER BY value DESC, p.message_id DESC, p.channel_id DESC
		LIMIT $3
	`, column)

	rows, err := r.db.Query(ctx, query, filter.Since, filter.MaxSubscribers, filter.Limit)
	if err != nil {
		return nil, db.WrapError(err, "top posts")
	}
	defer rows.Close()

	posts := make([]models.RankedPost, 0)
	for rows.Next() {
		var p models.RankedPost
		if err := rows.Scan(
			&p.ChannelID,
			&p.Handle,
			&p.ChannelTitle,
			&p.MessageID,
			&p.PublishedAt,
			&p.Text,
			&p.Value,
		); err != nil {
			return nil, fmt.Errorf("scan ranked post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked posts: %w", err)
	}

	return posts, nil
}

func (r *rankingRepository) TopGrowth(ctx context.Context, period models.Period, minSubscribers int64, limit int) ([]models.RankedChannel, error) {
	column, ok := growthColumns[period]
	if !ok {
		column = growthColumns[models.Period30d]
	}

	query := fmt.Sprintf(`
		SELECT c.id, c.handle, c.title, c.subscribers, %[1]s
		FROM channels c
		WHERE c.status = 'approved' AND c.subscribers >= $1
		ORDER BY %[1]s DESC, c.subscribers DESC, c.id ASC
		LIMIT $2
	`, column)

	rows, err := r.db.Query(ctx, query, minSubscribers, limit)
	if err != nil {
		return nil, db.WrapError(err, "top growth")
	}
	defer rows.Close()

	return scanRankedChannels(rows)
}

func scanRankedChannels(rows pgx.Rows) ([]models.RankedChannel, error) {
	channels := make([]models.RankedChannel, 0)
	for rows.Next() {
		var c models.RankedChannel
		if err := rows.Scan(&c.ID, &c.Handle, &c.Title, &c.Subscribers, &c.Growth); err != nil {
			return nil, fmt.Errorf("scan ranked channel: %w", err)
		}
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked channels: %w", err)
	}

	return channels, nil
}
