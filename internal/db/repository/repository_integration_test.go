//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db"
	"github.com/chancat/channel-catalog-go/internal/db/models"
	"github.com/chancat/channel-catalog-go/internal/db/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submitApproved(t *testing.T, repo ChannelRepository, handle string, subscribers int64) *models.Channel {
	t.Helper()
	ctx := context.Background()

	channel := models.NewChannel(handle, handle, 1)
	created, err := repo.Submit(ctx, channel)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, repo.SetStatus(ctx, channel.ID, models.StatusApproved))
	require.NoError(t, repo.UpdateStats(ctx, channel.ID, subscribers, 0, 0))
	return channel
}

func TestIntegration_ChannelRegistry(t *testing.T) {
	td := testutil.SetupTestDatabase(t, "../../../migrations")
	defer td.Cleanup(t)

	repo := NewChannelRepository(td.Pool)
	ctx := context.Background()

	t.Run("duplicate submission leaves one row", func(t *testing.T) {
		td.TruncateTables(t)

		created, err := repo.Submit(ctx, models.NewChannel("@sample", "Sample", 1))
		require.NoError(t, err)
		assert.True(t, created)

		created, err = repo.Submit(ctx, models.NewChannel("@sample", "Other title", 2))
		require.NoError(t, err)
		assert.False(t, created)

		assert.Equal(t, int64(1), td.Count(t, `SELECT COUNT(*) FROM channels WHERE handle = '@sample'`))

		existing, err := repo.GetByHandle(ctx, "@sample")
		require.NoError(t, err)
		assert.Equal(t, "Sample", existing.Title)
		assert.Equal(t, int64(1), existing.SubmittedBy)
	})

	t.Run("setting the same status twice is harmless", func(t *testing.T) {
		td.TruncateTables(t)

		channel := models.NewChannel("@sample", "Sample", 1)
		_, err := repo.Submit(ctx, channel)
		require.NoError(t, err)

		require.NoError(t, repo.SetStatus(ctx, channel.ID, models.StatusApproved))
		require.NoError(t, repo.SetStatus(ctx, channel.ID, models.StatusApproved))

		got, err := repo.GetByID(ctx, channel.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
	})

	t.Run("count by submitter includes every status", func(t *testing.T) {
		td.TruncateTables(t)

		for i, handle := range []string{"@one_chan", "@two_chan", "@three_chan"} {
			channel := models.NewChannel(handle, handle, 77)
			_, err := repo.Submit(ctx, channel)
			require.NoError(t, err)
			statuses := []models.Status{models.StatusPending, models.StatusApproved, models.StatusRejected}
			require.NoError(t, repo.SetStatus(ctx, channel.ID, statuses[i]))
		}

		count, err := repo.CountSubmittedBy(ctx, 77)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, &models.StatusCounts{Total: 3, Pending: 1, Approved: 1, Rejected: 1}, counts)
	})

	t.Run("missing lookups are not found", func(t *testing.T) {
		td.TruncateTables(t)

		_, err := repo.GetByID(ctx, 12345)
		assert.True(t, db.IsNotFound(err))

		_, err = repo.GetByHandle(ctx, "@nobody")
		assert.True(t, db.IsNotFound(err))
	})
}

func TestIntegration_CascadeDelete(t *testing.T) {
	td := testutil.SetupTestDatabase(t, "../../../migrations")
	defer td.Cleanup(t)

	channels := NewChannelRepository(td.Pool)
	posts := NewPostRepository(td.Pool)
	snapshots := NewSnapshotRepository(td.Pool)
	ctx := context.Background()

	doomed := submitApproved(t, channels, "@doomed", 10)
	kept := submitApproved(t, channels, "@kept_one", 10)

	now := time.Now()
	for _, ch := range []*models.Channel{doomed, kept} {
		for i := int64(1); i <= 3; i++ {
			require.NoError(t, posts.Upsert(ctx, &models.Post{
				ChannelID: ch.ID, MessageID: i, PublishedAt: now, Views: 10,
			}))
		}
		for d := 0; d < 2; d++ {
			require.NoError(t, snapshots.Upsert(ctx, &models.Snapshot{
				ChannelID: ch.ID, Date: models.Day(now.AddDate(0, 0, -d), time.UTC), Subscribers: 10,
			}))
		}
	}

	require.NoError(t, channels.Delete(ctx, doomed.ID))

	assert.Zero(t, td.Count(t, `SELECT COUNT(*) FROM posts WHERE channel_id = $1`, doomed.ID))
	assert.Zero(t, td.Count(t, `SELECT COUNT(*) FROM subscriber_snapshots WHERE channel_id = $1`, doomed.ID))
	assert.Equal(t, int64(3), td.Count(t, `SELECT COUNT(*) FROM posts WHERE channel_id = $1`, kept.ID))
	assert.Equal(t, int64(2), td.Count(t, `SELECT COUNT(*) FROM subscriber_snapshots WHERE channel_id = $1`, kept.ID))
}

func TestIntegration_PostUpsert(t *testing.T) {
	td := testutil.SetupTestDatabase(t, "../../../migrations")
	defer td.Cleanup(t)

	channels := NewChannelRepository(td.Pool)
	posts := NewPostRepository(td.Pool)
	ctx := context.Background()

	ch := submitApproved(t, channels, "@sample", 500)
	published := time.Now().Add(-time.Hour).Truncate(time.Second)

	first := &models.Post{ChannelID: ch.ID, MessageID: 1, PublishedAt: published, Views: 100, Reactions: 1, Forwards: 0, Text: "v1"}
	require.NoError(t, posts.Upsert(ctx, first))
	require.NoError(t, posts.Upsert(ctx, first))
	assert.Equal(t, int64(1), td.Count(t, `SELECT COUNT(*) FROM posts WHERE channel_id = $1`, ch.ID))

	second := &models.Post{ChannelID: ch.ID, MessageID: 1, PublishedAt: published, Views: 250, Reactions: 4, Forwards: 2, Text: "v2"}
	require.NoError(t, posts.Upsert(ctx, second))

	assert.Equal(t, int64(1), td.Count(t, `SELECT COUNT(*) FROM posts WHERE channel_id = $1`, ch.ID))
	assert.Equal(t, int64(250), td.Count(t, `SELECT views FROM posts WHERE channel_id = $1 AND message_id = 1`, ch.ID))
	assert.Equal(t, int64(2), td.Count(t, `SELECT forwards FROM posts WHERE channel_id = $1 AND message_id = 1`, ch.ID))

	text, err := posts.GetText(ctx, ch.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "v2", text)

	text, err = posts.GetText(ctx, ch.ID, 999)
	require.NoError(t, err)
	assert.Equal(t, "", text)

	count, err := posts.CountForChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIntegration_Rankings(t *testing.T) {
	td := testutil.SetupTestDatabase(t, "../../../migrations")
	defer td.Cleanup(t)

	channels := NewChannelRepository(td.Pool)
	posts := NewPostRepository(td.Pool)
	rankings := NewRankingRepository(td.Pool)
	ctx := context.Background()
	now := time.Now()
	since := now.Add(-7 * 24 * time.Hour)

	t.Run("empty store yields empty rankings", func(t *testing.T) {
		td.TruncateTables(t)

		for _, metric := range []models.Metric{models.MetricReactions, models.MetricViews, models.MetricForwards} {
			got, err := rankings.TopPosts(ctx, PostFilter{Metric: metric, Since: since, Limit: 10})
			require.NoError(t, err)
			assert.Empty(t, got)
		}
		got, err := rankings.TopGrowth(ctx, models.Period30d, 100, 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("window and zero filtering", func(t *testing.T) {
		td.TruncateTables(t)

		ch := submitApproved(t, channels, "@sample", 500)
		require.NoError(t, posts.Upsert(ctx, &models.Post{ChannelID: ch.ID, MessageID: 1, PublishedAt: now.Add(-8 * 24 * time.Hour), Views: 9999, Reactions: 99, Forwards: 9}))
		require.NoError(t, posts.Upsert(ctx, &models.Post{ChannelID: ch.ID, MessageID: 2, PublishedAt: now.Add(-6 * 24 * time.Hour), Views: 10, Reactions: 1, Forwards: 0}))

		for _, metric := range []models.Metric{models.MetricReactions, models.MetricViews} {
			got, err := rankings.TopPosts(ctx, PostFilter{Metric: metric, Since: since, Limit: 10})
			require.NoError(t, err)
			require.Len(t, got, 1, "metric %s", metric)
			assert.Equal(t, int64(2), got[0].MessageID)
		}

		got, err := rankings.TopPosts(ctx, PostFilter{Metric: models.MetricForwards, Since: since, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("null counters are coerced to zero", func(t *testing.T) {
		td.TruncateTables(t)

		ch := submitApproved(t, channels, "@sample", 500)
		td.Exec(t, `INSERT INTO posts (channel_id, message_id, published_at, views, reactions, forwards) VALUES ($1, 1, $2, NULL, NULL, NULL)`, ch.ID, now)
		require.NoError(t, posts.Upsert(ctx, &models.Post{ChannelID: ch.ID, MessageID: 2, PublishedAt: now, Views: 3, Reactions: 1, Forwards: 1}))

		got, err := rankings.TopPosts(ctx, PostFilter{Metric: models.MetricViews, Since: since, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(2), got[0].MessageID)
	})

	t.Run("non-approved channels never rank", func(t *testing.T) {
		td.TruncateTables(t)

		pending := models.NewChannel("@pending_ch", "Pending", 1)
		_, err := channels.Submit(ctx, pending)
		require.NoError(t, err)

		rejected := models.NewChannel("@rejected_ch", "Rejected", 1)
		_, err = channels.Submit(ctx, rejected)
		require.NoError(t, err)
		require.NoError(t, channels.SetStatus(ctx, rejected.ID, models.StatusRejected))

		for _, ch := range []*models.Channel{pending, rejected} {
			require.NoError(t, channels.UpdateStats(ctx, ch.ID, 1000, 50, 50))
			require.NoError(t, posts.Upsert(ctx, &models.Post{ChannelID: ch.ID, MessageID: 1, PublishedAt: now, Views: 9999, Reactions: 99, Forwards: 99}))
		}

		for _, metric := range []models.Metric{models.MetricReactions, models.MetricViews, models.MetricForwards} {
			got, err := rankings.TopPosts(ctx, PostFilter{Metric: metric, Since: since, Limit: 10})
			require.NoError(t, err)
			assert.Empty(t, got)
		}
		growth, err := rankings.TopGrowth(ctx, models.Period7d, 100, 10)
		require.NoError(t, err)
		assert.Empty(t, growth)
	})

	t.Run("ties break by message id descending", func(t *testing.T) {
		td.TruncateTables(t)

		ch := submitApproved(t, channels, "@sample", 500)
		for _, id := range []int64{5, 9, 7} {
			require.NoError(t, posts.Upsert(ctx, &models.Post{ChannelID: ch.ID, MessageID: id, PublishedAt: now, Reactions: 3}))
		}

		got, err := rankings.TopPosts(ctx, PostFilter{Metric: models.MetricReactions, Since: since, Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(9), got[0].MessageID)
		assert.Equal(t, int64(7), got[1].MessageID)
	})

	t.Run("small channel threshold", func(t *testing.T) {
		td.TruncateTables(t)

		atCap := submitApproved(t, channels, "@at_cap", 3000)
		belowCap := submitApproved(t, channels, "@below_cap", 2999)
		for _, ch := range []*models.Channel{atCap, belowCap} {
			require.NoError(t, posts.Upsert(ctx, &models.Post{ChannelID: ch.ID, MessageID: 1, PublishedAt: now, Views: 50}))
		}

		got, err := rankings.TopPosts(ctx, PostFilter{Metric: models.MetricViews, Since: since, MaxSubscribers: 3000, Limit: 10})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "@below_cap", got[0].Handle)
	})

	t.Run("growth threshold and period selector", func(t *testing.T) {
		td.TruncateTables(t)

		tiny := submitApproved(t, channels, "@tiny_ch", 99)
		require.NoError(t, channels.UpdateStats(ctx, tiny.ID, 99, 90, 90))
		weekly := submitApproved(t, channels, "@weekly", 100)
		require.NoError(t, channels.UpdateStats(ctx, weekly.ID, 100, 30, 1))
		monthly := submitApproved(t, channels, "@monthly", 200)
		require.NoError(t, channels.UpdateStats(ctx, monthly.ID, 200, 2, 40))

		got, err := rankings.TopGrowth(ctx, models.Period7d, 100, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "@weekly", got[0].Handle)
		assert.Equal(t, 30.0, got[0].Growth)

		got, err = rankings.TopGrowth(ctx, models.Period30d, 100, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "@monthly", got[0].Handle)
	})
}
