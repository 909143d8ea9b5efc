package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chancat/channel-catalog-go/internal/db/models"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	published := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	post := &models.Post{
		ChannelID:   1,
		MessageID:   100,
		PublishedAt: published,
		Views:       1000,
		Reactions:   5,
		Forwards:    2,
		Text:        "hello",
	}

	t.Run("writes all fields", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewPostRepository(mock)

		mock.ExpectExec("INSERT INTO posts").
			WithArgs(int64(1), int64(100), published, int64(1000), int64(5), int64(2), "hello").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.Upsert(ctx, post))
	})

	t.Run("failure is returned", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewPostRepository(mock)

		mock.ExpectExec("INSERT INTO posts").
			WithArgs(int64(1), int64(100), published, int64(1000), int64(5), int64(2), "hello").
			WillReturnError(errors.New("disk full"))

		err := repo.Upsert(ctx, post)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upsert post")
	})
}

func TestPostRepository_GetText(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored text", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewPostRepository(mock)

		mock.ExpectQuery("SELECT text FROM posts").
			WithArgs(int64(1), int64(100)).
			WillReturnRows(pgxmock.NewRows([]string{"text"}).AddRow("hello"))

		text, err := repo.GetText(ctx, 1, 100)
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	})

	t.Run("missing post yields empty string", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewPostRepository(mock)

		mock.ExpectQuery("SELECT text FROM posts").
			WithArgs(int64(1), int64(404)).
			WillReturnError(pgx.ErrNoRows)

		text, err := repo.GetText(ctx, 1, 404)
		require.NoError(t, err)
		assert.Equal(t, "", text)
	})
}

func TestPostRepository_CountForChannel(t *testing.T) {
	mock := newMockPool(t)
	repo := NewPostRepository(mock)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(12)))

	count, err := repo.CountForChannel(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}
