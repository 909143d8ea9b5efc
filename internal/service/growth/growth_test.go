package growth

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name    string
		current int64
		past    int64
		want    float64
	}{
		{name: "fifty percent", current: 150, past: 100, want: 50.0},
		{name: "decline", current: 90, past: 120, want: -25.0},
		{name: "no change", current: 100, past: 100, want: 0},
		{name: "rounds to one decimal", current: 1001, past: 3000, want: -66.6},
		{name: "small growth", current: 101, past: 100, want: 1.0},
		{name: "zero past", current: 500, past: 0, want: 0},
		{name: "negative past", current: 500, past: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(tt.current, tt.past)
			assert.Equal(t, tt.want, got)
			assert.False(t, math.IsInf(got, 0) || math.IsNaN(got))
		})
	}
}

var snapshotCols = []string{"subscribers"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestCalculator_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 18, 45, 0, 0, time.UTC)
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	weekAgo := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	monthAgo := time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC)

	t.Run("computes both periods", func(t *testing.T) {
		mock := newMock(t)
		calc := NewCalculator(mock, time.UTC, nil)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO subscriber_snapshots").
			WithArgs(int64(1), today, int64(150)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), weekAgo).
			WillReturnRows(pgxmock.NewRows(snapshotCols).AddRow(int64(100)))
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), monthAgo).
			WillReturnRows(pgxmock.NewRows(snapshotCols).AddRow(int64(200)))
		mock.ExpectExec("UPDATE channels").
			WithArgs(int64(150), 50.0, -25.0, int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		g, err := calc.Update(ctx, 1, 150, now)

		require.NoError(t, err)
		assert.Equal(t, Growth{Week: 50.0, Month: -25.0}, g)
	})

	t.Run("missing history yields zero growth", func(t *testing.T) {
		mock := newMock(t)
		calc := NewCalculator(mock, time.UTC, nil)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO subscriber_snapshots").
			WithArgs(int64(1), today, int64(150)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), weekAgo).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), monthAgo).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectExec("UPDATE channels").
			WithArgs(int64(150), 0.0, 0.0, int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		g, err := calc.Update(ctx, 1, 150, now)

		require.NoError(t, err)
		assert.Equal(t, Growth{}, g)
	})

	t.Run("zero past snapshot is guarded", func(t *testing.T) {
		mock := newMock(t)
		calc := NewCalculator(mock, time.UTC, nil)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO subscriber_snapshots").
			WithArgs(int64(1), today, int64(40)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), weekAgo).
			WillReturnRows(pgxmock.NewRows(snapshotCols).AddRow(int64(0)))
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), monthAgo).
			WillReturnRows(pgxmock.NewRows(snapshotCols).AddRow(int64(0)))
		mock.ExpectExec("UPDATE channels").
			WithArgs(int64(40), 0.0, 0.0, int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		g, err := calc.Update(ctx, 1, 40, now)

		require.NoError(t, err)
		assert.Equal(t, Growth{}, g)
	})

	t.Run("storage failure rolls back and returns zero growth", func(t *testing.T) {
		mock := newMock(t)
		calc := NewCalculator(mock, time.UTC, nil)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO subscriber_snapshots").
			WithArgs(int64(1), today, int64(150)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), weekAgo).
			WillReturnRows(pgxmock.NewRows(snapshotCols).AddRow(int64(100)))
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), monthAgo).
			WillReturnError(errors.New("connection lost"))
		mock.ExpectRollback()

		g, err := calc.Update(ctx, 1, 150, now)

		require.Error(t, err)
		assert.Equal(t, Growth{}, g)
	})

	t.Run("calendar day follows the configured zone", func(t *testing.T) {
		mock := newMock(t)
		vlat, err := time.LoadLocation("Asia/Vladivostok")
		require.NoError(t, err)
		calc := NewCalculator(mock, vlat, nil)

		// 18:45 UTC is already the 16th in UTC+10.
		nextDay := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO subscriber_snapshots").
			WithArgs(int64(1), nextDay, int64(10)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery("SELECT subscribers").
			WithArgs(int64(1), time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectExec("UPDATE channels").
			WithArgs(int64(10), 0.0, 0.0, int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		_, err = calc.Update(ctx, 1, 10, now)
		require.NoError(t, err)
	})
}
