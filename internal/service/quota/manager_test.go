package quota

import (
	"context"
	"errors"
	"testing"

	"github.com/chancat/channel-catalog-go/internal/db/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CheckSubmissionAllowed(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		used      int64
		allowed   bool
		remaining int64
	}{
		{name: "first submission", used: 0, allowed: true, remaining: 5},
		{name: "last free slot", used: 4, allowed: true, remaining: 1},
		{name: "at limit", used: 5, allowed: false, remaining: 0},
		{name: "over limit after a lowered setting", used: 7, allowed: false, remaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.ChannelRepository)
			repo.On("CountSubmittedBy", ctx, int64(42)).Return(tt.used, nil)

			allowed, usage, err := NewManager(repo, 0, nil).CheckSubmissionAllowed(ctx, 42)

			require.NoError(t, err)
			assert.Equal(t, tt.allowed, allowed)
			assert.Equal(t, tt.remaining, usage.Remaining)
			assert.Equal(t, int64(DefaultLimit), usage.Limit)
		})
	}

	t.Run("count failure", func(t *testing.T) {
		repo := new(mocks.ChannelRepository)
		repo.On("CountSubmittedBy", ctx, int64(42)).Return(int64(0), errors.New("db down"))

		allowed, usage, err := NewManager(repo, 3, nil).CheckSubmissionAllowed(ctx, 42)

		assert.Error(t, err)
		assert.False(t, allowed)
		assert.Nil(t, usage)
	})
}
