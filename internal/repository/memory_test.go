package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimitStore(t *testing.T) {
	repo := NewMemoryLimitStore()
	ctx := context.Background()

	t.Run("BurstThenDeny", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, "uid:1", 3, time.Hour)
			require.NoError(t, err)
			assert.True(t, allowed, "request %d", i+1)
		}

		allowed, err := repo.CheckRateLimit(ctx, "uid:1", 3, time.Hour)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("SeparateKeys", func(t *testing.T) {
		allowed, err := repo.CheckRateLimit(ctx, "uid:2", 1, time.Hour)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("Refill", func(t *testing.T) {
		allowed, err := repo.CheckRateLimit(ctx, "uid:3", 1, 20*time.Millisecond)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, _ = repo.CheckRateLimit(ctx, "uid:3", 1, 20*time.Millisecond)
		assert.False(t, allowed)

		time.Sleep(40 * time.Millisecond)
		allowed, _ = repo.CheckRateLimit(ctx, "uid:3", 1, 20*time.Millisecond)
		assert.True(t, allowed)
	})

	t.Run("DisabledLimit", func(t *testing.T) {
		allowed, err := repo.CheckRateLimit(ctx, "uid:4", 0, time.Second)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}
