package repository

import (
	"context"
	"testing"
	"time"

	"rentbook/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimitStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisLimitStore(client)
	ctx := context.Background()

	t.Run("RateLimit", func(t *testing.T) {
		key := "uid:789"
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		// third request exceeds the limit
		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		allowed, err := repo.CheckRateLimit(ctx, "ip:10.0.0.1", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, "ip:10.0.0.2", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, s.Exists("rate_limit:ip:10.0.0.2"))
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisLimitStore(nil)
		_, err := repo.CheckRateLimit(ctx, "k", 1, time.Second)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("ServerDown", func(t *testing.T) {
		down, err := miniredis.Run()
		require.NoError(t, err)
		downClient := NewRedisClient(config.RedisConfig{Address: down.Addr()})
		defer downClient.Close()
		down.Close()

		_, err = NewRedisLimitStore(downClient).CheckRateLimit(ctx, "k", 1, time.Second)
		assert.Error(t, err)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("WindowTTL", func(t *testing.T) {
		_, err := repo.CheckRateLimit(ctx, "uid:ttl", 5, 30*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, s.TTL("rate_limit:uid:ttl"))

		// later hits keep the original window
		s.FastForward(10 * time.Second)
		_, err = repo.CheckRateLimit(ctx, "uid:ttl", 5, 30*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 20*time.Second, s.TTL("rate_limit:uid:ttl"))
	})
}
