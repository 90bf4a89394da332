package cache

import (
	"context"
	"testing"

	"account_service/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis connects to a local Redis on DB 1.
// Tests are skipped when Redis is not running.
func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		t.Skip("Redis not available, skipping test")
	}

	client.FlushDB(ctx)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestUserKey(t *testing.T) {
	assert.Equal(t, "user:42", UserKey(42))
	assert.Equal(t, "user:1", UserKey(1))
}

func TestUserCache_Miss(t *testing.T) {
	c := NewUserCache(setupTestRedis(t))

	data, err := c.Get(context.Background(), UserKey(999))

	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestUserCache_SetGetDelete(t *testing.T) {
	c := NewUserCache(setupTestRedis(t))
	ctx := context.Background()
	key := UserKey(7)

	require.NoError(t, c.Set(ctx, key, map[string]interface{}{"id": 7, "username": "ann1"}))

	data, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7,"username":"ann1"}`, string(data))

	require.NoError(t, c.Delete(ctx, key))

	data, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestConnect_GivesUpWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rdb, err := Connect(ctx, &config.RedisConfig{Host: "127.0.0.1", Port: "1"})

	assert.Nil(t, rdb)
	assert.ErrorIs(t, err, context.Canceled)
}
