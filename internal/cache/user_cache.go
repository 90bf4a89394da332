package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const UserCacheTTL = 1 * time.Hour

type UserCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUserCache(client *redis.Client) *UserCache {
	return &UserCache{client: client, ttl: UserCacheTTL}
}

// Get returns the cached value, or nil on a cache miss.
func (c *UserCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores data as JSON under key with the cache TTL.
func (c *UserCache) Set(ctx context.Context, key string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, jsonData, c.ttl).Err()
}

func (c *UserCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// UserKey builds the cache key for a single user.
func UserKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
