package cache

import (
	"context"
	"fmt"
	"time"

	"account_service/internal/config"
	"account_service/internal/utils"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func newClient(redisCfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisCfg.Host, redisCfg.Port),
		Password:     redisCfg.RedisPassword,
		DB:           redisCfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// Connect returns a client once Redis answers PING.
func Connect(ctx context.Context, redisCfg *config.RedisConfig) (*redis.Client, error) {
	rdb := newClient(redisCfg)

	err := utils.Retry(ctx, utils.DefaultRetry("redis"), func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	if err != nil {
		rdb.Close()
		return nil, err
	}

	logrus.WithField("addr", rdb.Options().Addr).Info("Redis connection established successfully")
	return rdb, nil
}

// SetupRedis is Connect for the binaries: failure to connect is fatal.
func SetupRedis(redisCfg *config.RedisConfig) *redis.Client {
	rdb, err := Connect(context.Background(), redisCfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to Redis")
	}
	return rdb
}
