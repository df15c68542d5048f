package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens the Redis connection backing the presence and typing
// stores and verifies it with a ping.
func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	url := getEnv("REDIS_URL", "redis://localhost:6379/0")
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
