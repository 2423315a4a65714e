// Package redisc holds the redis-backed pieces of the directory: messaging
// policy grants and online presence.
package redisc

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func Init(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}
