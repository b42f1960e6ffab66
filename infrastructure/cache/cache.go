package cache

import (
	"context"

	"speakcraft-social/infrastructure/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache connects to Redis. A failed ping is reported to the caller so main
// can degrade gracefully, matching how the other optional backends behave.
func NewCache(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis ping failed")
		return nil, err
	}
	return client, nil
}
