package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"speakcraft-social/domain/model"

	"github.com/redis/go-redis/v9"
)

// ISocialCache covers the two Redis concerns of the publishing pipeline: a
// best-effort run lock for the worker and a short-lived metrics cache for the
// dashboard. All methods tolerate a nil client.
type ISocialCache interface {
	TryRunLock(ctx context.Context, ttl time.Duration) (bool, func())
	SetAccountMetrics(ctx context.Context, accountID int64, m model.AccountMetrics)
	GetAccountMetrics(ctx context.Context, accountID int64) (*model.AccountMetrics, error)
}

const workerLockKey = "publish_worker:run_lock"

type SocialCache struct {
	client *redis.Client
}

func NewSocialCache(client *redis.Client) ISocialCache {
	return &SocialCache{client: client}
}

// TryRunLock takes the worker run lock via SET NX. It is advisory only; the
// conditional claim on each post row remains the correctness mechanism. The
// returned release func is safe to call in all cases. Without Redis the lock
// always "succeeds".
func (c *SocialCache) TryRunLock(ctx context.Context, ttl time.Duration) (bool, func()) {
	if c.client == nil {
		return true, func() {}
	}
	ok, err := c.client.SetNX(ctx, workerLockKey, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		// Redis trouble should not stop publishing.
		return true, func() {}
	}
	if !ok {
		return false, func() {}
	}
	return true, func() {
		_ = c.client.Del(context.WithoutCancel(ctx), workerLockKey).Err()
	}
}

func metricsKey(accountID int64) string {
	return fmt.Sprintf("social_account:%d:metrics", accountID)
}

func (c *SocialCache) SetAccountMetrics(ctx context.Context, accountID int64, m model.AccountMetrics) {
	if c.client == nil {
		return
	}
	b, err := json.Marshal(m)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, metricsKey(accountID), b, 15*time.Minute).Err()
}

func (c *SocialCache) GetAccountMetrics(ctx context.Context, accountID int64) (*model.AccountMetrics, error) {
	if c.client == nil {
		return nil, redis.Nil
	}
	b, err := c.client.Get(ctx, metricsKey(accountID)).Bytes()
	if err != nil {
		return nil, err
	}
	var m model.AccountMetrics
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
