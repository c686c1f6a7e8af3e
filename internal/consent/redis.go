package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calluna/finsight/internal/common"
	"github.com/calluna/finsight/internal/service"
)

const keyPrefix = "finsight:consent:"

// redisAPI is the slice of the redis client the store uses.
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisStore backs the consent gate with a shared redis instance so
// multiple service replicas see the same decisions. The lookup is the
// pipeline's one piece of external I/O, so it is wrapped in retries.
type RedisStore struct {
	client redisAPI
	ttl    time.Duration
	retry  service.RetryOptions
}

// NewRedisStore connects a consent store to the redis at addr.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
		retry: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     time.Second,
		},
	}
}

// HasConsent reports the user's recorded consent decision.
func (s *RedisStore) HasConsent(ctx context.Context, userID string) (bool, error) {
	var val string
	err := common.WithRetry(ctx, func() error {
		var getErr error
		val, getErr = s.client.Get(ctx, keyPrefix+userID).Result()
		if errors.Is(getErr, redis.Nil) {
			// A missing key is a definitive answer, not a transient fault.
			return &common.RetryableError{Err: getErr, Retryable: false}
		}
		return getErr
	}, s.retry)
	if errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("%w for user %s", common.ErrNoConsentRecord, userID)
	}
	if err != nil {
		return false, fmt.Errorf("consent lookup failed: %w", err)
	}
	return val == "granted", nil
}

// SetConsent records a consent decision.
func (s *RedisStore) SetConsent(ctx context.Context, userID string, granted bool) error {
	val := "revoked"
	if granted {
		val = "granted"
	}
	if err := s.client.Set(ctx, keyPrefix+userID, val, s.ttl).Err(); err != nil {
		return fmt.Errorf("consent update failed: %w", err)
	}
	return nil
}

// RevokeConsent records an explicit denial.
func (s *RedisStore) RevokeConsent(ctx context.Context, userID string) error {
	return s.SetConsent(ctx, userID, false)
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
