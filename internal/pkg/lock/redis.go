package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix     = "gym:lock:"
	defaultLockTTL     = 10 * time.Second
	defaultRetryPeriod = 25 * time.Millisecond
)

var releaseScript = goredis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker serializes across API replicas. Each key is a SET NX PX entry
// holding a random token; release deletes it only while the token matches,
// so an expired lock taken over by another holder is never removed.
type RedisLocker struct {
	rdb    goredis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	logger *zap.Logger
}

type RedisOption func(*RedisLocker)

func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisLocker) { r.ttl = ttl }
}

func WithRetryPeriod(d time.Duration) RedisOption {
	return func(r *RedisLocker) { r.retry = d }
}

func NewRedisLocker(rdb goredis.UniversalClient, logger *zap.Logger, opts ...RedisOption) *RedisLocker {
	r := &RedisLocker{rdb: rdb, ttl: defaultLockTTL, retry: defaultRetryPeriod, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect returns a client only if addr answers a ping within five seconds.
func Connect(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

type heldKey struct {
	key   string
	token string
}

func (r *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = dedupe(keys)
	held := make([]heldKey, 0, len(keys))

	for _, key := range keys {
		token := uuid.NewString()
		if err := r.acquire(ctx, redisKeyPrefix+key, token); err != nil {
			r.releaseAll(held)
			return nil, err
		}
		held = append(held, heldKey{key: redisKeyPrefix + key, token: token})
	}

	var once sync.Once
	return func() { once.Do(func() { r.releaseAll(held) }) }, nil
}

func (r *RedisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.rdb.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (r *RedisLocker) releaseAll(held []heldKey) {
	// Release must run even when the request context is already cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := len(held) - 1; i >= 0; i-- {
		h := held[i]
		err := releaseScript.Run(ctx, r.rdb, []string{h.key}, h.token).Err()
		if err != nil && !errors.Is(err, goredis.Nil) {
			r.logger.Warn("redis unlock failed", zap.String("key", h.key), zap.Error(err))
		}
	}
}
