// Package lock guards pipeline runs across processes with a Redis key.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ContentGenerator/internal/ports"
)

const (
	// DefaultTTL bounds how long a crashed holder blocks other runs.
	DefaultTTL = 2 * time.Hour

	releaseTimeout = 5 * time.Second
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker takes a SET NX lock whose value is a per-acquisition token,
// so a holder whose key expired cannot release someone else's lock.
type RedisLocker struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.Locker = (*RedisLocker)(nil)

// NewRedisLocker builds a locker on key.
func NewRedisLocker(client redis.UniversalClient, key string, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RedisLocker{client: client, key: key, ttl: ttl, logger: logger}
}

// TryLock attempts to acquire the lock without blocking.
func (l *RedisLocker) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()

		released, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
		if err != nil {
			l.logger.Warn("release run lock", "key", l.key, "error", err)
			return
		}
		if released == 0 {
			l.logger.Warn("run lock expired before release", "key", l.key, "ttl", l.ttl)
		}
	}
	return release, true, nil
}
