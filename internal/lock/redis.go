package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Client is the subset of *redis.Client used by RedisLocker.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisConfig tunes RedisLocker.
type RedisConfig struct {
	// Prefix is prepended to every key.
	Prefix string
	// TTL bounds how long a crashed holder can keep a key.
	TTL time.Duration
	// Wait is the longest Acquire polls for a held key.
	Wait time.Duration
	// RetryInterval is the pause between attempts.
	RetryInterval time.Duration
}

// DefaultRedisConfig returns the settings used when fields are left zero.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Prefix:        "meeting-scheduler:lock:",
		TTL:           2 * time.Minute,
		Wait:          10 * time.Second,
		RetryInterval: 100 * time.Millisecond,
	}
}

// RedisLocker implements advisory locks with SET NX PX and a token checked on release.
type RedisLocker struct {
	client Client
	cfg    RedisConfig
	token  func() string
	logger *slog.Logger
}

// NewRedisLocker wraps client.
func NewRedisLocker(client Client, cfg RedisConfig, logger *slog.Logger) *RedisLocker {
	defaults := DefaultRedisConfig()
	if cfg.Prefix == "" {
		cfg.Prefix = defaults.Prefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.Wait < 0 {
		cfg.Wait = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaults.RetryInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{client: client, cfg: cfg, token: uuid.NewString, logger: logger}
}

// Acquire sets the key if absent, polling until cfg.Wait elapses or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := l.cfg.Prefix + key
	token := l.token()
	deadline := time.Now().Add(l.cfg.Wait)

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock: set %s: %w", fullKey, err)
		}
		if ok {
			return l.releaser(fullKey, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s is held", ErrNotAcquired, key)
		}

		timer := time.NewTimer(l.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) releaser(fullKey, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		deleted, err := l.client.Eval(ctx, releaseScript, []string{fullKey}, token).Int64()
		if err != nil {
			l.logger.Warn("failed to release lock", "key", fullKey, "error", err)
			return
		}
		if deleted == 0 {
			l.logger.Warn("lock expired before release", "key", fullKey)
		}
	}
}

// Dial connects to Redis and checks the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
