package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLoginLocked is returned while a client is locked out of login.
var ErrLoginLocked = errors.New("too many failed login attempts")

// LimiterClient is the subset of go-redis commands used by LoginLimiter.
type LimiterClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RateLimitConfig holds login lockout configuration.
type RateLimitConfig struct {
	// LoginAttemptsLimit is the max failed login attempts before lockout.
	LoginAttemptsLimit int
	// LoginLockoutDuration is how long a client is locked out after exceeding attempts.
	LoginLockoutDuration time.Duration
}

// LoginLimiter counts failed admin logins per client in Redis. A nil
// LoginLimiter, or one without a client, allows everything.
type LoginLimiter struct {
	client LimiterClient
	config RateLimitConfig
}

// NewLoginLimiter creates a LoginLimiter with the given Redis client and configuration.
func NewLoginLimiter(client LimiterClient, config RateLimitConfig) *LoginLimiter {
	return &LoginLimiter{client: client, config: config}
}

func (l *LoginLimiter) enabled() bool {
	return l != nil && l.client != nil && l.config.LoginAttemptsLimit > 0
}

func loginKey(clientID string) string {
	return "erasure:login:" + clientID
}

// Check returns ErrLoginLocked if clientID has exceeded the attempt limit.
func (l *LoginLimiter) Check(ctx context.Context, clientID string) error {
	if !l.enabled() {
		return nil
	}

	count, err := l.client.Get(ctx, loginKey(clientID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("check login rate limit: %w", err)
	}
	if int(count) >= l.config.LoginAttemptsLimit {
		return ErrLoginLocked
	}
	return nil
}

// RecordFailure increments the failed login counter for clientID and
// restarts its lockout window.
func (l *LoginLimiter) RecordFailure(ctx context.Context, clientID string) error {
	if !l.enabled() {
		return nil
	}

	key := loginKey(clientID)
	if err := l.client.Incr(ctx, key).Err(); err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	if err := l.client.Expire(ctx, key, l.config.LoginLockoutDuration).Err(); err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	return nil
}

// Clear resets the failed login counter for clientID.
func (l *LoginLimiter) Clear(ctx context.Context, clientID string) error {
	if !l.enabled() {
		return nil
	}
	return l.client.Del(ctx, loginKey(clientID)).Err()
}
