package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableIPThrottle bool

	MaxLoginAttempts int
	LoginCooldown    time.Duration

	MaxRefreshAttempts int
	RefreshCooldown    time.Duration

	MaxVerifyAttempts int
	VerifyCooldown    time.Duration
}

// Limiter enforces per-email, per-principal, and per-IP attempt budgets with
// Redis counters. A nil *Limiter is valid and never limits anything, which is
// how the engine runs without Redis.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func loginEmailKey(email string) string  { return "al:" + email }
func loginIPKey(ip string) string        { return "ali:" + ip }
func refreshKey(principal string) string { return "ar:" + principal }
func verifyEmailKey(email string) string { return "av:" + email }
func verifyIPKey(ip string) string       { return "avi:" + ip }

// CheckLogin reports whether the email+IP pair still has login budget.
// Read-only: attempts are counted separately so a rejected request does not
// itself consume budget.
func (l *Limiter) CheckLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	if err := l.checkCounter(ctx, loginEmailKey(email), l.config.MaxLoginAttempts); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, loginIPKey(ip), l.config.MaxLoginAttempts); err != nil {
			return err
		}
	}

	return nil
}

// IncrementLogin records a failed login attempt for the email+IP pair.
func (l *Limiter) IncrementLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, loginEmailKey(email), l.config.LoginCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, loginIPKey(ip), l.config.LoginCooldown)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// ResetLogin clears the failed-login counters for the email+IP pair. Called
// after a successful login.
func (l *Limiter) ResetLogin(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	keys := []string{loginEmailKey(email)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, loginIPKey(ip))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// CheckRefresh counts a refresh attempt for the principal and enforces the
// refresh budget. Unlike login, every attempt consumes budget whether or not
// it succeeds.
func (l *Limiter) CheckRefresh(ctx context.Context, principalID string) error {
	if l == nil {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, refreshKey(principalID), l.config.RefreshCooldown)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshAttempts) {
		return ErrRateLimited
	}

	return nil
}

// CheckVerification counts a verification attempt for the email+IP pair and
// enforces the verification budget.
func (l *Limiter) CheckVerification(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}

	if email != "" {
		count, err := l.incrementWithTTL(ctx, verifyEmailKey(email), l.config.VerifyCooldown)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxVerifyAttempts) {
			return ErrRateLimited
		}
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err := l.incrementWithTTL(ctx, verifyIPKey(ip), l.config.VerifyCooldown)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxVerifyAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// LoginAttempts returns the current attempt counter for an email. Missing
// keys return zero and do not reveal account existence.
func (l *Limiter) LoginAttempts(ctx context.Context, email string) (int, error) {
	if l == nil {
		return 0, nil
	}

	count, err := l.redis.Get(ctx, loginEmailKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
