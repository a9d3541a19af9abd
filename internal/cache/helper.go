package cache

import (
	"context"
	"encoding/json"
	"time"

	"classhub/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if Client == nil {
		return false, nil
	}
	s, err := Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("get").Inc()
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if Client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := Client.Set(ctx, key, b, ttl).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("set").Inc()
		return err
	}
	return nil
}

// CacheAside tries Redis first, on miss it calls fetch (which should populate dest),
// then stores the result in Redis with ttl. fetch must write into dest.
func CacheAside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) (err error) {
	found, err := GetJSON(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	// Fetch from source (DB)
	if err := fetch(); err != nil {
		return err
	}

	// Store into cache (best-effort)
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate removes keys, best-effort.
func Invalidate(ctx context.Context, keys ...string) {
	if Client == nil || len(keys) == 0 {
		return
	}
	if err := Client.Del(ctx, keys...).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("del").Inc()
	}
}

const denyPrefix = "deny:jti:"

// DenyToken records a JWT ID as revoked until the token's own expiry.
// Used by logout; with stateless JWTs this is the only server-side state.
func DenyToken(ctx context.Context, jti string, until time.Duration) error {
	if Client == nil || jti == "" {
		return nil
	}
	if until <= 0 {
		return nil
	}
	if err := Client.Set(ctx, denyPrefix+jti, "1", until).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("set").Inc()
		return err
	}
	return nil
}

// IsTokenDenied reports whether a JWT ID has been revoked. Fails open when
// Redis is unavailable, matching the rate limiter's behavior.
func IsTokenDenied(ctx context.Context, jti string) bool {
	if Client == nil || jti == "" {
		return false
	}
	n, err := Client.Exists(ctx, denyPrefix+jti).Result()
	if err != nil {
		observability.RedisErrorRate.WithLabelValues("exists").Inc()
		return false
	}
	return n > 0
}
