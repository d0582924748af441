package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token IDs (jti claims) in Redis so that logout
// terminates a session before its 24h expiry. Entries carry a TTL equal to
// the token's remaining validity, after which expiry makes them moot.
//
// Tokens themselves stay stateless: without a Redis server the denylist is
// inert, Revoke is a no-op and IsRevoked always reports false, leaving
// expiry as the only termination mechanism.
type Denylist struct {
	rdb *redis.Client
}

// NewDenylist wraps the given Redis client. rdb may be nil.
func NewDenylist(rdb *redis.Client) *Denylist {
	return &Denylist{rdb: rdb}
}

const denyPrefix = "deny:jti:"

// Revoke marks a token id as revoked for the given duration.
func (d *Denylist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if d == nil || d.rdb == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return d.rdb.SetEx(ctx, denyPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether a token id has been revoked. Redis errors fail
// open: a flaky denylist must not lock every caller out.
func (d *Denylist) IsRevoked(ctx context.Context, jti string) bool {
	if d == nil || d.rdb == nil || jti == "" {
		return false
	}
	n, err := d.rdb.Exists(ctx, denyPrefix+jti).Result()
	if err != nil {
		return false
	}
	return n > 0
}
