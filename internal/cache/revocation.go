package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/library/pkg/logging"
	"github.com/Skotchmaster/library/pkg/tokens"
)

const keyPrefix = "revoked:"

// Store is the durable revocation list.
type Store interface {
	Revoke(ctx context.Context, jti string, kind tokens.Kind, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Revocations is a write-through Redis cache over the durable list. A
// nil Client makes it a plain pass-through.
type Revocations struct {
	Store  Store
	Client *redis.Client
	Now    func() time.Time
}

func (c *Revocations) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func key(jti string) string { return keyPrefix + jti }

// Revoke writes the durable record first, then caches the jti until the
// token would have expired anyway.
func (c *Revocations) Revoke(ctx context.Context, jti string, kind tokens.Kind, expiresAt time.Time) error {
	if err := c.Store.Revoke(ctx, jti, kind, expiresAt); err != nil {
		return err
	}
	if c.Client == nil {
		return nil
	}
	ttl := expiresAt.Sub(c.now())
	if ttl <= 0 {
		return nil
	}
	if err := c.Client.Set(ctx, key(jti), string(kind), ttl).Err(); err != nil {
		logging.FromContext(ctx).Warn("revocation_cache_set_failed", "jti", jti, "error", err)
	}
	return nil
}

// IsRevoked answers from Redis when it has the key and falls back to
// the store on a miss or any cache error.
func (c *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if c.Client != nil {
		n, err := c.Client.Exists(ctx, key(jti)).Result()
		if err == nil && n > 0 {
			return true, nil
		}
		if err != nil {
			logging.FromContext(ctx).Warn("revocation_cache_get_failed", "jti", jti, "error", err)
		}
	}
	return c.Store.IsRevoked(ctx, jti)
}
