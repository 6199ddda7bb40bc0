package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationPrefix = "jwt:revoked:"

// RedisRevocation keeps revoked token IDs in redis until the token would
// have expired anyway.
type RedisRevocation struct {
	client redis.UniversalClient
	clock  clocker
}

func NewRedisRevocation(client redis.UniversalClient, clock clocker) *RedisRevocation {
	return &RedisRevocation{client: client, clock: clock}
}

// Revoke marks jti revoked. A token already past until is not stored.
func (r *RedisRevocation) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := until.Sub(r.clock.Now())
	if ttl <= 0 {
		return nil
	}

	return r.client.Set(ctx, revocationPrefix+jti, 1, ttl).Err()
}

func (r *RedisRevocation) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, revocationPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
