package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "session:revoked:"

// SessionDenylist stores revoked session token ids until they would have
// expired anyway.
type SessionDenylist struct {
	client *redis.Client
}

func NewSessionDenylist(client *redis.Client) *SessionDenylist {
	return &SessionDenylist{client: client}
}

func (d *SessionDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis revoke session: %w", err)
	}
	return nil
}

func (d *SessionDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis check revoked session: %w", err)
	}
	return n > 0, nil
}
