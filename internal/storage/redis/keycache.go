package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/makkenzo/apikey-dashboard/internal/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyCachePrefix = "apikey:valid:"

type cachedKey struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
}

// KeyCache remembers successful store lookups. Entries are addressed by the
// key's sha256 so raw secrets never reach redis.
type KeyCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewKeyCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *KeyCache {
	return &KeyCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("KeyCache"),
	}
}

// Get returns nil on a miss. Decode failures are treated as misses.
func (c *KeyCache) Get(ctx context.Context, key string) (*apikey.APIKey, error) {
	data, err := c.client.Get(ctx, keyCachePrefix+util.HashAPIKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get cached key: %w", err)
	}

	var cached cachedKey
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("Dropping corrupt key cache entry", zap.Error(err))
		return nil, nil
	}

	return &apikey.APIKey{ID: cached.ID, UserID: cached.UserID, Key: key}, nil
}

func (c *KeyCache) Set(ctx context.Context, key *apikey.APIKey) error {
	data, err := json.Marshal(cachedKey{ID: key.ID, UserID: key.UserID})
	if err != nil {
		return fmt.Errorf("marshal cached key: %w", err)
	}
	return c.client.Set(ctx, keyCachePrefix+util.HashAPIKey(key.Key), data, c.ttl).Err()
}

func (c *KeyCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyCachePrefix+util.HashAPIKey(key)).Err()
}
