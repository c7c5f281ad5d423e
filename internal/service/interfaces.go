package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
)

// KeyCache is an optional read-through cache for successful validations.
// Get returns (nil, nil) on a miss.
type KeyCache interface {
	Get(ctx context.Context, key string) (*apikey.APIKey, error)
	Set(ctx context.Context, key *apikey.APIKey) error
	Delete(ctx context.Context, key string) error
}

// UsageRecorder is told about every successful store-lookup validation.
type UsageRecorder interface {
	RecordUse(ctx context.Context, keyID uuid.UUID, usedAt time.Time) error
}

type SessionDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
