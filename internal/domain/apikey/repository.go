package apikey

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAPIKeyNotFound  = errors.New("api key not found")
	ErrDuplicateAPIKey = errors.New("api key value already exists")
)

// Repository is the contract over the api_keys table. Every mutating call
// that takes a userID must filter by both id and user_id.
type Repository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*APIKey, error)
	Create(ctx context.Context, key *APIKey) (*APIKey, error)
	UpdateName(ctx context.Context, id, userID uuid.UUID, name string) (*APIKey, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (*APIKey, error)
	FindByKey(ctx context.Context, key string) (*APIKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID, lastUsed time.Time) error
}
