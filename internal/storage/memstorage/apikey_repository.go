package memstorage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
)

// APIKeyRepository keeps api keys in process memory. It enforces the same
// ownership filters and key uniqueness as the postgres table.
type APIKeyRepository struct {
	mu    sync.RWMutex
	keys  map[uuid.UUID]*apikey.APIKey
	byKey map[string]uuid.UUID
	now   func() time.Time
}

func NewAPIKeyRepository() *APIKeyRepository {
	return &APIKeyRepository{
		keys:  make(map[uuid.UUID]*apikey.APIKey),
		byKey: make(map[string]uuid.UUID),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

var _ apikey.Repository = (*APIKeyRepository)(nil)

func (r *APIKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]*apikey.APIKey, 0)
	for _, k := range r.keys {
		if k.UserID == userID {
			keys = append(keys, copyKey(k))
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (r *APIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) (*apikey.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[key.Key]; exists {
		return nil, apikey.ErrDuplicateAPIKey
	}

	created := &apikey.APIKey{
		ID:        uuid.New(),
		UserID:    key.UserID,
		Name:      key.Name,
		Key:       key.Key,
		CreatedAt: key.CreatedAt,
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = r.now()
	}

	r.keys[created.ID] = created
	r.byKey[created.Key] = created.ID
	return copyKey(created), nil
}

func (r *APIKeyRepository) UpdateName(ctx context.Context, id, userID uuid.UUID, name string) (*apikey.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[id]
	if !ok || k.UserID != userID {
		return nil, apikey.ErrAPIKeyNotFound
	}
	k.Name = name
	return copyKey(k), nil
}

func (r *APIKeyRepository) Delete(ctx context.Context, id, userID uuid.UUID) (*apikey.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[id]
	if !ok || k.UserID != userID {
		return nil, apikey.ErrAPIKeyNotFound
	}
	delete(r.keys, id)
	delete(r.byKey, k.Key)
	return copyKey(k), nil
}

func (r *APIKeyRepository) FindByKey(ctx context.Context, key string) (*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[key]
	if !ok {
		return nil, apikey.ErrAPIKeyNotFound
	}
	return copyKey(r.keys[id]), nil
}

func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, lastUsed time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[id]
	if !ok {
		return nil
	}
	t := lastUsed
	k.LastUsedAt = &t
	return nil
}

func copyKey(k *apikey.APIKey) *apikey.APIKey {
	c := *k
	if k.LastUsedAt != nil {
		t := *k.LastUsedAt
		c.LastUsedAt = &t
	}
	return &c
}
