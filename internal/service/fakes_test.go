package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*apikey.APIKey
	deleted []string
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*apikey.APIKey)}
}

func (c *fakeCache) Get(ctx context.Context, key string) (*apikey.APIKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[key], nil
}

func (c *fakeCache) Set(ctx context.Context, k *apikey.APIKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k.Key] = k
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.deleted = append(c.deleted, key)
	return nil
}

type usageCall struct {
	keyID  uuid.UUID
	usedAt time.Time
}

type fakeUsage struct {
	mu    sync.Mutex
	calls []usageCall
}

func (u *fakeUsage) RecordUse(ctx context.Context, keyID uuid.UUID, usedAt time.Time) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, usageCall{keyID: keyID, usedAt: usedAt})
	return nil
}

// sequenceGenerator returns the given keys in order, then repeats the last.
func sequenceGenerator(keys ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		k := keys[i]
		if i < len(keys)-1 {
			i++
		}
		return k, nil
	}
}
