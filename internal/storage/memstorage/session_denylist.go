package memstorage

import (
	"context"
	"sync"
	"time"
)

// SessionDenylist records revoked session ids until their expiry.
type SessionDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewSessionDenylist() *SessionDenylist {
	return &SessionDenylist{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (d *SessionDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, exp := range d.revoked {
		if now.After(exp) {
			delete(d.revoked, id)
		}
	}
	d.revoked[tokenID] = now.Add(ttl)
	return nil
}

func (d *SessionDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	exp, ok := d.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if d.now().After(exp) {
		delete(d.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
