package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/makkenzo/apikey-dashboard/internal/ierr"
	"github.com/makkenzo/apikey-dashboard/internal/storage/memstorage"
	"go.uber.org/zap"
)

func TestStoreValidator(t *testing.T) {
	ctx := context.Background()
	repo := memstorage.NewAPIKeyRepository()
	stored, err := repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), Name: "svc", Key: "valid-key"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	cache := newFakeCache()
	usage := &fakeUsage{}
	v := NewStoreValidator(repo, cache, usage, zap.NewNop())

	if err := v.Validate(ctx, "valid-key"); err != nil {
		t.Fatalf("expected stored key to validate, got %v", err)
	}
	if _, ok := cache.entries["valid-key"]; !ok {
		t.Fatal("expected successful validation to populate the cache")
	}
	if len(usage.calls) != 1 || usage.calls[0].keyID != stored.ID {
		t.Fatalf("expected one usage record for %s, got %+v", stored.ID, usage.calls)
	}

	if err := v.Validate(ctx, "wrong-key"); !errors.Is(err, ierr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown key, got %v", err)
	}
	if err := v.Validate(ctx, ""); !errors.Is(err, ierr.ErrValidation) {
		t.Fatalf("expected validation error for empty key, got %v", err)
	}
	if len(usage.calls) != 1 {
		t.Fatalf("rejected keys must not record usage, got %d calls", len(usage.calls))
	}
}

func TestStoreValidatorFallsBackWhenCacheFails(t *testing.T) {
	ctx := context.Background()
	repo := memstorage.NewAPIKeyRepository()
	if _, err := repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), Name: "svc", Key: "valid-key"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	v := NewStoreValidator(repo, cache, nil, zap.NewNop())

	if err := v.Validate(ctx, "valid-key"); err != nil {
		t.Fatalf("expected fallback to the store, got %v", err)
	}
}

func TestStoreValidatorRejectsDeletedKey(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc, repo := newTestKeyService(nil, cache)
	v := NewStoreValidator(repo, cache, nil, zap.NewNop())
	owner := uuid.New()

	created, err := svc.CreateAPIKey(ctx, owner, "short-lived")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := v.Validate(ctx, created.Key); err != nil {
		t.Fatalf("validate before delete: %v", err)
	}
	if err := svc.DeleteAPIKey(ctx, created.ID, owner); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := v.Validate(ctx, created.Key); !errors.Is(err, ierr.ErrUnauthorized) {
		t.Fatalf("expected deleted key to be rejected, got %v", err)
	}
}

func TestStaticSecretValidator(t *testing.T) {
	if _, err := NewStaticSecretValidator("", zap.NewNop()); err == nil {
		t.Fatal("expected an empty secret to be refused")
	}

	v, err := NewStaticSecretValidator("s3cret", zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ctx := context.Background()
	if err := v.Validate(ctx, "s3cret"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := v.Validate(ctx, "s3cre"); !errors.Is(err, ierr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := v.Validate(ctx, ""); !errors.Is(err, ierr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
