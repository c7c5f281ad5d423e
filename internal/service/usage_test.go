package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/makkenzo/apikey-dashboard/internal/storage/memstorage"
	"go.uber.org/zap"
)

func TestDirectUsageRecorderUpdatesLastUsed(t *testing.T) {
	ctx := context.Background()
	repo := memstorage.NewAPIKeyRepository()
	k, err := repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), Name: "a", Key: "a"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	usedAt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := NewDirectUsageRecorder(repo, zap.NewNop()).RecordUse(ctx, k.ID, usedAt); err != nil {
		t.Fatalf("record use: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		found, _ := repo.FindByKey(ctx, "a")
		if found.LastUsedAt != nil && found.LastUsedAt.Equal(usedAt) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("last_used_at was not updated")
}
