package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/config"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/makkenzo/apikey-dashboard/internal/storage/memstorage"
	"github.com/makkenzo/apikey-dashboard/internal/tasks"
	"go.uber.org/zap"
)

func TestServeMuxRoutesTouchTasks(t *testing.T) {
	ctx := context.Background()
	repo := memstorage.NewAPIKeyRepository()
	k, err := repo.Create(ctx, &apikey.APIKey{UserID: uuid.New(), Name: "a", Key: "a"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	usedAt := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	task, err := tasks.NewTouchAPIKeyTask(k.ID, usedAt)
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	if err := NewServeMux(repo, zap.NewNop()).ProcessTask(ctx, task); err != nil {
		t.Fatalf("process: %v", err)
	}

	found, _ := repo.FindByKey(ctx, "a")
	if found.LastUsedAt == nil || !found.LastUsedAt.Equal(usedAt) {
		t.Fatalf("expected last_used_at %v, got %v", usedAt, found.LastUsedAt)
	}
}

func TestRedisConnOpt(t *testing.T) {
	opt := RedisConnOpt(&config.RedisConfig{Addr: "redis:6379", Password: "pw", DB: 2})
	if opt.Addr != "redis:6379" || opt.Password != "pw" || opt.DB != 2 {
		t.Fatalf("unexpected conn opt %+v", opt)
	}
}
