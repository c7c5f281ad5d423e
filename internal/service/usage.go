package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"go.uber.org/zap"
)

const usageUpdateTimeout = 5 * time.Second

// DirectUsageRecorder updates last_used_at from a background goroutine. It is
// used when no task queue is configured.
type DirectUsageRecorder struct {
	repo   apikey.Repository
	logger *zap.Logger
}

func NewDirectUsageRecorder(repo apikey.Repository, logger *zap.Logger) *DirectUsageRecorder {
	return &DirectUsageRecorder{
		repo:   repo,
		logger: logger.Named("DirectUsageRecorder"),
	}
}

var _ UsageRecorder = (*DirectUsageRecorder)(nil)

func (r *DirectUsageRecorder) RecordUse(_ context.Context, keyID uuid.UUID, usedAt time.Time) error {
	go func(id uuid.UUID, at time.Time) {
		ctx, cancel := context.WithTimeout(context.Background(), usageUpdateTimeout)
		defer cancel()
		if err := r.repo.UpdateLastUsed(ctx, id, at); err != nil {
			r.logger.Error("Failed to update API key last used time asynchronously", zap.String("key_id", id.String()), zap.Error(err))
		}
	}(keyID, usedAt)
	return nil
}
