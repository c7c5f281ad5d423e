package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/apikey-dashboard/internal/domain/apikey"
	"github.com/makkenzo/apikey-dashboard/internal/metrics"
	"go.uber.org/zap"
)

type TouchAPIKeyHandler struct {
	repo   apikey.Repository
	logger *zap.Logger
}

func NewTouchAPIKeyHandler(repo apikey.Repository, logger *zap.Logger) *TouchAPIKeyHandler {
	return &TouchAPIKeyHandler{
		repo:   repo,
		logger: logger.Named("TouchAPIKeyHandler"),
	}
}

func (h *TouchAPIKeyHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeAPIKeyTouch {
		return fmt.Errorf("unexpected task type: %s: %w", t.Type(), asynq.SkipRetry)
	}

	var p TouchAPIKeyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal payload for api key touch task", zap.Error(err), zap.ByteString("payload", t.Payload()))
		metrics.UsageTasks.WithLabelValues(metrics.OutcomeFailure).Inc()
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.repo.UpdateLastUsed(ctx, p.KeyID, p.UsedAt); err != nil {
		metrics.UsageTasks.WithLabelValues(metrics.OutcomeFailure).Inc()
		return fmt.Errorf("repository error updating last used: %w", err)
	}

	metrics.UsageTasks.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.logger.Debug("API key last used time updated", zap.String("key_id", p.KeyID.String()))
	return nil
}
