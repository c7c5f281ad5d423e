package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// UsageEnqueuer hands last-used updates to the asynq worker instead of
// writing them on the request path.
type UsageEnqueuer struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewUsageEnqueuer(client *asynq.Client, logger *zap.Logger) *UsageEnqueuer {
	return &UsageEnqueuer{
		client: client,
		logger: logger.Named("UsageEnqueuer"),
	}
}

func (e *UsageEnqueuer) RecordUse(ctx context.Context, keyID uuid.UUID, usedAt time.Time) error {
	task, err := NewTouchAPIKeyTask(keyID, usedAt)
	if err != nil {
		return fmt.Errorf("build touch task: %w", err)
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue touch task: %w", err)
	}

	e.logger.Debug("Enqueued api key touch task", zap.String("task_id", info.ID), zap.String("key_id", keyID.String()))
	return nil
}
