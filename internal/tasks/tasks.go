package tasks

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeAPIKeyTouch = "apikey:touch"

	QueueUsage = "usage"
)

type TouchAPIKeyPayload struct {
	KeyID  uuid.UUID `json:"key_id"`
	UsedAt time.Time `json:"used_at"`
}

func NewTouchAPIKeyTask(keyID uuid.UUID, usedAt time.Time, opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(TouchAPIKeyPayload{KeyID: keyID, UsedAt: usedAt})
	if err != nil {
		return nil, err
	}

	allOpts := append([]asynq.Option{
		asynq.Queue(QueueUsage),
		asynq.MaxRetry(3),
		asynq.Timeout(10 * time.Second),
	}, opts...)

	return asynq.NewTask(TypeAPIKeyTouch, payloadBytes, allOpts...), nil
}
