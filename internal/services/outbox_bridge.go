package services

import (
	"context"
	"encoding/json"

	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/internal/infrastructure/outbox"
	"github.com/claritytasks/backend/usecase"
)

// OutboxBridge adapts the processor to the usecase.OperationOutbox port.
type OutboxBridge struct {
	processor *OutboxProcessor
}

func NewOutboxBridge(processor *OutboxProcessor) *OutboxBridge {
	return &OutboxBridge{processor: processor}
}

func (b *OutboxBridge) BufferTask(ctx context.Context, operation string, task *domain.Task) error {
	if b.processor == nil || task == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	item := outbox.Item{
		TaskID:    task.ID,
		Owner:     task.Owner,
		Operation: operation,
		Payload:   payload,
	}
	return b.processor.Enqueue(ctx, item)
}

var _ usecase.OperationOutbox = (*OutboxBridge)(nil)
