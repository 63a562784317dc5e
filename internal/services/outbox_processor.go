package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/internal/infrastructure/outbox"
	"github.com/claritytasks/backend/repository"
	"github.com/claritytasks/backend/usecase"
)

// ConnectionHealth abstracts the connection monitor.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxProcessor replays buffered task writes against the primary store
// once it is reachable, then nudges the change hub so derived state
// (scores, caches) converges on the drained result.
type OutboxProcessor struct {
	store    *outbox.Store
	monitor  ConnectionHealth
	taskRepo repository.TaskRepository
	notifier usecase.ChangeNotifier
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      ProcessorConfig
}

func NewOutboxProcessor(
	store *outbox.Store,
	monitor ConnectionHealth,
	taskRepo repository.TaskRepository,
	notifier usecase.ChangeNotifier,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *OutboxProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &OutboxProcessor{
		store:    store,
		monitor:  monitor,
		taskRepo: taskRepo,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = p.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := p.Drain(ctx); err != nil {
			p.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return p
}

// Start launches the drain scheduler.
func (p *OutboxProcessor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("outbox processor started")
}

// Stop gracefully stops the scheduler.
func (p *OutboxProcessor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	p.logger.Info("outbox processor stopped")
}

// Drain replays queued items synchronously.
func (p *OutboxProcessor) Drain(ctx context.Context) error {
	if p == nil || p.store == nil {
		return nil
	}
	if p.monitor != nil && !p.monitor.IsOnline() {
		p.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := p.store.GetBatch(p.cfg.BatchSize)
	if err != nil {
		return err
	}

	replayed := map[string]bool{}
	for _, item := range items {
		if err := p.replay(ctx, item); err != nil {
			p.logger.Error("failed to replay outbox item",
				zap.String("item_id", item.ID),
				zap.String("operation", item.Operation),
				zap.Error(err))

			item.Retries++
			if item.Retries >= p.cfg.MaxRetries {
				p.logger.Warn("dropping outbox item (max retries reached)", zap.String("item_id", item.ID))
				_ = p.store.Remove(item)
				continue
			}

			if err := p.store.Remove(item); err != nil {
				p.logger.Warn("failed to remove outbox item", zap.Error(err))
			}
			if err := p.store.Requeue(item); err != nil {
				p.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			continue
		}

		if err := p.store.Remove(item); err != nil {
			p.logger.Warn("failed to purge replayed outbox item", zap.Error(err))
		}
		replayed[item.Owner] = true
	}

	if p.notifier != nil {
		for owner := range replayed {
			p.notifier.NotifyTaskChange(owner)
		}
	}
	return nil
}

// Size returns the number of queued items.
func (p *OutboxProcessor) Size() int {
	if p == nil || p.store == nil {
		return 0
	}
	size, err := p.store.Size()
	if err != nil {
		return 0
	}
	return size
}

// Enqueue attempts the operation immediately and falls back to persisting it.
func (p *OutboxProcessor) Enqueue(ctx context.Context, item outbox.Item) error {
	if p == nil || p.store == nil {
		return fmt.Errorf("outbox processor not configured")
	}

	if p.monitor == nil || p.monitor.IsOnline() {
		if err := p.replay(ctx, item); err == nil {
			return nil
		} else {
			p.logger.Warn("immediate replay failed, queueing", zap.Error(err))
		}
	}
	return p.store.Enqueue(item)
}

func (p *OutboxProcessor) replay(ctx context.Context, item outbox.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Operation {
	case usecase.OperationDelete:
		if err := p.taskRepo.Delete(ctx, item.TaskID); err != nil {
			// The row being gone already is the desired end state.
			if domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return nil
			}
			return err
		}
		return nil

	case usecase.OperationCreate, usecase.OperationUpdate:
		var task domain.Task
		if err := json.Unmarshal(item.Payload, &task); err != nil {
			return err
		}
		if item.Operation == usecase.OperationCreate {
			_, err := p.taskRepo.Create(ctx, &task)
			return err
		}
		return p.taskRepo.Update(ctx, &task)

	default:
		return fmt.Errorf("unsupported operation %s", item.Operation)
	}
}
