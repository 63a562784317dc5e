package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/claritytasks/backend/repository"
	taskUC "github.com/claritytasks/backend/usecase/task"
)

// SweeperConfig holds the cron expressions for the two periodic passes.
type SweeperConfig struct {
	// SweepSchedule flips stale pending tasks to overdue. Defaults to
	// local midnight, when the calendar day actually changes.
	SweepSchedule string
	// RefreshSchedule recomputes the daysOverdue counters. A shorter
	// period than the sweep keeps the displayed age fresh.
	RefreshSchedule string
}

// Sweeper drives the overdue status sweep and the overdue-day refresh on a
// cron scheduler. Both passes are idempotent, so an extra run is harmless.
type Sweeper struct {
	engine *taskUC.Engine
	tasks  repository.TaskRepository
	cron   *cron.Cron
	logger *zap.Logger
}

func NewSweeper(engine *taskUC.Engine, tasks repository.TaskRepository, cfg SweeperConfig, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = "@midnight"
	}
	if cfg.RefreshSchedule == "" {
		cfg.RefreshSchedule = "@hourly"
	}

	s := &Sweeper{
		engine: engine,
		tasks:  tasks,
		cron:   cron.New(),
		logger: logger,
	}

	if _, err := s.cron.AddFunc(cfg.SweepSchedule, s.sweepAll); err != nil {
		logger.Error("invalid sweep schedule", zap.String("schedule", cfg.SweepSchedule), zap.Error(err))
	}
	if _, err := s.cron.AddFunc(cfg.RefreshSchedule, s.refreshAll); err != nil {
		logger.Error("invalid refresh schedule", zap.String("schedule", cfg.RefreshSchedule), zap.Error(err))
	}

	return s
}

// Start launches the scheduler and runs one immediate pass so tasks that
// went stale while the service was down are corrected right away.
func (s *Sweeper) Start() {
	go func() {
		s.sweepAll()
		s.refreshAll()
	}()
	s.cron.Start()
	s.logger.Info("overdue sweeper started")
}

// Stop cancels the pending timers and waits for an in-flight pass to end.
func (s *Sweeper) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("overdue sweeper stopped")
}

func (s *Sweeper) sweepAll() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	owners, err := s.tasks.Owners(ctx)
	if err != nil {
		s.logger.Error("overdue sweep: listing owners failed", zap.Error(err))
		return
	}

	total := 0
	for _, owner := range owners {
		flipped, err := s.engine.RunOverdueSweep(ctx, owner)
		if err != nil {
			s.logger.Warn("overdue sweep failed for owner",
				zap.String("owner", owner), zap.Error(err))
			continue
		}
		total += flipped
	}
	if total > 0 {
		s.logger.Info("overdue sweep finished", zap.Int("tasks_flipped", total))
	}
}

func (s *Sweeper) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	owners, err := s.tasks.Owners(ctx)
	if err != nil {
		s.logger.Error("overdue refresh: listing owners failed", zap.Error(err))
		return
	}

	total := 0
	for _, owner := range owners {
		refreshed, err := s.engine.RefreshOverdueDays(ctx, owner)
		if err != nil {
			s.logger.Warn("overdue day refresh failed for owner",
				zap.String("owner", owner), zap.Error(err))
			continue
		}
		total += refreshed
	}
	if total > 0 {
		s.logger.Info("overdue day refresh finished", zap.Int("tasks_refreshed", total))
	}
}
