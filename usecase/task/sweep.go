package task

import (
	"context"

	"go.uber.org/zap"

	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/repository"
)

// RunOverdueSweep promotes the owner's stale pending tasks to overdue.
// Tasks without a due date are never swept, and inProgress/done/overdue
// tasks are left alone. Each flip is an independent single-row update;
// failures are logged and skipped so one bad task cannot stall the pass.
// Returns the number of tasks flipped.
func (e *Engine) RunOverdueSweep(ctx context.Context, owner string) (int, error) {
	if owner == "" {
		return 0, domain.ErrUnauthorized
	}

	pending, err := e.tasks.List(ctx, repository.TaskFilter{Owner: owner, Status: domain.StatusPending})
	if err != nil {
		return 0, err
	}

	today := e.today()
	flipped := 0
	for i := range pending {
		t := &pending[i]
		if statusForDueDate(t.DueDate, today) != domain.StatusOverdue {
			continue
		}
		t.Status = domain.StatusOverdue
		t.DaysOverdue = overdueDays(t.DueDate, today)
		if err := e.tasks.Update(ctx, t); err != nil {
			e.logger.Warn("overdue sweep update failed",
				zap.String("task_id", t.ID),
				zap.Error(err))
			continue
		}
		flipped++
	}

	if flipped > 0 {
		e.notify(owner)
	}
	return flipped, nil
}

// RefreshOverdueDays recomputes the cached daysOverdue counter on the
// owner's overdue tasks, writing only rows whose value actually moved. This
// keeps the displayed "N days overdue" accurate without a page reload.
func (e *Engine) RefreshOverdueDays(ctx context.Context, owner string) (int, error) {
	if owner == "" {
		return 0, domain.ErrUnauthorized
	}

	overdue, err := e.tasks.List(ctx, repository.TaskFilter{Owner: owner, Status: domain.StatusOverdue})
	if err != nil {
		return 0, err
	}

	today := e.today()
	refreshed := 0
	for i := range overdue {
		t := &overdue[i]
		days := overdueDays(t.DueDate, today)
		if days == t.DaysOverdue {
			continue
		}
		t.DaysOverdue = days
		if err := e.tasks.Update(ctx, t); err != nil {
			e.logger.Warn("overdue day refresh failed",
				zap.String("task_id", t.ID),
				zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}
