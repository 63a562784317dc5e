package task

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/repository"
	"github.com/claritytasks/backend/usecase"
)

// Engine owns the task lifecycle: it derives the status field through every
// mutation path and exposes the periodic overdue sweep. All operations take
// the acting owner and reject writes against another user's tasks before
// touching storage.
type Engine struct {
	tasks    repository.TaskRepository
	outbox   usecase.OperationOutbox
	notifier usecase.ChangeNotifier
	logger   *zap.Logger

	// Now is the engine clock, overridable in tests.
	Now func() time.Time
}

func New(tasks repository.TaskRepository, outbox usecase.OperationOutbox, notifier usecase.ChangeNotifier, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tasks:    tasks,
		outbox:   outbox,
		notifier: notifier,
		logger:   logger,
		Now:      time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) today() time.Time {
	return startOfDay(e.now())
}

// CreateInput carries the user-editable fields of a task.
type CreateInput struct {
	Title       string
	Description string
	Category    domain.Category
	Links       []string
	DueDate     *time.Time
}

// EditInput is a full replacement of the user-editable fields, matching the
// details form: every field is written, status is recomputed.
type EditInput = CreateInput

func (e *Engine) Create(ctx context.Context, owner string, in CreateInput) (*domain.Task, error) {
	if owner == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.ErrEmptyTitle
	}

	category := in.Category
	if category == "" {
		category = domain.CategoryNone
	}

	today := e.today()
	t := &domain.Task{
		ID:          uuid.NewString(),
		Owner:       owner,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Category:    category,
		Links:       in.Links,
		DueDate:     in.DueDate,
		Status:      statusForDueDate(in.DueDate, today),
	}
	if t.Status == domain.StatusOverdue {
		t.DaysOverdue = overdueDays(in.DueDate, today)
	}

	created, err := e.tasks.Create(ctx, t)
	if err != nil {
		if e.shouldBuffer(ctx, usecase.OperationCreate, t, err) {
			return t, nil
		}
		return nil, err
	}
	e.notify(owner)
	return created, nil
}

func (e *Engine) Get(ctx context.Context, owner, id string) (*domain.Task, error) {
	return e.loadOwned(ctx, owner, id)
}

// List returns the owner's tasks, optionally narrowed to one status, in
// presentation order (pinned first, then due date or completion time).
func (e *Engine) List(ctx context.Context, owner string, status domain.TaskStatus) ([]domain.Task, error) {
	if owner == "" {
		return nil, domain.ErrUnauthorized
	}
	if status != "" && !status.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "unknown task status filter")
	}
	tasks, err := e.tasks.List(ctx, repository.TaskFilter{Owner: owner, Status: status})
	if err != nil {
		return nil, err
	}
	domain.SortTasks(tasks)
	return tasks, nil
}

// ListDueToday narrows the owner's tasks to those due on the current
// calendar day, matching the dashboard's "today" filter. Undated tasks are
// excluded.
func (e *Engine) ListDueToday(ctx context.Context, owner string) ([]domain.Task, error) {
	tasks, err := e.List(ctx, owner, "")
	if err != nil {
		return nil, err
	}
	today := e.today()
	kept := tasks[:0]
	for _, t := range tasks {
		if t.DueDate != nil && dueDay(*t.DueDate, today.Location()).Equal(today) {
			kept = append(kept, t)
		}
	}
	return kept, nil
}

// Edit applies the details form: every user-editable field is replaced and
// status is recomputed from the (possibly new) due date. A task with
// activity history is promoted to inProgress rather than reset to pending.
// Done tasks keep their status and completion time; only the fields change.
func (e *Engine) Edit(ctx context.Context, owner, id string, in EditInput) (*domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.ErrEmptyTitle
	}

	t, err := e.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	t.Title = strings.TrimSpace(in.Title)
	t.Description = in.Description
	t.Links = in.Links
	t.DueDate = in.DueDate
	if in.Category != "" {
		t.Category = in.Category
	}

	if !t.IsDone() {
		today := e.today()
		switch statusForDueDate(in.DueDate, today) {
		case domain.StatusOverdue:
			t.Status = domain.StatusOverdue
			t.DaysOverdue = overdueDays(in.DueDate, today)
		default:
			t.DaysOverdue = 0
			if t.HasActivity() {
				t.Status = domain.StatusInProgress
			} else {
				t.Status = domain.StatusPending
			}
		}
	}

	return e.persist(ctx, t)
}

// MarkDone completes the task from any state. Repeating it refreshes the
// completion timestamp but changes nothing else.
func (e *Engine) MarkDone(ctx context.Context, owner, id string) (*domain.Task, error) {
	t, err := e.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	completedAt := e.now()
	t.Status = domain.StatusDone
	t.CompletedAt = &completedAt

	return e.persist(ctx, t)
}

// AddActivity appends a log entry and latches the task into inProgress
// unless it is already done.
func (e *Engine) AddActivity(ctx context.Context, owner, id, text string) (*domain.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "activity text is required")
	}

	t, err := e.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	t.Activities = append(t.Activities, domain.Activity{
		Text:      strings.TrimSpace(text),
		Timestamp: e.now(),
	})
	if !t.IsDone() {
		t.Status = domain.StatusInProgress
	}

	return e.persist(ctx, t)
}

// TogglePin flips the pin flag and nothing else.
func (e *Engine) TogglePin(ctx context.Context, owner, id string) (*domain.Task, error) {
	t, err := e.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	t.Pinned = !t.Pinned
	return e.persist(ctx, t)
}

// Delete removes the task permanently. Confirmation is a UI concern; the
// engine imposes no precondition.
func (e *Engine) Delete(ctx context.Context, owner, id string) error {
	t, err := e.loadOwned(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := e.tasks.Delete(ctx, id); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return err
		}
		if e.shouldBuffer(ctx, usecase.OperationDelete, t, err) {
			return nil
		}
		return err
	}
	e.notify(owner)
	return nil
}

func (e *Engine) AddSubtask(ctx context.Context, owner, id, text string) (*domain.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "subtask text is required")
	}

	t, err := e.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	t.SubTasks = append(t.SubTasks, domain.SubTask{
		ID:   uuid.NewString(),
		Text: strings.TrimSpace(text),
	})
	return e.persist(ctx, t)
}

func (e *Engine) ToggleSubtask(ctx context.Context, owner, id, subTaskID string) (*domain.Task, error) {
	t, err := e.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range t.SubTasks {
		if t.SubTasks[i].ID == subTaskID {
			t.SubTasks[i].Done = !t.SubTasks[i].Done
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrSubTaskNotFound
	}
	return e.persist(ctx, t)
}

func (e *Engine) DeleteSubtask(ctx context.Context, owner, id, subTaskID string) (*domain.Task, error) {
	t, err := e.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	kept := t.SubTasks[:0]
	found := false
	for _, st := range t.SubTasks {
		if st.ID == subTaskID {
			found = true
			continue
		}
		kept = append(kept, st)
	}
	if !found {
		return nil, domain.ErrSubTaskNotFound
	}
	t.SubTasks = kept
	return e.persist(ctx, t)
}

func (e *Engine) loadOwned(ctx context.Context, owner, id string) (*domain.Task, error) {
	if owner == "" {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.ErrInvalidPayload
	}
	t, err := e.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Owner != owner {
		return nil, domain.ErrNotTaskOwner
	}
	return t, nil
}

func (e *Engine) persist(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	if err := e.tasks.Update(ctx, t); err != nil {
		if e.shouldBuffer(ctx, usecase.OperationUpdate, t, err) {
			return t, nil
		}
		return nil, err
	}
	e.notify(t.Owner)
	return t, nil
}

// shouldBuffer parks a failed write in the offline outbox when the cause is
// a storage outage rather than a domain rejection.
func (e *Engine) shouldBuffer(ctx context.Context, operation string, t *domain.Task, cause error) bool {
	if e.outbox == nil || !domain.IsDomainError(cause, domain.ErrCodeUnavailable) {
		return false
	}
	if err := e.outbox.BufferTask(ctx, operation, t); err != nil {
		e.logger.Error("failed to buffer task operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	e.logger.Warn("task operation buffered",
		zap.String("operation", operation),
		zap.String("task_id", t.ID))
	return true
}

func (e *Engine) notify(owner string) {
	if e.notifier != nil {
		e.notifier.NotifyTaskChange(owner)
	}
}
