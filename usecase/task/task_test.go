package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/repository"
)

// fakeTaskRepo is an in-memory TaskRepository that also counts writes so
// sweep idempotence can be asserted.
type fakeTaskRepo struct {
	mu           sync.Mutex
	tasks        map[string]domain.Task
	updates      int
	fail         error
	failUpdateID string
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]domain.Task)}
}

func (f *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	copy := t
	return &copy, nil
}

func (f *fakeTaskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	var out []domain.Task
	for _, t := range f.tasks {
		if filter.Owner != "" && t.Owner != filter.Owner {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTaskRepo) Owners(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var owners []string
	for _, t := range f.tasks {
		if !seen[t.Owner] {
			seen[t.Owner] = true
			owners = append(owners, t.Owner)
		}
	}
	return owners, nil
}

func (f *fakeTaskRepo) Create(_ context.Context, t *domain.Task) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedAt = time.Now()
	f.tasks[t.ID] = *t
	return t, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, t *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if f.failUpdateID != "" && t.ID == f.failUpdateID {
		return domain.NewError(domain.ErrCodeInternal, "write rejected")
	}
	if _, ok := f.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	f.updates++
	f.tasks[t.ID] = *t
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	if _, ok := f.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
}

func (n *countingNotifier) NotifyTaskChange(string) {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
}

var testNow = time.Date(2026, 6, 10, 15, 30, 0, 0, time.UTC) // a Wednesday

func newTestEngine(repo *fakeTaskRepo) (*Engine, *countingNotifier) {
	notifier := &countingNotifier{}
	eng := New(repo, nil, notifier, nil)
	eng.Now = func() time.Time { return testNow }
	return eng, notifier
}

func dayPtr(offset int) *time.Time {
	d := time.Date(2026, 6, 10+offset, 0, 0, 0, 0, time.UTC)
	return &d
}

const owner = "jane.doe@example.com"

func TestCreateStatusRule(t *testing.T) {
	cases := []struct {
		name string
		due  *time.Time
		want domain.TaskStatus
	}{
		{"no due date", nil, domain.StatusPending},
		{"due today", dayPtr(0), domain.StatusPending},
		{"due tomorrow", dayPtr(1), domain.StatusPending},
		{"due yesterday", dayPtr(-1), domain.StatusOverdue},
		{"long overdue", dayPtr(-9), domain.StatusOverdue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng, _ := newTestEngine(newFakeTaskRepo())
			created, err := eng.Create(context.Background(), owner, CreateInput{Title: "t", DueDate: tc.due})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if created.Status != tc.want {
				t.Fatalf("status = %q, want %q", created.Status, tc.want)
			}
			if tc.want == domain.StatusOverdue && created.DaysOverdue <= 0 {
				t.Fatalf("DaysOverdue = %d, want > 0", created.DaysOverdue)
			}
			if tc.want == domain.StatusPending && created.DaysOverdue != 0 {
				t.Fatalf("DaysOverdue = %d, want 0", created.DaysOverdue)
			}
		})
	}
}

func TestCreateValidation(t *testing.T) {
	eng, _ := newTestEngine(newFakeTaskRepo())
	if _, err := eng.Create(context.Background(), owner, CreateInput{Title: "   "}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("blank title: expected INVALID, got %v", err)
	}
	if _, err := eng.Create(context.Background(), "", CreateInput{Title: "x"}); !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("missing owner: expected UNAUTHORIZED, got %v", err)
	}

	created, err := eng.Create(context.Background(), owner, CreateInput{Title: "x"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Category != domain.CategoryNone {
		t.Fatalf("category = %q, want %q", created.Category, domain.CategoryNone)
	}
}

func TestEditRecomputesStatus(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(newFakeTaskRepo())

	created, err := eng.Create(ctx, owner, CreateInput{Title: "t", DueDate: dayPtr(-3)})
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != domain.StatusOverdue {
		t.Fatalf("precondition: want overdue, got %q", created.Status)
	}

	// Pushing the due date forward clears overdue state.
	edited, err := eng.Edit(ctx, owner, created.ID, EditInput{Title: "t", DueDate: dayPtr(3)})
	if err != nil {
		t.Fatal(err)
	}
	if edited.Status != domain.StatusPending || edited.DaysOverdue != 0 {
		t.Fatalf("after edit: status=%q daysOverdue=%d, want pending/0", edited.Status, edited.DaysOverdue)
	}

	// Pulling it back makes the task overdue again.
	edited, err = eng.Edit(ctx, owner, created.ID, EditInput{Title: "t", DueDate: dayPtr(-2)})
	if err != nil {
		t.Fatal(err)
	}
	if edited.Status != domain.StatusOverdue || edited.DaysOverdue != 2 {
		t.Fatalf("after edit back: status=%q daysOverdue=%d, want overdue/2", edited.Status, edited.DaysOverdue)
	}
}

func TestEditLatchKeepsInProgress(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(newFakeTaskRepo())

	created, _ := eng.Create(ctx, owner, CreateInput{Title: "t", DueDate: dayPtr(2)})
	if _, err := eng.AddActivity(ctx, owner, created.ID, "started research"); err != nil {
		t.Fatal(err)
	}

	// Editing a task with activity history must not reset it to pending.
	edited, err := eng.Edit(ctx, owner, created.ID, EditInput{Title: "t2", DueDate: dayPtr(5)})
	if err != nil {
		t.Fatal(err)
	}
	if edited.Status != domain.StatusInProgress {
		t.Fatalf("status = %q, want inProgress", edited.Status)
	}
}

func TestEditDoesNotReopenDoneTask(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(newFakeTaskRepo())

	created, _ := eng.Create(ctx, owner, CreateInput{Title: "t"})
	done, err := eng.MarkDone(ctx, owner, created.ID)
	if err != nil {
		t.Fatal(err)
	}

	edited, err := eng.Edit(ctx, owner, created.ID, EditInput{Title: "renamed", DueDate: dayPtr(-5)})
	if err != nil {
		t.Fatal(err)
	}
	if edited.Status != domain.StatusDone {
		t.Fatalf("editing a done task changed status to %q", edited.Status)
	}
	if edited.CompletedAt == nil || !edited.CompletedAt.Equal(*done.CompletedAt) {
		t.Fatalf("editing a done task disturbed CompletedAt")
	}
	if edited.Title != "renamed" {
		t.Fatalf("field edit was not applied")
	}
}

func TestAddActivityLatch(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(newFakeTaskRepo())

	created, _ := eng.Create(ctx, owner, CreateInput{Title: "t", DueDate: dayPtr(1)})
	updated, err := eng.AddActivity(ctx, owner, created.ID, "first step")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != domain.StatusInProgress {
		t.Fatalf("status = %q, want inProgress", updated.Status)
	}
	if len(updated.Activities) != 1 || updated.Activities[0].Text != "first step" {
		t.Fatalf("activity not appended: %+v", updated.Activities)
	}
	if !updated.Activities[0].Timestamp.Equal(testNow) {
		t.Fatalf("activity timestamp = %v, want engine clock", updated.Activities[0].Timestamp)
	}

	// A done task stays done.
	doneTask, _ := eng.Create(ctx, owner, CreateInput{Title: "d"})
	if _, err := eng.MarkDone(ctx, owner, doneTask.ID); err != nil {
		t.Fatal(err)
	}
	after, err := eng.AddActivity(ctx, owner, doneTask.ID, "note")
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != domain.StatusDone {
		t.Fatalf("activity reopened a done task: %q", after.Status)
	}

	if _, err := eng.AddActivity(ctx, owner, created.ID, "  "); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("blank activity: expected INVALID, got %v", err)
	}
}

func TestMarkDoneFromAnyState(t *testing.T) {
	ctx := context.Background()
	for _, due := range []*time.Time{nil, dayPtr(-4), dayPtr(4)} {
		eng, _ := newTestEngine(newFakeTaskRepo())
		created, _ := eng.Create(ctx, owner, CreateInput{Title: "t", DueDate: due})
		done, err := eng.MarkDone(ctx, owner, created.ID)
		if err != nil {
			t.Fatal(err)
		}
		if done.Status != domain.StatusDone || done.CompletedAt == nil {
			t.Fatalf("markDone: status=%q completedAt=%v", done.Status, done.CompletedAt)
		}
		// Idempotent in final state.
		again, err := eng.MarkDone(ctx, owner, created.ID)
		if err != nil {
			t.Fatal(err)
		}
		if again.Status != domain.StatusDone || again.CompletedAt == nil {
			t.Fatalf("second markDone changed final state")
		}
	}
}

func TestTogglePinLeavesStatusAlone(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(newFakeTaskRepo())

	created, _ := eng.Create(ctx, owner, CreateInput{Title: "t", DueDate: dayPtr(-1)})
	pinned, err := eng.TogglePin(ctx, owner, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !pinned.Pinned || pinned.Status != domain.StatusOverdue {
		t.Fatalf("togglePin: pinned=%v status=%q", pinned.Pinned, pinned.Status)
	}
	unpinned, _ := eng.TogglePin(ctx, owner, created.ID)
	if unpinned.Pinned {
		t.Fatalf("second toggle should unpin")
	}
}

func TestSubtasksDoNotAffectParentStatus(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(newFakeTaskRepo())

	created, _ := eng.Create(ctx, owner, CreateInput{Title: "t", DueDate: dayPtr(2)})
	withSub, err := eng.AddSubtask(ctx, owner, created.ID, "step one")
	if err != nil {
		t.Fatal(err)
	}
	if len(withSub.SubTasks) != 1 || withSub.Status != domain.StatusPending {
		t.Fatalf("addSubtask: subtasks=%d status=%q", len(withSub.SubTasks), withSub.Status)
	}

	toggled, err := eng.ToggleSubtask(ctx, owner, created.ID, withSub.SubTasks[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if !toggled.SubTasks[0].Done || toggled.Status != domain.StatusPending {
		t.Fatalf("toggleSubtask: done=%v status=%q", toggled.SubTasks[0].Done, toggled.Status)
	}

	if _, err := eng.ToggleSubtask(ctx, owner, created.ID, "missing"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("toggling unknown subtask: expected NOT_FOUND, got %v", err)
	}

	removed, err := eng.DeleteSubtask(ctx, owner, created.ID, withSub.SubTasks[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed.SubTasks) != 0 {
		t.Fatalf("deleteSubtask left %d entries", len(removed.SubTasks))
	}
}

func TestOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(newFakeTaskRepo())

	created, _ := eng.Create(ctx, owner, CreateInput{Title: "t"})
	intruder := "mallory@x.com"

	if _, err := eng.Edit(ctx, intruder, created.ID, EditInput{Title: "hijack"}); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("edit by non-owner: expected FORBIDDEN, got %v", err)
	}
	if _, err := eng.MarkDone(ctx, intruder, created.ID); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("markDone by non-owner: expected FORBIDDEN, got %v", err)
	}
	if err := eng.Delete(ctx, intruder, created.ID); !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("delete by non-owner: expected FORBIDDEN, got %v", err)
	}
}

func TestDeleteRemovesTask(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	eng, _ := newTestEngine(repo)

	created, _ := eng.Create(ctx, owner, CreateInput{Title: "t"})
	if err := eng.Delete(ctx, owner, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Get(ctx, owner, created.ID); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Fatalf("deleted task still readable: %v", err)
	}
	tasks, _ := eng.List(ctx, owner, "")
	if len(tasks) != 0 {
		t.Fatalf("deleted task still listed")
	}
}

func TestOverdueSweep(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	eng, _ := newTestEngine(repo)

	stale, _ := eng.Create(ctx, owner, CreateInput{Title: "stale", DueDate: dayPtr(1)})
	fresh, _ := eng.Create(ctx, owner, CreateInput{Title: "fresh", DueDate: dayPtr(2)})
	undated, _ := eng.Create(ctx, owner, CreateInput{Title: "undated"})
	inProg, _ := eng.Create(ctx, owner, CreateInput{Title: "active", DueDate: dayPtr(1)})
	if _, err := eng.AddActivity(ctx, owner, inProg.ID, "working"); err != nil {
		t.Fatal(err)
	}

	// Two days pass: "stale" and "active" are now past due.
	eng.Now = func() time.Time { return testNow.AddDate(0, 0, 2) }

	flipped, err := eng.RunOverdueSweep(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if flipped != 1 {
		t.Fatalf("flipped = %d, want 1", flipped)
	}

	assertStatus := func(id string, want domain.TaskStatus) {
		t.Helper()
		got, err := eng.Get(ctx, owner, id)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != want {
			t.Fatalf("task %s: status=%q, want %q", id, got.Status, want)
		}
	}
	assertStatus(stale.ID, domain.StatusOverdue)
	assertStatus(fresh.ID, domain.StatusPending)
	assertStatus(undated.ID, domain.StatusPending)
	// The sweep never touches inProgress tasks.
	assertStatus(inProg.ID, domain.StatusInProgress)

	swept, _ := eng.Get(ctx, owner, stale.ID)
	if swept.DaysOverdue != 1 {
		t.Fatalf("DaysOverdue = %d, want 1", swept.DaysOverdue)
	}

	// Re-running on an unchanged set issues no writes.
	before := repo.updates
	flipped, err = eng.RunOverdueSweep(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if flipped != 0 || repo.updates != before {
		t.Fatalf("second sweep not idempotent: flipped=%d writes=%d", flipped, repo.updates-before)
	}
}

func TestRefreshOverdueDays(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	eng, _ := newTestEngine(repo)

	created, _ := eng.Create(ctx, owner, CreateInput{Title: "late", DueDate: dayPtr(-1)})
	if created.DaysOverdue != 1 {
		t.Fatalf("precondition: DaysOverdue=%d, want 1", created.DaysOverdue)
	}

	// Three more days pass.
	eng.Now = func() time.Time { return testNow.AddDate(0, 0, 3) }

	refreshed, err := eng.RefreshOverdueDays(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if refreshed != 1 {
		t.Fatalf("refreshed = %d, want 1", refreshed)
	}
	got, _ := eng.Get(ctx, owner, created.ID)
	if got.DaysOverdue != 4 {
		t.Fatalf("DaysOverdue = %d, want 4", got.DaysOverdue)
	}

	// Same day: nothing moves, nothing is written.
	before := repo.updates
	refreshed, _ = eng.RefreshOverdueDays(ctx, owner)
	if refreshed != 0 || repo.updates != before {
		t.Fatalf("refresh not idempotent within a day")
	}
}

func TestCreateDueTodayAcrossTimezones(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(newFakeTaskRepo())

	// Bare dates from clients parse at UTC midnight; the engine clock runs
	// west of UTC, where that instant is still the previous evening.
	zone := time.FixedZone("UTC-5", -5*60*60)
	eng.Now = func() time.Time { return time.Date(2026, 6, 10, 9, 0, 0, 0, zone) }

	dueToday := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	created, err := eng.Create(ctx, owner, CreateInput{Title: "t", DueDate: &dueToday})
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != domain.StatusPending {
		t.Fatalf("task due today classified %q, want pending", created.Status)
	}

	dueYesterday := time.Date(2026, 6, 9, 0, 0, 0, 0, time.UTC)
	created, err = eng.Create(ctx, owner, CreateInput{Title: "t", DueDate: &dueYesterday})
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != domain.StatusOverdue || created.DaysOverdue != 1 {
		t.Fatalf("task due yesterday: status=%q daysOverdue=%d, want overdue/1", created.Status, created.DaysOverdue)
	}
}

func TestOverdueSweepSkipsFailingTask(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	eng, _ := newTestEngine(repo)

	bad, _ := eng.Create(ctx, owner, CreateInput{Title: "bad", DueDate: dayPtr(1)})
	good, _ := eng.Create(ctx, owner, CreateInput{Title: "good", DueDate: dayPtr(1)})

	eng.Now = func() time.Time { return testNow.AddDate(0, 0, 2) }
	repo.failUpdateID = bad.ID

	// One bad row must not abort the pass or mask the successful flip.
	flipped, err := eng.RunOverdueSweep(ctx, owner)
	if err != nil {
		t.Fatalf("sweep returned error despite skip contract: %v", err)
	}
	if flipped != 1 {
		t.Fatalf("flipped = %d, want 1", flipped)
	}

	gotGood, _ := eng.Get(ctx, owner, good.ID)
	if gotGood.Status != domain.StatusOverdue {
		t.Fatalf("healthy task not flipped: %q", gotGood.Status)
	}
	gotBad, _ := eng.Get(ctx, owner, bad.ID)
	if gotBad.Status != domain.StatusPending {
		t.Fatalf("failing task should keep its stored status, got %q", gotBad.Status)
	}

	// Once the write path recovers, the next pass picks the task up.
	repo.failUpdateID = ""
	flipped, err = eng.RunOverdueSweep(ctx, owner)
	if err != nil || flipped != 1 {
		t.Fatalf("recovery sweep: flipped=%d err=%v, want 1/nil", flipped, err)
	}
}

func TestRefreshOverdueDaysSkipsFailingTask(t *testing.T) {
	ctx := context.Background()
	repo := newFakeTaskRepo()
	eng, _ := newTestEngine(repo)

	bad, _ := eng.Create(ctx, owner, CreateInput{Title: "bad", DueDate: dayPtr(-1)})
	good, _ := eng.Create(ctx, owner, CreateInput{Title: "good", DueDate: dayPtr(-1)})

	eng.Now = func() time.Time { return testNow.AddDate(0, 0, 3) }
	repo.failUpdateID = bad.ID

	refreshed, err := eng.RefreshOverdueDays(ctx, owner)
	if err != nil {
		t.Fatalf("refresh returned error despite skip contract: %v", err)
	}
	if refreshed != 1 {
		t.Fatalf("refreshed = %d, want 1", refreshed)
	}
	gotGood, _ := eng.Get(ctx, owner, good.ID)
	if gotGood.DaysOverdue != 4 {
		t.Fatalf("healthy task DaysOverdue = %d, want 4", gotGood.DaysOverdue)
	}
	gotBad, _ := eng.Get(ctx, owner, bad.ID)
	if gotBad.DaysOverdue != 1 {
		t.Fatalf("failing task DaysOverdue = %d, want stored 1", gotBad.DaysOverdue)
	}
}

func TestListDueToday(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(newFakeTaskRepo())

	today, _ := eng.Create(ctx, owner, CreateInput{Title: "today", DueDate: dayPtr(0)})
	if _, err := eng.Create(ctx, owner, CreateInput{Title: "tomorrow", DueDate: dayPtr(1)}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Create(ctx, owner, CreateInput{Title: "undated"}); err != nil {
		t.Fatal(err)
	}

	due, err := eng.ListDueToday(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != today.ID {
		t.Fatalf("due today = %+v, want only %q", due, today.ID)
	}
}

func TestMutationsNotifyChangeHub(t *testing.T) {
	ctx := context.Background()
	eng, notifier := newTestEngine(newFakeTaskRepo())

	created, _ := eng.Create(ctx, owner, CreateInput{Title: "t"})
	if _, err := eng.MarkDone(ctx, owner, created.ID); err != nil {
		t.Fatal(err)
	}
	if err := eng.Delete(ctx, owner, created.ID); err != nil {
		t.Fatal(err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if notifier.count != 3 {
		t.Fatalf("notifications = %d, want 3", notifier.count)
	}
}
