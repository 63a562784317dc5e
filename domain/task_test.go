package domain

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"pending", "inProgress", "overdue", "done"} {
		if _, err := ParseStatus(valid); err != nil {
			t.Errorf("ParseStatus(%q): unexpected error %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "Pending", "in_progress", "complete"} {
		if _, err := ParseStatus(invalid); !IsDomainError(err, ErrCodeInvalid) {
			t.Errorf("ParseStatus(%q): expected INVALID, got %v", invalid, err)
		}
	}
}

func TestParseCategoryDefaults(t *testing.T) {
	got, err := ParseCategory("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != CategoryNone {
		t.Fatalf("empty category should normalize to %q, got %q", CategoryNone, got)
	}
	if _, err := ParseCategory("chores"); !IsDomainError(err, ErrCodeInvalid) {
		t.Fatalf("expected INVALID for unknown category, got %v", err)
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestSortTasks(t *testing.T) {
	done1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	done2 := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)

	tasks := []Task{
		{ID: "b", Status: StatusPending, DueDate: date(2026, 3, 10)},
		{ID: "a", Status: StatusPending, DueDate: date(2026, 3, 2)},
		{ID: "pin", Status: StatusPending, Pinned: true, DueDate: date(2026, 3, 20)},
		{ID: "nodue", Status: StatusPending},
	}
	SortTasks(tasks)
	wantOrder := []string{"pin", "nodue", "a", "b"}
	for i, want := range wantOrder {
		if tasks[i].ID != want {
			t.Fatalf("position %d: want %q, got %q (full: %+v)", i, want, tasks[i].ID, ids(tasks))
		}
	}

	doneTasks := []Task{
		{ID: "older", Status: StatusDone, CompletedAt: &done1},
		{ID: "newer", Status: StatusDone, CompletedAt: &done2},
		{ID: "unknown", Status: StatusDone},
	}
	SortTasks(doneTasks)
	if doneTasks[0].ID != "newer" || doneTasks[1].ID != "older" || doneTasks[2].ID != "unknown" {
		t.Fatalf("done ordering wrong: %v", ids(doneTasks))
	}
}

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}
