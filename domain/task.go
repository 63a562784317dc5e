package domain

import (
	"fmt"
	"sort"
	"time"
)

// TaskStatus is the closed set of lifecycle states a task can be in.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "inProgress"
	StatusOverdue    TaskStatus = "overdue"
	StatusDone       TaskStatus = "done"
)

// ParseStatus validates a wire-level status string.
func ParseStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case StatusPending, StatusInProgress, StatusOverdue, StatusDone:
		return TaskStatus(s), nil
	}
	return "", NewError(ErrCodeInvalid, fmt.Sprintf("unknown task status %q", s))
}

// Valid reports whether the status is one of the four lifecycle states.
func (s TaskStatus) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

// Category classifies a task for filtering. The zero value normalizes to CategoryNone.
type Category string

const (
	CategoryWork          Category = "work"
	CategoryPersonal      Category = "personal"
	CategoryWorkout       Category = "workout"
	CategoryEntertainment Category = "entertainment"
	CategoryDaily         Category = "daily"
	CategoryNone          Category = "no category"
)

// ParseCategory maps a wire-level category string onto the closed set.
// The empty string is accepted and normalized to CategoryNone.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryNone, nil
	}
	switch Category(s) {
	case CategoryWork, CategoryPersonal, CategoryWorkout, CategoryEntertainment, CategoryDaily, CategoryNone:
		return Category(s), nil
	}
	return "", NewError(ErrCodeInvalid, fmt.Sprintf("unknown category %q", s))
}

// Activity is a single append-only log entry on a task. Adding one promotes
// a pending task to inProgress.
type Activity struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// SubTask is an independently toggleable checklist item. Subtask state never
// feeds back into the parent task's status.
type SubTask struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Task is the central entity: a user-owned item whose status is derived from
// its due date, activity history and explicit user actions.
type Task struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    Category   `json:"category"`
	Links       []string   `json:"links,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      TaskStatus `json:"status"`
	Pinned      bool       `json:"pinned"`
	DaysOverdue int        `json:"days_overdue"`
	Activities  []Activity `json:"activities,omitempty"`
	SubTasks    []SubTask  `json:"sub_tasks,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (t *Task) IsDone() bool {
	return t != nil && t.Status == StatusDone
}

// HasActivity reports whether the task carries at least one activity entry,
// which latches pending tasks into inProgress.
func (t *Task) HasActivity() bool {
	return t != nil && len(t.Activities) > 0
}

// SortTasks orders a task list for presentation: pinned tasks first, then
// done tasks by completion time (newest first) and everything else by due
// date with undated tasks leading.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.Status == StatusDone && b.Status == StatusDone {
			switch {
			case a.CompletedAt != nil && b.CompletedAt != nil:
				return a.CompletedAt.After(*b.CompletedAt)
			case a.CompletedAt != nil:
				return true
			default:
				return false
			}
		}
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return false
		case a.DueDate == nil:
			return true
		case b.DueDate == nil:
			return false
		}
		return a.DueDate.Before(*b.DueDate)
	})
}
