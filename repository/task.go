package repository

import (
	"context"

	"github.com/claritytasks/backend/domain"
)

// TaskFilter narrows List results with equality predicates, mirroring the
// queries the lifecycle engine and aggregator need: per-owner sets and
// per-status slices. An empty field matches everything.
type TaskFilter struct {
	Owner  string
	Status domain.TaskStatus
	Limit  int
	Offset int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// Owners returns the distinct owner identities present in the task
	// collection. The background sweeper iterates these.
	Owners(ctx context.Context) ([]string, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
