package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claritytasks/backend/domain"
	"github.com/claritytasks/backend/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, owner, title, description, category, links, due_date, status, pinned, days_overdue, activities, sub_tasks, created_at, completed_at`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	// NULLIF turns a zero limit into LIMIT NULL, i.e. no limit: the scoring
	// replay and the sweep must see the whole set, not the newest 500 rows.
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR owner = $1)
	  AND ($2 = '' OR status = $2)
	ORDER BY created_at DESC
	LIMIT NULLIF($3, 0) OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, filter.Owner, string(filter.Status), clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Owners(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT owner FROM tasks ORDER BY owner`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, owner, title, description, category, links, due_date, status, pinned, days_overdue, activities, sub_tasks)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Owner,
		task.Title,
		task.Description,
		string(task.Category),
		marshalJSON(task.Links),
		nullDate(task.DueDate),
		string(task.Status),
		task.Pinned,
		task.DaysOverdue,
		marshalJSON(task.Activities),
		marshalJSON(task.SubTasks),
	).Scan(&task.CreatedAt); err != nil {
		return nil, storageErr(err)
	}

	return task, nil
}

// Update rewrites every mutable column in one statement so a partial write
// can never be observed.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		category = $4,
		links = $5,
		due_date = $6,
		status = $7,
		pinned = $8,
		days_overdue = $9,
		activities = $10,
		sub_tasks = $11,
		completed_at = $12
	WHERE id = $1
	RETURNING id
	`

	var id string
	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Category),
		marshalJSON(task.Links),
		nullDate(task.DueDate),
		string(task.Status),
		task.Pinned,
		task.DaysOverdue,
		marshalJSON(task.Activities),
		marshalJSON(task.SubTasks),
		nullDate(task.CompletedAt),
	).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return storageErr(err)
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return storageErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		category    string
		status      string
		links       []byte
		activities  []byte
		subTasks    []byte
		due         *time.Time
		completedAt *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.Owner,
		&task.Title,
		&task.Description,
		&category,
		&links,
		&due,
		&status,
		&task.Pinned,
		&task.DaysOverdue,
		&activities,
		&subTasks,
		&task.CreatedAt,
		&completedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, storageErr(err)
	}

	task.Category = domain.Category(category)
	task.Status = domain.TaskStatus(status)
	task.DueDate = due
	task.CompletedAt = completedAt
	unmarshalJSON(links, &task.Links)
	unmarshalJSON(activities, &task.Activities)
	unmarshalJSON(subTasks, &task.SubTasks)

	return &task, nil
}

// clampLimit bounds caller-supplied page sizes. Zero (or negative) means
// unbounded so internal full-set reads are never silently truncated.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 0
	}
	if limit > 500 {
		return 500
	}
	return limit
}
