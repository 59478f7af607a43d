package service

import (
	"context"
	"taskManager/internal/models/task"
)

// TaskRepository is the Task Store. Absence is reported as a nil task or false, never as an error.
type TaskRepository interface {
	HealthCheck(ctx context.Context) error

	GetAll(ctx context.Context) ([]*task.Task, error)
	GetPaged(ctx context.Context, params task.QueryParameters) (*task.PaginatedResult[*task.Task], error)
	GetByID(ctx context.Context, id int64) (*task.Task, error)
	Create(ctx context.Context, t *task.Task) (*task.Task, error)
	// Update returns repository.ErrConcurrencyConflict when t carries a stale token.
	Update(ctx context.Context, t *task.Task) (*task.Task, error)
	Delete(ctx context.Context, id int64) (bool, error)

	CountAll(ctx context.Context) (int, error)
	CountCompleted(ctx context.Context) (int, error)
	CountPending(ctx context.Context) (int, error)
	CountUrgentActive(ctx context.Context) (int, error)
	CountByCategory(ctx context.Context) (map[string]int, error)
	CountByPriority(ctx context.Context) (map[string]int, error)
}
