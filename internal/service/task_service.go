package service

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/dto"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Every exported method returns either a value or a *BusinessError, never a raw store error.

const resourceTask = "task"

type TaskService struct {
	repo TaskRepository
	now  func() time.Time
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for due-date validation.
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) (err error) {
	defer recoverInternal("health check", &err)

	if err := s.repo.HealthCheck(ctx); err != nil {
		return NewInternal("health check failed", err)
	}
	return nil
}

func (s *TaskService) GetAllTasks(ctx context.Context) (res []dto.TaskResponse, err error) {
	defer recoverInternal("get all tasks", &err)

	tasks, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, internal("failed to fetch tasks", err)
	}
	return dto.FromTaskList(tasks), nil
}

func (s *TaskService) GetPagedTasks(ctx context.Context, params task.QueryParameters) (res *task.PaginatedResult[dto.TaskResponse], err error) {
	defer recoverInternal("get paged tasks", &err)

	page, err := s.repo.GetPaged(ctx, params.Normalize())
	if err != nil {
		return nil, internal("failed to fetch paged tasks", err)
	}
	return task.MapPage(page, func(t *task.Task) dto.TaskResponse { return dto.FromTask(t) }), nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id int64) (res *dto.TaskResponse, err error) {
	defer recoverInternal("get task", &err)

	if id <= 0 {
		return nil, invalidID(id)
	}

	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal("failed to fetch task", err)
	}
	if found == nil {
		logger.Info("Service: task not found", zap.Int64("task_id", id))
		return nil, NewNotFound(resourceTask, id)
	}

	response := dto.FromTask(found)
	return &response, nil
}

func (s *TaskService) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (res *dto.TaskResponse, err error) {
	defer recoverInternal("create task", &err)

	if fields := ValidateCreate(req, s.now()); fields != nil {
		logger.Info("Service: create rejected by validation", zap.Any("fields", fields))
		return nil, NewValidationError("validation failed", fields)
	}

	newTask := req.ToTask()
	actor := ActorFromContext(ctx)
	newTask.CreatedBy = actor
	newTask.UpdatedBy = actor

	created, err := s.repo.Create(ctx, newTask)
	if err != nil {
		return nil, internal("failed to create task", err)
	}

	logger.Info("Service: task created", zap.Int64("task_id", created.ID))
	response := dto.FromTask(created)
	return &response, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id int64, req dto.UpdateTaskRequest) (res *dto.TaskResponse, err error) {
	defer recoverInternal("update task", &err)

	if id != req.ID {
		return nil, NewValidationError("the id in the path does not match the id in the request body",
			map[string][]string{"id": {"id mismatch"}})
	}
	if fields := ValidateUpdate(req, s.now()); fields != nil {
		logger.Info("Service: update rejected by validation",
			zap.Int64("task_id", id), zap.Any("fields", fields))
		return nil, NewValidationError("validation failed", fields)
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal("failed to fetch task", err)
	}
	if existing == nil {
		logger.Info("Service: task not found", zap.Int64("task_id", id))
		return nil, NewNotFound(resourceTask, id)
	}

	existing.Apply(req.Options()...)
	existing.UpdatedBy = ActorFromContext(ctx)

	updated, err := s.repo.Update(ctx, existing)
	if errors.Is(err, repo.ErrConcurrencyConflict) {
		logger.Warn("Service: concurrency conflict", zap.Int64("task_id", id))
		return nil, NewConcurrencyError(err)
	}
	if err != nil {
		return nil, internal("failed to update task", err)
	}
	// deleted between the read and the write
	if updated == nil {
		return nil, NewNotFound(resourceTask, id)
	}

	response := dto.FromTask(updated)
	return &response, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) (err error) {
	defer recoverInternal("delete task", &err)

	if id <= 0 {
		return invalidID(id)
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return internal("failed to delete task", err)
	}
	if !deleted {
		return NewNotFound(resourceTask, id)
	}

	logger.Info("Service: task deleted", zap.Int64("task_id", id))
	return nil
}

// GetStatistics runs the independent counts concurrently.
func (s *TaskService) GetStatistics(ctx context.Context) (res *dto.StatisticsResponse, err error) {
	defer recoverInternal("get statistics", &err)

	var stats task.Statistics
	g, gctx := errgroup.WithContext(ctx)

	counts := []struct {
		dst *int
		fn  func(context.Context) (int, error)
	}{
		{&stats.Total, s.repo.CountAll},
		{&stats.Completed, s.repo.CountCompleted},
		{&stats.Pending, s.repo.CountPending},
		{&stats.UrgentActive, s.repo.CountUrgentActive},
	}
	for _, c := range counts {
		g.Go(func() error {
			n, err := c.fn(gctx)
			*c.dst = n
			return err
		})
	}
	g.Go(func() (err error) {
		stats.ByCategory, err = s.repo.CountByCategory(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ByPriority, err = s.repo.CountByPriority(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, internal("failed to compute statistics", err)
	}

	response := dto.FromStatistics(stats)
	return &response, nil
}

func invalidID(id int64) *BusinessError {
	return NewValidationError("invalid task id",
		map[string][]string{"id": {fmt.Sprintf("id must be greater than 0, got %d", id)}})
}

func internal(message string, err error) *BusinessError {
	logger.Error("Service: "+message, err)
	return NewInternal(message, err)
}

func recoverInternal(op string, err *error) {
	if r := recover(); r != nil {
		logger.Error("Service: recovered panic", nil, zap.String("operation", op), zap.Any("panic", r))
		*err = NewInternal(op+" failed", fmt.Errorf("panic: %v", r))
	}
}
