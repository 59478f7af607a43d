package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskStorage struct {
	storage map[int64]*task.Task
	mtx     *sync.RWMutex
	ids     []int64
	nextID  int64
	now     func() time.Time
}

func NewTaskStorage() *TaskStorage {
	return NewTaskStorageWithClock(func() time.Time { return time.Now().UTC() })
}

// NewTaskStorageWithClock lets callers control the timestamps written on create and update.
func NewTaskStorageWithClock(now func() time.Time) *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []int64{},
		now:     now,
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Debug("Repository: in-memory storage is healthy")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) (*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.nextID++
	stored := taskToCreate.Clone()
	stored.ID = s.nextID
	stored.CreatedAt = s.now()
	stored.UpdatedAt = stored.CreatedAt
	stored.ConcurrencyToken = uuid.NewString()

	s.storage[stored.ID] = stored
	s.ids = append(s.ids, stored.ID)
	return stored.Clone(), nil
}

// Update replaces every field except id, userId, createdAt and createdBy.
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) (*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existing, ok := s.storage[taskToUpdate.ID]
	if !ok {
		return nil, nil
	}
	if taskToUpdate.ConcurrencyToken != "" && taskToUpdate.ConcurrencyToken != existing.ConcurrencyToken {
		logger.Warn("Repository: concurrency conflict on update",
			zap.Int64("task_id", taskToUpdate.ID),
			zap.String("expected_token", taskToUpdate.ConcurrencyToken))
		return nil, repo.ErrConcurrencyConflict
	}

	updated := taskToUpdate.Clone()
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.CreatedBy = existing.CreatedBy
	updated.UpdatedAt = s.now()
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		updated.UpdatedAt = updated.CreatedAt
	}
	updated.ConcurrencyToken = uuid.NewString()

	s.storage[updated.ID] = updated
	return updated.Clone(), nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, nil
	}
	return taskToGet.Clone(), nil
}

// Delete is a hard delete; false means the id was absent.
func (s *TaskStorage) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return false, nil
	}
	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return true, nil
}

func (s *TaskStorage) GetAll(ctx context.Context) ([]*task.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, s.storage[id].Clone())
	}
	// newest first, ids break ties
	slices.SortStableFunc(res, func(a, b *task.Task) int {
		if c := compareBy(task.SortByCreatedAt, b, a); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return res, nil
}

func (s *TaskStorage) CountAll(ctx context.Context) (int, error) {
	return s.count(ctx, func(*task.Task) bool { return true })
}

func (s *TaskStorage) CountCompleted(ctx context.Context) (int, error) {
	return s.count(ctx, func(t *task.Task) bool { return t.Completed })
}

func (s *TaskStorage) CountPending(ctx context.Context) (int, error) {
	return s.count(ctx, func(t *task.Task) bool { return !t.Completed })
}

func (s *TaskStorage) CountUrgentActive(ctx context.Context) (int, error) {
	return s.count(ctx, func(t *task.Task) bool {
		return t.Priority == task.PriorityUrgent && !t.Completed
	})
}

func (s *TaskStorage) CountByCategory(ctx context.Context) (map[string]int, error) {
	return s.group(ctx, func(t *task.Task) string { return t.Category.String() })
}

func (s *TaskStorage) CountByPriority(ctx context.Context) (map[string]int, error) {
	return s.group(ctx, func(t *task.Task) string { return t.Priority.String() })
}

func (s *TaskStorage) count(ctx context.Context, pred func(*task.Task) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	n := 0
	for _, t := range s.storage {
		if pred(t) {
			n++
		}
	}
	return n, nil
}

func (s *TaskStorage) group(ctx context.Context, key func(*task.Task) string) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make(map[string]int)
	for _, t := range s.storage {
		res[key(t)]++
	}
	return res, nil
}
