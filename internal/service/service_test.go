package service_test

import (
	"context"
	"errors"
	"taskManager/internal/dto"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/service"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository is a testify mock of the task store.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) GetAll(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) GetPaged(ctx context.Context, params task.QueryParameters) (*task.PaginatedResult[*task.Task], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.PaginatedResult[*task.Task]), args.Error(1)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) (*task.Task, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaskRepository) CountAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) CountCompleted(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) CountPending(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) CountUrgentActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockTaskRepository) CountByCategory(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockTaskRepository) CountByPriority(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newService(r service.TaskRepository) *service.TaskService {
	return service.NewTaskService(r).WithClock(func() time.Time { return fixedNow })
}

func requireCode(t *testing.T, err error, code service.ErrorCode) *service.BusinessError {
	t.Helper()
	require.Error(t, err)
	busErr, ok := service.AsBusinessError(err)
	require.True(t, ok, "expected BusinessError, got %T", err)
	assert.Equal(t, code, busErr.Code)
	return busErr
}

func strPtr(s string) *string { return &s }

func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			err := newService(mockRepo).HealthCheck(context.Background())

			if tt.expectError {
				requireCode(t, err, service.CodeInternal)
			} else {
				assert.NoError(t, err)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success - defaults applied", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
			return tk.Priority == task.PriorityMedium &&
				tk.Category == task.CategoryOther &&
				!tk.Completed &&
				tk.CreatedBy == service.SystemActor
		})).Return(&task.Task{
			ID:       1,
			Title:    "Write report",
			Priority: task.PriorityMedium,
			Category: task.CategoryOther,
			UserID:   "u1",
		}, nil)

		res, err := newService(mockRepo).CreateTask(ctx, dto.CreateTaskRequest{Title: "Write report", UserID: "u1"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), res.ID)
		assert.Equal(t, task.PriorityMedium, res.Priority)
		assert.Equal(t, []string{}, res.Tags)
		mockRepo.AssertExpectations(t)
	})

	t.Run("actor from context", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
			return tk.CreatedBy == "alice" && tk.UpdatedBy == "alice"
		})).Return(&task.Task{ID: 2, CreatedBy: "alice"}, nil)

		res, err := newService(mockRepo).CreateTask(service.WithActor(ctx, "alice"),
			dto.CreateTaskRequest{Title: "t", UserID: "u1"})

		require.NoError(t, err)
		assert.Equal(t, "alice", res.CreatedBy)
		mockRepo.AssertExpectations(t)
	})

	t.Run("validation - empty title", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)

		_, err := newService(mockRepo).CreateTask(ctx, dto.CreateTaskRequest{Title: "", UserID: "u1"})

		busErr := requireCode(t, err, service.CodeValidation)
		assert.Contains(t, busErr.Fields, "title")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("validation - aggregates every field", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		past := fixedNow.AddDate(0, 0, -1)
		tags := make([]string, 11)
		for i := range tags {
			tags[i] = "tag"
		}

		_, err := newService(mockRepo).CreateTask(ctx, dto.CreateTaskRequest{
			Title:    "",
			Priority: task.Priority(9),
			DueDate:  &past,
			Tags:     tags,
		})

		busErr := requireCode(t, err, service.CodeValidation)
		for _, field := range []string{"title", "priority", "dueDate", "tags", "userId"} {
			assert.Contains(t, busErr.Fields, field)
		}
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("due date today is accepted", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		earlierToday := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(&task.Task{ID: 3}, nil)

		_, err := newService(mockRepo).CreateTask(ctx, dto.CreateTaskRequest{Title: "t", UserID: "u", DueDate: &earlierToday})

		assert.NoError(t, err)
	})

	t.Run("store failure maps to internal", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("insert failed"))

		_, err := newService(mockRepo).CreateTask(ctx, dto.CreateTaskRequest{Title: "t", UserID: "u"})

		requireCode(t, err, service.CodeInternal)
	})
}

func TestTaskService_GetTaskByID(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		id        int64
		setupMock func(*MockTaskRepository)
		code      service.ErrorCode
	}{
		{
			name: "success",
			id:   7,
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(7)).Return(&task.Task{ID: 7, Title: "found"}, nil)
			},
		},
		{
			name: "not found",
			id:   7,
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(7)).Return(nil, nil)
			},
			code: service.CodeNotFound,
		},
		{
			name:      "non-positive id",
			id:        0,
			setupMock: func(m *MockTaskRepository) {},
			code:      service.CodeValidation,
		},
		{
			name: "store error",
			id:   7,
			setupMock: func(m *MockTaskRepository) {
				m.On("GetByID", mock.Anything, int64(7)).Return(nil, errors.New("boom"))
			},
			code: service.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			tt.setupMock(mockRepo)

			res, err := newService(mockRepo).GetTaskByID(ctx, tt.id)

			if tt.code != "" {
				requireCode(t, err, tt.code)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "found", res.Title)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestTaskService_UpdateTask(t *testing.T) {
	ctx := context.Background()

	existing := func() *task.Task {
		return &task.Task{
			ID:               5,
			Title:            "Old",
			Priority:         task.PriorityHigh,
			Category:         task.CategoryWork,
			UserID:           "owner",
			CreatedBy:        "creator",
			ConcurrencyToken: "token-1",
		}
	}

	t.Run("id mismatch never reaches the store", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)

		_, err := newService(mockRepo).UpdateTask(ctx, 5, dto.UpdateTaskRequest{ID: 6, Title: "x"})

		requireCode(t, err, service.CodeValidation)
		mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("success - zero enums keep stored values", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(existing(), nil)
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
			return tk.Title == "New" &&
				tk.Priority == task.PriorityHigh &&
				tk.Category == task.CategoryWork &&
				tk.Completed &&
				tk.UserID == "owner" &&
				tk.CreatedBy == "creator" &&
				tk.UpdatedBy == "bob" &&
				tk.ConcurrencyToken == "token-1"
		})).Return(&task.Task{ID: 5, Title: "New", Completed: true, ConcurrencyToken: "token-2"}, nil)

		res, err := newService(mockRepo).UpdateTask(service.WithActor(ctx, "bob"), 5,
			dto.UpdateTaskRequest{ID: 5, Title: "New", Completed: true})

		require.NoError(t, err)
		assert.Equal(t, "New", res.Title)
		assert.Equal(t, "token-2", res.ConcurrencyToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("client token is forwarded", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(existing(), nil)
		mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
			return tk.ConcurrencyToken == "stale"
		})).Return(nil, repo.ErrConcurrencyConflict)

		_, err := newService(mockRepo).UpdateTask(ctx, 5,
			dto.UpdateTaskRequest{ID: 5, Title: "New", ConcurrencyToken: strPtr("stale")})

		busErr := requireCode(t, err, service.CodeConcurrencyError)
		assert.ErrorIs(t, busErr, repo.ErrConcurrencyConflict)
		mockRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(nil, nil)

		_, err := newService(mockRepo).UpdateTask(ctx, 5, dto.UpdateTaskRequest{ID: 5, Title: "New"})

		requireCode(t, err, service.CodeNotFound)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("deleted between read and write", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("GetByID", mock.Anything, int64(5)).Return(existing(), nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := newService(mockRepo).UpdateTask(ctx, 5, dto.UpdateTaskRequest{ID: 5, Title: "New"})

		requireCode(t, err, service.CodeNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)

		_, err := newService(mockRepo).UpdateTask(ctx, 5, dto.UpdateTaskRequest{ID: 5, Title: "   "})

		busErr := requireCode(t, err, service.CodeValidation)
		assert.Contains(t, busErr.Fields, "title")
		mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Delete", mock.Anything, int64(3)).Return(true, nil)

		assert.NoError(t, newService(mockRepo).DeleteTask(ctx, 3))
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("Delete", mock.Anything, int64(3)).Return(false, nil)

		requireCode(t, newService(mockRepo).DeleteTask(ctx, 3), service.CodeNotFound)
	})

	t.Run("negative id", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)

		requireCode(t, newService(mockRepo).DeleteTask(ctx, -1), service.CodeValidation)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestTaskService_GetPagedTasks(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	normalized := task.QueryParameters{PageNumber: 1, PageSize: 100, SortDirection: "asc"}
	mockRepo.On("GetPaged", mock.Anything, normalized).
		Return(task.NewPaginatedResult([]*task.Task{{ID: 1, Title: "a"}}, 1, 1, 100), nil)

	page, err := newService(mockRepo).GetPagedTasks(context.Background(), task.QueryParameters{PageSize: 500})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a", page.Items[0].Title)
	assert.Equal(t, 1, page.TotalPages)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_GetStatistics(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("CountAll", mock.Anything).Return(3, nil)
		mockRepo.On("CountCompleted", mock.Anything).Return(1, nil)
		mockRepo.On("CountPending", mock.Anything).Return(2, nil)
		mockRepo.On("CountUrgentActive", mock.Anything).Return(0, nil)
		mockRepo.On("CountByCategory", mock.Anything).Return(map[string]int{"Work": 3}, nil)
		mockRepo.On("CountByPriority", mock.Anything).Return(map[string]int{"Low": 3}, nil)

		stats, err := newService(mockRepo).GetStatistics(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 1, stats.Completed)
		assert.Equal(t, 2, stats.Pending)
		assert.Equal(t, 0, stats.UrgentActive)
		assert.Equal(t, map[string]int{"Work": 3}, stats.ByCategory)
	})

	t.Run("one failing count fails the whole call", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("CountAll", mock.Anything).Return(3, nil).Maybe()
		mockRepo.On("CountCompleted", mock.Anything).Return(0, errors.New("timeout")).Maybe()
		mockRepo.On("CountPending", mock.Anything).Return(2, nil).Maybe()
		mockRepo.On("CountUrgentActive", mock.Anything).Return(0, nil).Maybe()
		mockRepo.On("CountByCategory", mock.Anything).Return(map[string]int{}, nil).Maybe()
		mockRepo.On("CountByPriority", mock.Anything).Return(map[string]int{}, nil).Maybe()

		_, err := newService(mockRepo).GetStatistics(context.Background())

		requireCode(t, err, service.CodeInternal)
	})
}

func TestTaskService_RecoversPanic(t *testing.T) {
	mockRepo := new(MockTaskRepository)
	mockRepo.On("GetAll", mock.Anything).Panic("driver bug")

	_, err := newService(mockRepo).GetAllTasks(context.Background())

	requireCode(t, err, service.CodeInternal)
}

func TestTaskService_WithInMemoryStore(t *testing.T) {
	ctx := context.Background()
	svc := newService(inmemory.NewTaskStorage())

	created, err := svc.CreateTask(ctx, dto.CreateTaskRequest{Title: "A", UserID: "u1", Priority: task.PriorityUrgent})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, dto.CreateTaskRequest{Title: "B", UserID: "u1"})
	require.NoError(t, err)
	third, err := svc.CreateTask(ctx, dto.CreateTaskRequest{Title: "C", UserID: "u1"})
	require.NoError(t, err)

	_, err = svc.UpdateTask(ctx, third.ID, dto.UpdateTaskRequest{
		ID: third.ID, Title: "C", Completed: true, ConcurrencyToken: &third.ConcurrencyToken,
	})
	require.NoError(t, err)

	// the token from the first read is now stale
	_, err = svc.UpdateTask(ctx, third.ID, dto.UpdateTaskRequest{
		ID: third.ID, Title: "C2", ConcurrencyToken: &third.ConcurrencyToken,
	})
	requireCode(t, err, service.CodeConcurrencyError)

	stats, err := svc.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.UrgentActive)

	require.NoError(t, svc.DeleteTask(ctx, created.ID))
	requireCode(t, svc.DeleteTask(ctx, created.ID), service.CodeNotFound)

	all, err := svc.GetAllTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
