package handlers

import (
	"context"
	"taskManager/internal/dto"
	"taskManager/internal/models/task"
)

// Service is what the HTTP layer needs from the task service. Errors are *service.BusinessError.
type Service interface {
	HealthCheck(ctx context.Context) error
	GetAllTasks(ctx context.Context) ([]dto.TaskResponse, error)
	GetPagedTasks(ctx context.Context, params task.QueryParameters) (*task.PaginatedResult[dto.TaskResponse], error)
	GetTaskByID(ctx context.Context, id int64) (*dto.TaskResponse, error)
	CreateTask(ctx context.Context, req dto.CreateTaskRequest) (*dto.TaskResponse, error)
	UpdateTask(ctx context.Context, id int64, req dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	DeleteTask(ctx context.Context, id int64) error
	GetStatistics(ctx context.Context) (*dto.StatisticsResponse, error)
}
