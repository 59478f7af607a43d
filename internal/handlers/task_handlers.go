package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"taskManager/internal/dto"
	"taskManager/internal/logger"
	"taskManager/internal/service"
	"time"

	"go.uber.org/zap"
)

const (
	serviceName    = "task-manager"
	ServiceVersion = "1.0.0"

	maxBodyBytes = 1 << 20
)

type TaskHandler struct {
	TaskService    Service
	repositoryType string
}

func NewTaskHandler(taskService Service, repositoryType string) *TaskHandler {
	return &TaskHandler{
		TaskService:    taskService,
		repositoryType: repositoryType,
	}
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	params, errs := parseQueryParameters(r.URL.Query())
	if errs != nil {
		logger.Warn("HTTP: malformed query parameters",
			zap.Any("fields", errs),
			zap.String("client_ip", r.RemoteAddr))
		handleServiceError(w, r, service.NewValidationError("malformed query parameters", errs), "get_tasks")
		return
	}

	page, err := h.TaskService.GetPagedTasks(r.Context(), params)
	if err != nil {
		handleServiceError(w, r, err, "get_tasks")
		return
	}

	logger.Info("HTTP_OUT: tasks fetched",
		zap.Int("count", len(page.Items)),
		zap.Int("total", page.TotalCount),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, page)
}

func (h *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.TaskService.GetAllTasks(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "get_all_tasks")
		return
	}
	responseWithJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.TaskService.GetStatistics(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "get_statistics")
		return
	}
	responseWithJSON(w, http.StatusOK, stats)
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idFromPath(w, r, "get_task")
	if !ok {
		return
	}

	task, err := h.TaskService.GetTaskByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	responseWithJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.CreateTaskRequest
	if !h.decodeJSON(w, r, &request) {
		return
	}

	created, err := h.TaskService.CreateTask(r.Context(), request)
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: task created",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	w.Header().Set("Location", "/tasks/"+strconv.FormatInt(created.ID, 10))
	responseWithJSON(w, http.StatusCreated, created)
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := h.idFromPath(w, r, "update_task")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !h.decodeJSON(w, r, &request) {
		return
	}

	updated, err := h.TaskService.UpdateTask(r.Context(), id, request)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: task updated",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, updated)
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idFromPath(w, r, "delete_task")
	if !ok {
		return
	}

	if err := h.TaskService.DeleteTask(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: task deleted",
		zap.Int64("task_id", id),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: health check failed", err)
		responseWithPayload(w, http.StatusServiceUnavailable,
			toPayload("status", "unavailable"),
			toPayload("service", serviceName))
		return
	}
	responseWithPayload(w, http.StatusOK,
		toPayload("status", "ok"),
		toPayload("service", serviceName))
}

func (h *TaskHandler) HealthCheckDetailed(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	var storeErr string
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: detailed health check failed", err)
		status, code = "unavailable", http.StatusServiceUnavailable
		storeErr = err.Error()
	}

	payload := []Payload{
		toPayload("status", status),
		toPayload("service", serviceName),
		toPayload("version", ServiceVersion),
		toPayload("repository", h.repositoryType),
		toPayload("timestamp", time.Now().UTC()),
	}
	if storeErr != "" {
		payload = append(payload, toPayload("error", storeErr))
	}
	responseWithPayload(w, code, payload...)
}

func (h *TaskHandler) idFromPath(w http.ResponseWriter, r *http.Request, operation string) (int64, bool) {
	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: malformed id",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		handleServiceError(w, r,
			service.NewValidationError("malformed task id", map[string][]string{"id": {err.Error()}}),
			operation)
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: unsupported content type",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, r, http.StatusUnsupportedMediaType, "UnsupportedMediaType",
			"Content-Type must be application/json")
		return false
	}

	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		logger.Warn("HTTP: failed to read JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, r, http.StatusBadRequest, string(service.CodeValidation),
			"invalid request body: "+err.Error())
		return false
	}
	return true
}
