package dto

import (
	"taskManager/internal/models/task"
	"time"
)

type CreateTaskRequest struct {
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
	Category    task.Category `json:"category,omitempty"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	AssignedTo  *string       `json:"assignedTo,omitempty"`
	UserID      string        `json:"userId"`
}

// UpdateTaskRequest replaces the client-owned fields of a task. A zero Priority or Category
// keeps the stored value.
type UpdateTaskRequest struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Description      *string       `json:"description,omitempty"`
	Priority         task.Priority `json:"priority,omitempty"`
	Category         task.Category `json:"category,omitempty"`
	DueDate          *time.Time    `json:"dueDate,omitempty"`
	Tags             []string      `json:"tags,omitempty"`
	AssignedTo       *string       `json:"assignedTo,omitempty"`
	Completed        bool          `json:"completed"`
	ConcurrencyToken *string       `json:"concurrencyToken,omitempty"`
}

type TaskResponse struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Description      *string       `json:"description,omitempty"`
	Priority         task.Priority `json:"priority"`
	Category         task.Category `json:"category"`
	DueDate          *time.Time    `json:"dueDate,omitempty"`
	Tags             []string      `json:"tags"`
	AssignedTo       *string       `json:"assignedTo,omitempty"`
	UserID           string        `json:"userId"`
	Completed        bool          `json:"completed"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
	CreatedBy        string        `json:"createdBy,omitempty"`
	UpdatedBy        string        `json:"updatedBy,omitempty"`
	ConcurrencyToken string        `json:"concurrencyToken,omitempty"`
}

type StatisticsResponse struct {
	Total        int            `json:"total"`
	Completed    int            `json:"completed"`
	Pending      int            `json:"pending"`
	UrgentActive int            `json:"urgentActive"`
	ByCategory   map[string]int `json:"byCategory,omitempty"`
	ByPriority   map[string]int `json:"byPriority,omitempty"`
}

// ToTask maps a create request onto a new entity. Server-owned fields stay zero.
func (r CreateTaskRequest) ToTask() *task.Task {
	t := &task.Task{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Category:    r.Category,
		DueDate:     r.DueDate,
		Tags:        append([]string{}, r.Tags...),
		AssignedTo:  r.AssignedTo,
		UserID:      r.UserID,
		Completed:   false,
	}
	if t.Priority == 0 {
		t.Priority = task.PriorityMedium
	}
	if t.Category == 0 {
		t.Category = task.CategoryOther
	}
	return t
}

// Options lists the mutations an update applies; id, userId and audit fields are never touched.
func (r UpdateTaskRequest) Options() []task.TaskOption {
	return []task.TaskOption{
		task.WithTitle(r.Title),
		task.WithDescription(r.Description),
		task.WithPriority(r.Priority),
		task.WithCategory(r.Category),
		task.WithDueDate(r.DueDate),
		task.WithTags(r.Tags),
		task.WithAssignedTo(r.AssignedTo),
		task.WithCompleted(r.Completed),
		task.WithConcurrencyToken(r.ConcurrencyToken),
	}
}

func FromTask(t *task.Task) TaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return TaskResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Priority:         t.Priority,
		Category:         t.Category,
		DueDate:          t.DueDate,
		Tags:             tags,
		AssignedTo:       t.AssignedTo,
		UserID:           t.UserID,
		Completed:        t.Completed,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		CreatedBy:        t.CreatedBy,
		UpdatedBy:        t.UpdatedBy,
		ConcurrencyToken: t.ConcurrencyToken,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

func FromStatistics(s task.Statistics) StatisticsResponse {
	return StatisticsResponse{
		Total:        s.Total,
		Completed:    s.Completed,
		Pending:      s.Pending,
		UrgentActive: s.UrgentActive,
		ByCategory:   s.ByCategory,
		ByPriority:   s.ByPriority,
	}
}
