package task

import "time"

// TaskOption mutates a task in place; nil options are skipped by Apply.
type TaskOption func(*Task)

func (t *Task) Apply(opts ...TaskOption) {
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
}

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description *string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

// WithPriority ignores the unset zero value.
func WithPriority(priority Priority) TaskOption {
	if priority == 0 {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithCategory(category Category) TaskOption {
	if category == 0 {
		return nil
	}
	return func(task *Task) {
		task.Category = category
	}
}

func WithDueDate(dueDate *time.Time) TaskOption {
	return func(task *Task) {
		task.DueDate = dueDate
	}
}

func WithTags(tags []string) TaskOption {
	return func(task *Task) {
		task.Tags = append([]string{}, tags...)
	}
}

func WithAssignedTo(assignedTo *string) TaskOption {
	return func(task *Task) {
		task.AssignedTo = assignedTo
	}
}

func WithCompleted(completed bool) TaskOption {
	return func(task *Task) {
		task.Completed = completed
	}
}

// WithConcurrencyToken replaces the token the store compares against; empty keeps the fetched one.
func WithConcurrencyToken(token *string) TaskOption {
	if token == nil || *token == "" {
		return nil
	}
	return func(task *Task) {
		task.ConcurrencyToken = *token
	}
}
