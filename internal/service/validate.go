package service

import (
	"fmt"
	"strings"
	"taskManager/internal/dto"
	"taskManager/internal/models/task"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	maxTags              = 10
	maxTagLength         = 50
	maxAssignedToLength  = 100
	maxUserIDLength      = 100
)

// validationErrors groups messages by field name, keeping insertion order per field.
type validationErrors map[string][]string

func (v validationErrors) add(field, format string, args ...any) {
	v[field] = append(v[field], fmt.Sprintf(format, args...))
}

// rule inspects one request and records zero or more violations.
type rule[T any] func(req T, today time.Time, errs validationErrors)

var createRules = []rule[dto.CreateTaskRequest]{
	func(r dto.CreateTaskRequest, _ time.Time, e validationErrors) { checkTitle(r.Title, e) },
	func(r dto.CreateTaskRequest, _ time.Time, e validationErrors) { checkDescription(r.Description, e) },
	func(r dto.CreateTaskRequest, _ time.Time, e validationErrors) { checkEnums(r.Priority, r.Category, e) },
	func(r dto.CreateTaskRequest, today time.Time, e validationErrors) { checkDueDate(r.DueDate, today, e) },
	func(r dto.CreateTaskRequest, _ time.Time, e validationErrors) { checkTags(r.Tags, e) },
	func(r dto.CreateTaskRequest, _ time.Time, e validationErrors) { checkAssignedTo(r.AssignedTo, e) },
	func(r dto.CreateTaskRequest, _ time.Time, e validationErrors) { checkUserID(r.UserID, e) },
}

var updateRules = []rule[dto.UpdateTaskRequest]{
	func(r dto.UpdateTaskRequest, _ time.Time, e validationErrors) {
		if r.ID <= 0 {
			e.add("id", "id must be greater than 0")
		}
	},
	func(r dto.UpdateTaskRequest, _ time.Time, e validationErrors) { checkTitle(r.Title, e) },
	func(r dto.UpdateTaskRequest, _ time.Time, e validationErrors) { checkDescription(r.Description, e) },
	func(r dto.UpdateTaskRequest, _ time.Time, e validationErrors) { checkEnums(r.Priority, r.Category, e) },
	func(r dto.UpdateTaskRequest, today time.Time, e validationErrors) { checkDueDate(r.DueDate, today, e) },
	func(r dto.UpdateTaskRequest, _ time.Time, e validationErrors) { checkTags(r.Tags, e) },
	func(r dto.UpdateTaskRequest, _ time.Time, e validationErrors) { checkAssignedTo(r.AssignedTo, e) },
}

func validate[T any](req T, rules []rule[T], now time.Time) map[string][]string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	errs := validationErrors{}
	for _, r := range rules {
		r(req, today, errs)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func ValidateCreate(req dto.CreateTaskRequest, now time.Time) map[string][]string {
	return validate(req, createRules, now)
}

func ValidateUpdate(req dto.UpdateTaskRequest, now time.Time) map[string][]string {
	return validate(req, updateRules, now)
}

func checkTitle(title string, e validationErrors) {
	switch {
	case strings.TrimSpace(title) == "":
		e.add("title", "title is required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		e.add("title", "title must be at most %d characters", maxTitleLength)
	}
}

func checkDescription(description *string, e validationErrors) {
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLength {
		e.add("description", "description must be at most %d characters", maxDescriptionLength)
	}
}

// zero means "use the default" and is accepted.
func checkEnums(priority task.Priority, category task.Category, e validationErrors) {
	if priority != 0 && !priority.Valid() {
		e.add("priority", "priority is invalid")
	}
	if category != 0 && !category.Valid() {
		e.add("category", "category is invalid")
	}
}

func checkDueDate(dueDate *time.Time, today time.Time, e validationErrors) {
	if dueDate != nil && dueDate.Before(today) {
		e.add("dueDate", "due date cannot be in the past")
	}
}

func checkTags(tags []string, e validationErrors) {
	if len(tags) > maxTags {
		e.add("tags", "at most %d tags are allowed", maxTags)
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > maxTagLength {
			e.add("tags", "each tag must be at most %d characters", maxTagLength)
			break
		}
	}
}

func checkAssignedTo(assignedTo *string, e validationErrors) {
	if assignedTo != nil && utf8.RuneCountInString(*assignedTo) > maxAssignedToLength {
		e.add("assignedTo", "assignedTo must be at most %d characters", maxAssignedToLength)
	}
}

func checkUserID(userID string, e validationErrors) {
	switch {
	case strings.TrimSpace(userID) == "":
		e.add("userId", "user id is required")
	case utf8.RuneCountInString(userID) > maxUserIDLength:
		e.add("userId", "user id must be at most %d characters", maxUserIDLength)
	}
}
