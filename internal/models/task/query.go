package task

import (
	"math"
	"strings"
	"time"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type SortField string

const (
	SortByTitle     SortField = "title"
	SortByPriority  SortField = "priority"
	SortByCategory  SortField = "category"
	SortByDueDate   SortField = "duedate"
	SortByCompleted SortField = "completed"
	SortByCreatedAt SortField = "createdat"
	SortByUpdatedAt SortField = "updatedat"
)

var sortFields = map[SortField]struct{}{
	SortByTitle:     {},
	SortByPriority:  {},
	SortByCategory:  {},
	SortByDueDate:   {},
	SortByCompleted: {},
	SortByCreatedAt: {},
	SortByUpdatedAt: {},
}

// QueryParameters describes one paged query. Filters left nil or empty are not applied.
type QueryParameters struct {
	PageNumber    int
	PageSize      int
	SortBy        string
	SortDirection string

	Title       string
	Priority    string
	Category    string
	Completed   *bool
	UserID      string
	AssignedTo  string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	Tag         string
}

// Normalize applies defaults: page 1, size 10, sizes above 100 clamped to 100.
func (q QueryParameters) Normalize() QueryParameters {
	if q.PageNumber < 1 {
		q.PageNumber = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.SortDirection == "" {
		q.SortDirection = "asc"
	}
	return q
}

// Offset saturates at math.MaxInt instead of overflowing for huge page numbers.
func (q QueryParameters) Offset() int {
	if q.PageNumber <= 1 || q.PageSize <= 0 {
		return 0
	}
	if q.PageNumber-1 > math.MaxInt/q.PageSize {
		return math.MaxInt
	}
	return (q.PageNumber - 1) * q.PageSize
}

// Sort resolves the ordering. Unknown or empty sortBy means createdAt descending.
func (q QueryParameters) Sort() (field SortField, desc bool) {
	field = SortField(strings.ToLower(strings.TrimSpace(q.SortBy)))
	if _, ok := sortFields[field]; !ok {
		return SortByCreatedAt, true
	}
	return field, strings.EqualFold(strings.TrimSpace(q.SortDirection), "desc")
}

// PriorityFilter returns false when the filter is empty or unparseable; such filters are ignored.
func (q QueryParameters) PriorityFilter() (Priority, bool) {
	if strings.TrimSpace(q.Priority) == "" {
		return 0, false
	}
	return ParsePriority(q.Priority)
}

func (q QueryParameters) CategoryFilter() (Category, bool) {
	if strings.TrimSpace(q.Category) == "" {
		return 0, false
	}
	return ParseCategory(q.Category)
}

// Matches reports whether t satisfies every filter in q.
func (q QueryParameters) Matches(t *Task) bool {
	if title := strings.TrimSpace(q.Title); title != "" &&
		!strings.Contains(strings.ToLower(t.Title), strings.ToLower(title)) {
		return false
	}
	if p, ok := q.PriorityFilter(); ok && t.Priority != p {
		return false
	}
	if c, ok := q.CategoryFilter(); ok && t.Category != c {
		return false
	}
	if q.Completed != nil && t.Completed != *q.Completed {
		return false
	}
	if q.UserID != "" && t.UserID != q.UserID {
		return false
	}
	if q.AssignedTo != "" && (t.AssignedTo == nil || *t.AssignedTo != q.AssignedTo) {
		return false
	}
	if q.DueDateFrom != nil && (t.DueDate == nil || t.DueDate.Before(*q.DueDateFrom)) {
		return false
	}
	if q.DueDateTo != nil && (t.DueDate == nil || t.DueDate.After(*q.DueDateTo)) {
		return false
	}
	if q.Tag != "" && !t.HasTag(q.Tag) {
		return false
	}
	return true
}

type PaginatedResult[T any] struct {
	Items       []T  `json:"items"`
	PageNumber  int  `json:"pageNumber"`
	PageSize    int  `json:"pageSize"`
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

func NewPaginatedResult[T any](items []T, totalCount, pageNumber, pageSize int) *PaginatedResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}
	return &PaginatedResult[T]{
		Items:       items,
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		HasPrevious: pageNumber > 1,
		HasNext:     pageNumber < totalPages,
	}
}

// MapPage converts the items of a page while keeping its counters.
func MapPage[T, R any](page *PaginatedResult[T], fn func(T) R) *PaginatedResult[R] {
	items := make([]R, len(page.Items))
	for i, item := range page.Items {
		items[i] = fn(item)
	}
	return NewPaginatedResult(items, page.TotalCount, page.PageNumber, page.PageSize)
}

type Statistics struct {
	Total        int
	Completed    int
	Pending      int
	UrgentActive int
	ByCategory   map[string]int
	ByPriority   map[string]int
}
