package inmemory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"taskManager/internal/models/task"
	"time"
)

// GetPaged filters, counts, sorts and windows the stored tasks. Ties are broken by id.
func (s *TaskStorage) GetPaged(ctx context.Context, params task.QueryParameters) (*task.PaginatedResult[*task.Task], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params = params.Normalize()

	s.mtx.RLock()
	matched := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if params.Matches(t) {
			matched = append(matched, t.Clone())
		}
	}
	s.mtx.RUnlock()

	total := len(matched)
	field, desc := params.Sort()
	slices.SortStableFunc(matched, func(a, b *task.Task) int {
		c := compareBy(field, a, b)
		if desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})

	offset := params.Offset()
	if offset > total {
		offset = total
	}
	end := min(offset+params.PageSize, total)

	return task.NewPaginatedResult(matched[offset:end], total, params.PageNumber, params.PageSize), nil
}

func compareBy(field task.SortField, a, b *task.Task) int {
	switch field {
	case task.SortByTitle:
		return strings.Compare(a.Title, b.Title)
	case task.SortByPriority:
		return cmp.Compare(a.Priority, b.Priority)
	case task.SortByCategory:
		return cmp.Compare(a.Category, b.Category)
	case task.SortByDueDate:
		return compareOptionalTime(a.DueDate, b.DueDate)
	case task.SortByCompleted:
		return compareBool(a.Completed, b.Completed)
	case task.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// nil due dates sort first, as NULLS FIRST does for ascending order in SQL.
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
