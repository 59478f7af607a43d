package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	"time"
)

var sortColumns = map[task.SortField]string{
	task.SortByTitle:     "title",
	task.SortByPriority:  "priority",
	task.SortByCategory:  "category",
	task.SortByDueDate:   "due_date",
	task.SortByCompleted: "completed",
	task.SortByCreatedAt: "created_at",
	task.SortByUpdatedAt: "updated_at",
}

// whereBuilder accumulates conjunctive predicates with positional arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

func (b *whereBuilder) add(cond string, arg any) {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(b.args))))
}

func (b *whereBuilder) sql() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

func buildFilters(params task.QueryParameters) *whereBuilder {
	b := &whereBuilder{}
	if title := strings.TrimSpace(params.Title); title != "" {
		b.add(`title ILIKE '%' || ? || '%' ESCAPE '\'`, escapeLike(title))
	}
	if p, ok := params.PriorityFilter(); ok {
		b.add("priority = ?", int16(p))
	}
	if c, ok := params.CategoryFilter(); ok {
		b.add("category = ?", int16(c))
	}
	if params.Completed != nil {
		b.add("completed = ?", *params.Completed)
	}
	if params.UserID != "" {
		b.add("user_id = ?", params.UserID)
	}
	if params.AssignedTo != "" {
		b.add("assigned_to = ?", params.AssignedTo)
	}
	if params.DueDateFrom != nil {
		b.add("due_date >= ?", *params.DueDateFrom)
	}
	if params.DueDateTo != nil {
		b.add("due_date <= ?", *params.DueDateTo)
	}
	if params.Tag != "" {
		b.add("? = ANY(tags)", params.Tag)
	}
	return b
}

func buildOrder(params task.QueryParameters) string {
	field, desc := params.Sort()
	column := sortColumns[field]
	if desc {
		return " ORDER BY " + column + " DESC NULLS LAST, id"
	}
	return " ORDER BY " + column + " ASC NULLS FIRST, id"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetPaged counts the filtered rows, then reads one sorted window of them.
func (s *Storage) GetPaged(ctx context.Context, params task.QueryParameters) (*task.PaginatedResult[*task.Task], error) {
	defer logSlow("get_paged", time.Now())
	params = params.Normalize()

	where := buildFilters(params)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where.sql(), where.args...).Scan(&total); err != nil {
		logger.Error("Repository: failed to count filtered tasks", err)
		return nil, fmt.Errorf("counting filtered tasks: %w", err)
	}

	args := append(append([]any{}, where.args...), params.PageSize, params.Offset())
	query := `SELECT ` + taskColumns + ` FROM tasks` + where.sql() + buildOrder(params) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	items, err := s.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return task.NewPaginatedResult(items, total, params.PageNumber, params.PageSize), nil
}
