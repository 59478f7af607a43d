package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

const taskColumns = `id,
				title,
				description,
				priority,
				category,
				due_date,
				tags,
				assigned_to,
				user_id,
				completed,
				created_at,
				updated_at,
				created_by,
				updated_by,
				concurrency_token::text`

type Storage struct {
	pool       *pgxpool.Pool
	connString string
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: failed to parse database config", err)
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if cfg.MaxConnections > 0 {
		poolConfig.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolConfig.MinConns = cfg.MinConnections
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: failed to create pool", err)
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: ping failed", err)
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("Repository: connected to PostgreSQL")
	return &Storage{pool: pool, connString: cfg.URL}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: PostgreSQL connections closed")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) (*task.Task, error) {
	defer logSlow("create", time.Now())

	query := `INSERT INTO tasks
				(title, description, priority, category, due_date, tags, assigned_to,
				 user_id, completed, created_by, updated_by, concurrency_token)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10, $11::uuid)
				RETURNING ` + taskColumns

	created, err := scanTask(s.pool.QueryRow(ctx, query,
		taskToCreate.Title,
		taskToCreate.Description,
		int16(taskToCreate.Priority),
		int16(taskToCreate.Category),
		taskToCreate.DueDate,
		nonNilTags(taskToCreate.Tags),
		taskToCreate.AssignedTo,
		taskToCreate.UserID,
		taskToCreate.Completed,
		actorOrSystem(taskToCreate.CreatedBy),
		uuid.NewString(),
	))
	if err != nil {
		logger.Error("Repository: failed to insert task", err)
		return nil, fmt.Errorf("inserting task: %w", err)
	}
	return created, nil
}

// Update locks the row, checks the concurrency token and replaces the mutable columns.
// A missing row yields (nil, nil).
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) (*task.Task, error) {
	defer logSlow("update", time.Now())

	var updated *task.Task
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx,
			`SELECT concurrency_token::text FROM tasks WHERE id = $1 FOR UPDATE`,
			taskToUpdate.ID,
		).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("locking task: %w", err)
		}

		if taskToUpdate.ConcurrencyToken != "" && taskToUpdate.ConcurrencyToken != current {
			logger.Warn("Repository: concurrency conflict on update",
				zap.Int64("task_id", taskToUpdate.ID),
				zap.String("expected_token", taskToUpdate.ConcurrencyToken))
			return repo.ErrConcurrencyConflict
		}

		query := `UPDATE tasks
			SET title = $1,
				description = $2,
				priority = $3,
				category = $4,
				due_date = $5,
				tags = $6,
				assigned_to = $7,
				completed = $8,
				updated_by = $9,
				updated_at = GREATEST(NOW(), created_at),
				concurrency_token = $10::uuid
			WHERE id = $11
			RETURNING ` + taskColumns

		updated, err = scanTask(tx.QueryRow(ctx, query,
			taskToUpdate.Title,
			taskToUpdate.Description,
			int16(taskToUpdate.Priority),
			int16(taskToUpdate.Category),
			taskToUpdate.DueDate,
			nonNilTags(taskToUpdate.Tags),
			taskToUpdate.AssignedTo,
			taskToUpdate.Completed,
			actorOrSystem(taskToUpdate.UpdatedBy),
			uuid.NewString(),
			taskToUpdate.ID,
		))
		if err != nil {
			return fmt.Errorf("updating task: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, repo.ErrConcurrencyConflict) {
			logger.Error("Repository: failed to update task", err, zap.Int64("task_id", taskToUpdate.ID))
		}
		return nil, err
	}
	return updated, nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	defer logSlow("get_by_id", time.Now())

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("Repository: failed to get task", err, zap.Int64("task_id", id))
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

func (s *Storage) Delete(ctx context.Context, id int64) (bool, error) {
	defer logSlow("delete", time.Now())

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: failed to delete task", err, zap.Int64("task_id", id))
		return false, fmt.Errorf("deleting task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Storage) GetAll(ctx context.Context) ([]*task.Task, error) {
	defer logSlow("get_all", time.Now())

	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id`
	return s.queryTasks(ctx, query)
}

func (s *Storage) CountAll(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM tasks`)
}

func (s *Storage) CountCompleted(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM tasks WHERE completed`)
}

func (s *Storage) CountPending(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM tasks WHERE NOT completed`)
}

func (s *Storage) CountUrgentActive(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM tasks WHERE priority = $1 AND NOT completed`,
		int16(task.PriorityUrgent))
}

func (s *Storage) CountByCategory(ctx context.Context) (map[string]int, error) {
	return s.group(ctx, `SELECT category, COUNT(*) FROM tasks GROUP BY category`,
		func(v int16) string { return task.Category(v).String() })
}

func (s *Storage) CountByPriority(ctx context.Context) (map[string]int, error) {
	return s.group(ctx, `SELECT priority, COUNT(*) FROM tasks GROUP BY priority`,
		func(v int16) string { return task.Priority(v).String() })
}

func (s *Storage) count(ctx context.Context, query string, args ...any) (int, error) {
	defer logSlow("count", time.Now())

	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		logger.Error("Repository: failed to count tasks", err)
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return n, nil
}

func (s *Storage) group(ctx context.Context, query string, name func(int16) string) (map[string]int, error) {
	defer logSlow("group", time.Now())

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: failed to group tasks", err)
		return nil, fmt.Errorf("grouping tasks: %w", err)
	}
	defer rows.Close()

	res := make(map[string]int)
	for rows.Next() {
		var key int16
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		res[name(key)] = n
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: row iteration failed", err)
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return res, nil
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: failed to query tasks", err)
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: row iteration failed", err)
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return tasks, nil
}

func scanTask(row pgx.Row) (*task.Task, error) {
	var (
		t                  task.Task
		priority, category int16
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&priority,
		&category,
		&t.DueDate,
		&t.Tags,
		&t.AssignedTo,
		&t.UserID,
		&t.Completed,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CreatedBy,
		&t.UpdatedBy,
		&t.ConcurrencyToken,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = task.Priority(priority)
	t.Category = task.Category(category)
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return "system"
	}
	return actor
}

func logSlow(op string, start time.Time) {
	if d := time.Since(start); d > slowQuery {
		logger.Warn("Repository: slow query", zap.String("operation", op), zap.Duration("ms", d))
	}
}
