package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/platform/logger"
	"github.com/phrazzld/doafter-api/internal/store"
)

// TodoStore implements store.TodoStore on database/sql. Every statement it
// issues is built with newTodoQuery and therefore filtered by owner.
type TodoStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewTodoStore creates a TodoStore. A nil logger falls back to slog.Default().
func NewTodoStore(db store.DBTX, dialect Dialect, log *slog.Logger) *TodoStore {
	if log == nil {
		log = slog.Default()
	}
	return &TodoStore{
		db:      db,
		dialect: dialect,
		logger:  log.With(slog.String("component", "todo_store")),
	}
}

var _ store.TodoStore = (*TodoStore)(nil)

// WithTx implements store.TodoStore.WithTx.
func (s *TodoStore) WithTx(tx *sql.Tx) store.TodoStore {
	return &TodoStore{db: tx, dialect: s.dialect, logger: s.logger}
}

// Create implements store.TodoStore.Create.
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *TodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		log.Warn("todo validation failed during create",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return err
	}

	tags, err := tagsArg(todo.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := s.dialect.Rebind(`
		INSERT INTO todos (` + todoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = s.db.ExecContext(ctx, query,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Description,
		todo.Completed,
		string(todo.Priority),
		s.dialect.nullTimeArg(todo.DueDate),
		tags,
		nullFloatArg(todo.EstimatedHours),
		nullFloatArg(todo.ActualHours),
		s.dialect.timeArg(todo.CreatedAt),
		s.dialect.timeArg(todo.UpdatedAt),
	)
	if err != nil {
		mapped := wrapError("todo", "create", err)
		if errors.Is(mapped, store.ErrInvalidEntity) {
			log.Warn("todo rejected by database constraints",
				slog.String("error", err.Error()),
				slog.String("todo_id", todo.ID.String()),
				slog.String("user_id", todo.UserID.String()))
			return mapped
		}
		log.Error("failed to create todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()),
			slog.String("user_id", todo.UserID.String()))
		return mapped
	}

	log.Debug("todo created",
		slog.String("todo_id", todo.ID.String()),
		slog.String("user_id", todo.UserID.String()))
	return nil
}

// GetByID implements store.TodoStore.GetByID.
func (s *TodoStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := newTodoQuery(s.dialect, ownerID).
		and("id = ?", id).
		render(`SELECT `+todoColumns+` FROM todos`, nil, "")

	todo, err := scanTodo(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTodoNotFound
		}
		log.Error("failed to get todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return nil, wrapError("todo", "get", err)
	}
	return todo, nil
}

// List implements store.TodoStore.List.
func (s *TodoStore) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TodoFilter,
	page store.Page,
) ([]*domain.Todo, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	q := newTodoQuery(s.dialect, ownerID).withFilter(filter)

	countQuery, countArgs := q.render(`SELECT COUNT(*) FROM todos`, nil, "")
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		log.Error("failed to count todos",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, 0, wrapError("todo", "count", err)
	}

	listQuery, listArgs := q.render(
		`SELECT `+todoColumns+` FROM todos`, nil,
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		page.Size, page.Offset(),
	)
	rows, err := s.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		log.Error("failed to list todos",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, 0, wrapError("todo", "list", err)
	}
	defer func() { _ = rows.Close() }()

	todos := make([]*domain.Todo, 0, page.Size)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapError("todo", "list", err)
	}

	return todos, total, nil
}

// Update implements store.TodoStore.Update.
func (s *TodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := todo.Validate(); err != nil {
		return err
	}

	tags, err := tagsArg(todo.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query, args := newTodoQuery(s.dialect, todo.UserID).
		and("id = ?", todo.ID).
		render(`UPDATE todos SET title = ?, description = ?, completed = ?, priority = ?,
			due_date = ?, tags = ?, estimated_hours = ?, actual_hours = ?, updated_at = ?`,
			[]any{
				todo.Title,
				todo.Description,
				todo.Completed,
				string(todo.Priority),
				s.dialect.nullTimeArg(todo.DueDate),
				tags,
				nullFloatArg(todo.EstimatedHours),
				nullFloatArg(todo.ActualHours),
				s.dialect.timeArg(todo.UpdatedAt),
			}, "")

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to update todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", todo.ID.String()))
		return wrapError("todo", "update", err)
	}

	return CheckRowsAffected(result, store.ErrTodoNotFound)
}

// Delete implements store.TodoStore.Delete.
func (s *TodoStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := newTodoQuery(s.dialect, ownerID).
		and("id = ?", id).
		render(`DELETE FROM todos`, nil, "")

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete todo",
			slog.String("error", err.Error()),
			slog.String("todo_id", id.String()))
		return wrapError("todo", "delete", err)
	}

	return CheckRowsAffected(result, store.ErrTodoNotFound)
}

// SetCompleted implements store.TodoStore.SetCompleted.
func (s *TodoStore) SetCompleted(
	ctx context.Context,
	ownerID uuid.UUID,
	ids []uuid.UUID,
	completed bool,
) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args := newTodoQuery(s.dialect, ownerID).
		withIDs(ids).
		render(`UPDATE todos SET completed = ?, updated_at = ?`,
			[]any{completed, s.dialect.timeArg(time.Now())}, "")

	return s.execCount(ctx, "batch update todos", query, args)
}

// DeleteMany implements store.TodoStore.DeleteMany.
func (s *TodoStore) DeleteMany(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args := newTodoQuery(s.dialect, ownerID).
		withIDs(ids).
		render(`DELETE FROM todos`, nil, "")

	return s.execCount(ctx, "batch delete todos", query, args)
}

func (s *TodoStore) execCount(ctx context.Context, op, query string, args []any) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return 0, wrapError("todo", op, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Stats implements store.TodoStore.Stats.
func (s *TodoStore) Stats(ctx context.Context, ownerID uuid.UUID) (*store.TodoStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := newTodoQuery(s.dialect, ownerID).render(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'low' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'medium' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN priority = 'high' THEN 1 ELSE 0 END), 0)
		FROM todos`, nil, "")

	var total, completed, low, medium, high int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total, &completed, &low, &medium, &high); err != nil {
		log.Error("failed to compute todo stats",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, wrapError("todo", "stats", err)
	}

	return &store.TodoStats{
		Total:     total,
		Completed: completed,
		ByPriority: map[domain.Priority]int{
			domain.PriorityLow:    low,
			domain.PriorityMedium: medium,
			domain.PriorityHigh:   high,
		},
	}, nil
}

func scanTodo(row rowScanner) (*domain.Todo, error) {
	var (
		t                 domain.Todo
		priority          string
		due, created, upd nullTime
		tags              tagList
		estimated, actual sql.NullFloat64
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Completed,
		&priority,
		&due,
		&tags,
		&estimated,
		&actual,
		&created,
		&upd,
	)
	if err != nil {
		return nil, err
	}

	t.Priority = domain.Priority(priority)
	t.DueDate = due.ptr()
	t.Tags = []string(tags)
	t.EstimatedHours = floatPtr(estimated)
	t.ActualHours = floatPtr(actual)
	t.CreatedAt = created.Time
	t.UpdatedAt = upd.Time
	return &t, nil
}
