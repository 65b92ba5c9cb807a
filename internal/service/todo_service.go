package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/store"
)

// Page bounds for todo listings. MaxPageNumber keeps the row offset within
// an int32 on every dialect.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxPageNumber   = math.MaxInt32 / MaxPageSize
)

// BatchAction names an operation applied to several todos at once.
type BatchAction string

// Supported batch actions.
const (
	BatchComplete   BatchAction = "complete"
	BatchIncomplete BatchAction = "incomplete"
	BatchDelete     BatchAction = "delete"
)

// ParseBatchAction converts a string to a BatchAction.
func ParseBatchAction(s string) (BatchAction, error) {
	switch a := BatchAction(strings.TrimSpace(s)); a {
	case BatchComplete, BatchIncomplete, BatchDelete:
		return a, nil
	}
	return "", domain.NewValidationError("action", "must be one of complete, incomplete, delete", nil)
}

// TodoPage is one page of a todo listing.
type TodoPage struct {
	Todos      []*domain.Todo
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// TodoSummary aggregates a user's todos.
type TodoSummary struct {
	Total          int
	Completed      int
	Pending        int
	CompletionRate int
	PriorityStats  map[domain.Priority]int
}

// TodoService implements the todo use cases. Every method takes the ID of the
// requesting user; todos owned by anyone else are reported as not found.
type TodoService interface {
	List(ctx context.Context, ownerID uuid.UUID, filter store.TodoFilter, page store.Page) (*TodoPage, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error)
	Create(ctx context.Context, ownerID uuid.UUID, draft domain.TodoDraft) (*domain.Todo, error)

	// Update applies the fields present in patch and re-validates the result.
	Update(ctx context.Context, ownerID, id uuid.UUID, patch domain.TodoPatch) (*domain.Todo, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// Batch applies action to the todos in ids owned by ownerID and returns
	// how many rows changed.
	Batch(ctx context.Context, ownerID uuid.UUID, action BatchAction, ids []uuid.UUID) (int64, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*TodoSummary, error)
}

type todoServiceImpl struct {
	todoStore store.TodoStore
	logger    *slog.Logger
}

var _ TodoService = (*todoServiceImpl)(nil)

// NewTodoService creates a new TodoService.
func NewTodoService(todoStore store.TodoStore, logger *slog.Logger) (TodoService, error) {
	if todoStore == nil {
		return nil, errors.New("todoStore cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &todoServiceImpl{
		todoStore: todoStore,
		logger:    logger.With(slog.String("component", "todo_service")),
	}, nil
}

func (s *todoServiceImpl) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TodoFilter,
	page store.Page,
) (*TodoPage, error) {
	verr := &domain.ValidationError{}
	if page.Number < 1 || page.Number > MaxPageNumber {
		verr.Add("page", fmt.Sprintf("must be an integer between 1 and %d", MaxPageNumber))
	}
	if page.Size < 1 || page.Size > MaxPageSize {
		verr.Add("limit", "must be an integer between 1 and 100")
	}
	if filter.Priority != nil && !filter.Priority.Valid() {
		verr.Add("priority", "must be one of low, medium, high")
	}
	if err := verr.ErrOrNil(); err != nil {
		return nil, err
	}

	todos, total, err := s.todoStore.List(ctx, ownerID, filter, page)
	if err != nil {
		s.logger.Error("failed to list todos",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, NewServiceError("todo", "list", err)
	}
	if todos == nil {
		todos = []*domain.Todo{}
	}

	return &TodoPage{
		Todos:      todos,
		Total:      total,
		Page:       page.Number,
		Limit:      page.Size,
		TotalPages: int(math.Ceil(float64(total) / float64(page.Size))),
	}, nil
}

func (s *todoServiceImpl) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error) {
	todo, err := s.todoStore.GetByID(ctx, ownerID, id)
	if err != nil {
		s.logStoreError("get", ownerID, id, err)
		return nil, NewServiceError("todo", "get", err)
	}
	return todo, nil
}

func (s *todoServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, draft domain.TodoDraft) (*domain.Todo, error) {
	todo, err := domain.NewTodo(ownerID, draft)
	if err != nil {
		return nil, err
	}

	if err := s.todoStore.Create(ctx, todo); err != nil {
		s.logStoreError("create", ownerID, todo.ID, err)
		return nil, NewServiceError("todo", "create", err)
	}

	s.logger.Debug("todo created",
		slog.String("user_id", ownerID.String()),
		slog.String("todo_id", todo.ID.String()))
	return todo, nil
}

func (s *todoServiceImpl) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	patch domain.TodoPatch,
) (*domain.Todo, error) {
	todo, err := s.todoStore.GetByID(ctx, ownerID, id)
	if err != nil {
		s.logStoreError("update", ownerID, id, err)
		return nil, NewServiceError("todo", "update", err)
	}

	todo.Apply(patch)
	if err := todo.Validate(); err != nil {
		return nil, err
	}

	if err := s.todoStore.Update(ctx, todo); err != nil {
		s.logStoreError("update", ownerID, id, err)
		return nil, NewServiceError("todo", "update", err)
	}

	return todo, nil
}

func (s *todoServiceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.todoStore.Delete(ctx, ownerID, id); err != nil {
		s.logStoreError("delete", ownerID, id, err)
		return NewServiceError("todo", "delete", err)
	}

	s.logger.Debug("todo deleted",
		slog.String("user_id", ownerID.String()),
		slog.String("todo_id", id.String()))
	return nil
}

func (s *todoServiceImpl) Batch(
	ctx context.Context,
	ownerID uuid.UUID,
	action BatchAction,
	ids []uuid.UUID,
) (int64, error) {
	if _, err := ParseBatchAction(string(action)); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, domain.NewValidationError("ids", "must be a non-empty array of todo IDs", nil)
	}

	var (
		affected int64
		err      error
	)
	switch action {
	case BatchComplete:
		affected, err = s.todoStore.SetCompleted(ctx, ownerID, ids, true)
	case BatchIncomplete:
		affected, err = s.todoStore.SetCompleted(ctx, ownerID, ids, false)
	case BatchDelete:
		affected, err = s.todoStore.DeleteMany(ctx, ownerID, ids)
	}
	if err != nil {
		s.logger.Error("batch operation failed",
			slog.String("error", err.Error()),
			slog.String("action", string(action)),
			slog.String("user_id", ownerID.String()))
		return 0, NewServiceError("todo", "batch", err)
	}

	s.logger.Info("batch operation applied",
		slog.String("action", string(action)),
		slog.Int("requested", len(ids)),
		slog.Int64("affected", affected),
		slog.String("user_id", ownerID.String()))
	return affected, nil
}

func (s *todoServiceImpl) Stats(ctx context.Context, ownerID uuid.UUID) (*TodoSummary, error) {
	stats, err := s.todoStore.Stats(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to compute todo stats",
			slog.String("error", err.Error()),
			slog.String("user_id", ownerID.String()))
		return nil, NewServiceError("todo", "stats", err)
	}

	summary := &TodoSummary{
		Total:         stats.Total,
		Completed:     stats.Completed,
		Pending:       stats.Total - stats.Completed,
		PriorityStats: make(map[domain.Priority]int, len(domain.Priorities)),
	}
	if stats.Total > 0 {
		summary.CompletionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	for _, p := range domain.Priorities {
		summary.PriorityStats[p] = stats.ByPriority[p]
	}

	return summary, nil
}

func (s *todoServiceImpl) logStoreError(op string, ownerID, todoID uuid.UUID, err error) {
	attrs := []any{
		slog.String("operation", op),
		slog.String("user_id", ownerID.String()),
		slog.String("todo_id", todoID.String()),
		slog.String("error", err.Error()),
	}
	if store.IsNotFoundError(err) {
		s.logger.Debug("todo not found", attrs...)
		return
	}
	s.logger.Error("todo store operation failed", attrs...)
}
