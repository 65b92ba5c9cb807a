package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
)

// TodoFilter holds the optional predicates of a todo listing. The owner is
// not part of the filter; it is a separate mandatory argument.
type TodoFilter struct {
	Completed *bool
	Priority  *domain.Priority
	// Search is matched case-insensitively against title or description.
	Search string
}

// Page selects a 1-based page of Size rows.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows skipped before this page.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// TodoStats aggregates a user's todos.
type TodoStats struct {
	Total      int
	Completed  int
	ByPriority map[domain.Priority]int
}

// TodoStore defines the interface for todo data persistence. Every method is
// scoped to ownerID; rows owned by anyone else behave as if they did not exist.
type TodoStore interface {
	// Create saves a new todo. Returns ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, todo *domain.Todo) error

	// GetByID retrieves one of ownerID's todos.
	// Returns ErrTodoNotFound if it does not exist or belongs to someone else.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error)

	// List returns one page of ownerID's todos matching filter, newest first,
	// together with the total number of matching rows.
	List(ctx context.Context, ownerID uuid.UUID, filter TodoFilter, page Page) ([]*domain.Todo, int, error)

	// Update writes every mutable field of todo, matching on todo.ID and todo.UserID.
	// Returns ErrTodoNotFound if no such row exists.
	Update(ctx context.Context, todo *domain.Todo) error

	// Delete removes one of ownerID's todos.
	// Returns ErrTodoNotFound if it does not exist or belongs to someone else.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// SetCompleted sets the completed flag on the todos in ids owned by
	// ownerID and returns the number of rows affected. Foreign ids are skipped.
	SetCompleted(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID, completed bool) (int64, error)

	// DeleteMany removes the todos in ids owned by ownerID and returns the
	// number of rows affected. Foreign ids are skipped.
	DeleteMany(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error)

	// Stats aggregates ownerID's todos.
	Stats(ctx context.Context, ownerID uuid.UUID) (*TodoStats, error)

	// WithTx returns a TodoStore bound to the given transaction.
	WithTx(tx *sql.Tx) TodoStore
}
