package mocks

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// TodoStore is a mock of store.TodoStore interface for use with testify/mock.
type TodoStore struct {
	mock.Mock
}

var _ store.TodoStore = (*TodoStore)(nil)

// Create is a mock implementation of store.TodoStore.Create
func (m *TodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	args := m.Called(ctx, todo)
	return args.Error(0)
}

// GetByID is a mock implementation of store.TodoStore.GetByID
func (m *TodoStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error) {
	args := m.Called(ctx, ownerID, id)
	if todo, ok := args.Get(0).(*domain.Todo); ok {
		return todo, args.Error(1)
	}
	return nil, args.Error(1)
}

// List is a mock implementation of store.TodoStore.List
func (m *TodoStore) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TodoFilter,
	page store.Page,
) ([]*domain.Todo, int, error) {
	args := m.Called(ctx, ownerID, filter, page)
	todos, _ := args.Get(0).([]*domain.Todo)
	return todos, args.Int(1), args.Error(2)
}

// Update is a mock implementation of store.TodoStore.Update
func (m *TodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	args := m.Called(ctx, todo)
	return args.Error(0)
}

// Delete is a mock implementation of store.TodoStore.Delete
func (m *TodoStore) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// SetCompleted is a mock implementation of store.TodoStore.SetCompleted
func (m *TodoStore) SetCompleted(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID, completed bool) (int64, error) {
	args := m.Called(ctx, ownerID, ids, completed)
	return args.Get(0).(int64), args.Error(1)
}

// DeleteMany is a mock implementation of store.TodoStore.DeleteMany
func (m *TodoStore) DeleteMany(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID, ids)
	return args.Get(0).(int64), args.Error(1)
}

// Stats is a mock implementation of store.TodoStore.Stats
func (m *TodoStore) Stats(ctx context.Context, ownerID uuid.UUID) (*store.TodoStats, error) {
	args := m.Called(ctx, ownerID)
	if stats, ok := args.Get(0).(*store.TodoStats); ok {
		return stats, args.Error(1)
	}
	return nil, args.Error(1)
}

// WithTx is a mock implementation of store.TodoStore.WithTx. It returns the mock itself.
func (m *TodoStore) WithTx(tx *sql.Tx) store.TodoStore {
	return m
}
