package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service"
	"github.com/phrazzld/doafter-api/internal/store"
)

// MockTodoService implements service.TodoService for testing
type MockTodoService struct {
	// Custom behavior functions
	ListFn   func(ctx context.Context, ownerID uuid.UUID, filter store.TodoFilter, page store.Page) (*service.TodoPage, error)
	GetFn    func(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error)
	CreateFn func(ctx context.Context, ownerID uuid.UUID, draft domain.TodoDraft) (*domain.Todo, error)
	UpdateFn func(ctx context.Context, ownerID, id uuid.UUID, patch domain.TodoPatch) (*domain.Todo, error)
	DeleteFn func(ctx context.Context, ownerID, id uuid.UUID) error
	BatchFn  func(ctx context.Context, ownerID uuid.UUID, action service.BatchAction, ids []uuid.UUID) (int64, error)
	StatsFn  func(ctx context.Context, ownerID uuid.UUID) (*service.TodoSummary, error)

	// Default response values
	Todo     *domain.Todo
	Page     *service.TodoPage
	Summary  *service.TodoSummary
	Affected int64
	Err      error

	// Call tracking for verification
	mu       sync.Mutex
	OwnerIDs []uuid.UUID
	Filters  []store.TodoFilter
	Pages    []store.Page
	Calls    map[string]int
}

var _ service.TodoService = (*MockTodoService)(nil)

// MockTodoOption is a function type that configures a MockTodoService
type MockTodoOption func(*MockTodoService)

// WithTodo sets the default todo returned by Get, Create and Update
func WithTodo(todo *domain.Todo) MockTodoOption {
	return func(m *MockTodoService) {
		m.Todo = todo
	}
}

// WithTodoError sets the default error returned by every method
func WithTodoError(err error) MockTodoOption {
	return func(m *MockTodoService) {
		m.Err = err
	}
}

// NewMockTodoService creates a new MockTodoService with the given options
func NewMockTodoService(opts ...MockTodoOption) *MockTodoService {
	m := &MockTodoService{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockTodoService) track(method string, ownerID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[method]++
	m.OwnerIDs = append(m.OwnerIDs, ownerID)
}

// CallCount returns how many times method was called
func (m *MockTodoService) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[method]
}

// List implements the service.TodoService interface
func (m *MockTodoService) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter store.TodoFilter,
	page store.Page,
) (*service.TodoPage, error) {
	m.track("List", ownerID)
	m.mu.Lock()
	m.Filters = append(m.Filters, filter)
	m.Pages = append(m.Pages, page)
	m.mu.Unlock()

	if m.ListFn != nil {
		return m.ListFn(ctx, ownerID, filter, page)
	}
	return m.Page, m.Err
}

// Get implements the service.TodoService interface
func (m *MockTodoService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Todo, error) {
	m.track("Get", ownerID)
	if m.GetFn != nil {
		return m.GetFn(ctx, ownerID, id)
	}
	return m.Todo, m.Err
}

// Create implements the service.TodoService interface
func (m *MockTodoService) Create(ctx context.Context, ownerID uuid.UUID, draft domain.TodoDraft) (*domain.Todo, error) {
	m.track("Create", ownerID)
	if m.CreateFn != nil {
		return m.CreateFn(ctx, ownerID, draft)
	}
	return m.Todo, m.Err
}

// Update implements the service.TodoService interface
func (m *MockTodoService) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	patch domain.TodoPatch,
) (*domain.Todo, error) {
	m.track("Update", ownerID)
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, ownerID, id, patch)
	}
	return m.Todo, m.Err
}

// Delete implements the service.TodoService interface
func (m *MockTodoService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	m.track("Delete", ownerID)
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, ownerID, id)
	}
	return m.Err
}

// Batch implements the service.TodoService interface
func (m *MockTodoService) Batch(
	ctx context.Context,
	ownerID uuid.UUID,
	action service.BatchAction,
	ids []uuid.UUID,
) (int64, error) {
	m.track("Batch", ownerID)
	if m.BatchFn != nil {
		return m.BatchFn(ctx, ownerID, action, ids)
	}
	return m.Affected, m.Err
}

// Stats implements the service.TodoService interface
func (m *MockTodoService) Stats(ctx context.Context, ownerID uuid.UUID) (*service.TodoSummary, error) {
	m.track("Stats", ownerID)
	if m.StatsFn != nil {
		return m.StatsFn(ctx, ownerID)
	}
	return m.Summary, m.Err
}
