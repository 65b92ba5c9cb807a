package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/phrazzld/doafter-api/internal/api/shared"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service"
)

// TodoHandler handles todo-related HTTP requests. Every route expects the
// authentication middleware to have resolved the requesting user.
type TodoHandler struct {
	errorResponder
	todoService service.TodoService
	logger      *slog.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(todoService service.TodoService, logger *slog.Logger, opts ...HandlerOption) *TodoHandler {
	if logger == nil {
		panic("logger cannot be nil for TodoHandler")
	}
	h := &TodoHandler{
		todoService: todoService,
		logger:      logger.With("component", "todo_handler"),
	}
	for _, opt := range opts {
		opt(&h.errorResponder)
	}
	return h
}

// requireUser returns the requester's ID, writing a 401 when there is none.
func (h *TodoHandler) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		h.logger.Warn("user ID not found or invalid in request context")
		h.HandleAPIError(w, r, domain.ErrUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// List handles GET /todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	filter, page, err := parseTodoListQuery(r.URL.Query())
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.todoService.List(r.Context(), userID, filter, page)
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewTodoListResponse(result))
}

// Get handles GET /todos/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, err := getPathTodoID(r, "id")
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	todo, err := h.todoService.Get(r.Context(), userID, id)
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TodoResponse{Todo: todo})
}

// Create handles POST /todos. The owner is always the requester.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTodoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	todo, err := h.todoService.Create(r.Context(), userID, req.ToDraft())
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	h.logger.Debug("todo created",
		slog.String("todo_id", todo.ID.String()),
		slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, TodoResponse{Message: "Todo created successfully", Todo: todo})
}

// Update handles PUT /todos/{id}. Only the fields present in the body change.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, err := getPathTodoID(r, "id")
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	var req UpdateTodoRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	todo, err := h.todoService.Update(r.Context(), userID, id, req.ToPatch())
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TodoResponse{Message: "Todo updated successfully", Todo: todo})
}

// Delete handles DELETE /todos/{id}.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, err := getPathTodoID(r, "id")
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	if err := h.todoService.Delete(r.Context(), userID, id); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Todo deleted successfully"})
}

// Batch handles PATCH /todos/batch. Ids the requester does not own are
// skipped and not counted in the affected total.
func (h *TodoHandler) Batch(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req BatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	action, err := service.ParseBatchAction(req.Action)
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}
	ids, err := parseBatchIDs(req.IDs)
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	affected, err := h.todoService.Batch(r.Context(), userID, action, ids)
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BatchResponse{
		Message:  "Batch " + string(action) + " completed successfully",
		Affected: affected,
	})
}

// Stats handles GET /todos/stats/summary.
func (h *TodoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.todoService.Stats(r.Context(), userID)
	if err != nil {
		h.HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewStatsResponse(summary))
}
