package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/api/shared"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service"
	"github.com/phrazzld/doafter-api/internal/store"
)

// getUserIDFromContext extracts the authenticated user's UUID from the request context.
// The user ID is expected to be placed in the context by the authentication middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}

// getPathTodoID extracts the todo ID from the URL path parameters.
// A value that is not a UUID cannot name any todo, so it is reported as
// store.ErrTodoNotFound rather than as a validation failure.
func getPathTodoID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	id, err := uuid.Parse(pathParam)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: malformed id %q", store.ErrTodoNotFound, pathParam)
	}
	return id, nil
}

// parseTodoListQuery reads the filter and pagination parameters of a todo
// listing. Every malformed parameter is reported in one ValidationError.
func parseTodoListQuery(q url.Values) (store.TodoFilter, store.Page, error) {
	verr := &domain.ValidationError{}
	filter := store.TodoFilter{
		Search: strings.TrimSpace(q.Get("search")),
	}

	if raw := q.Get("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			verr.Add("completed", "must be true or false")
		} else {
			filter.Completed = &completed
		}
	}

	if raw := q.Get("priority"); raw != "" {
		priority, err := domain.ParsePriority(raw)
		if err != nil {
			verr.Add("priority", "must be one of low, medium, high")
		} else {
			filter.Priority = &priority
		}
	}

	page := store.Page{Number: 1, Size: service.DefaultPageSize}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > service.MaxPageNumber {
			verr.Add("page", fmt.Sprintf("must be an integer between 1 and %d", service.MaxPageNumber))
		} else {
			page.Number = n
		}
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > service.MaxPageSize {
			verr.Add("limit", fmt.Sprintf("must be an integer between 1 and %d", service.MaxPageSize))
		} else {
			page.Size = n
		}
	}

	if err := verr.ErrOrNil(); err != nil {
		return store.TodoFilter{}, store.Page{}, err
	}
	return filter, page, nil
}

// parseBatchIDs converts the ids of a batch request to UUIDs.
func parseBatchIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, domain.NewValidationError("ids", "must be a non-empty array of todo IDs", nil)
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, domain.NewValidationError("ids", fmt.Sprintf("contains an invalid ID %q", s), domain.ErrInvalidID)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
