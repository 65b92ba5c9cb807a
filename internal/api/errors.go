package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/doafter-api/internal/api/shared"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service"
	"github.com/phrazzld/doafter-api/internal/service/auth"
	"github.com/phrazzld/doafter-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrIncorrectPassword),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, domain.ErrValidation):
		return "Validation failed"

	case errors.Is(err, service.ErrIncorrectPassword):
		return "Current password is incorrect"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid username or password"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"

	case errors.Is(err, store.ErrTodoNotFound):
		return "Todo not found"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrUsernameExists):
		return "Username already exists"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "Internal server error"
	}
}

// ValidationDetails returns the per-field messages carried by err, or nil.
func ValidationDetails(err error) []string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Details()
	}
	return nil
}

// errorResponder writes error responses for the handlers. In development
// mode the redacted cause of every failure is echoed to the client.
type errorResponder struct {
	exposeDetail bool
}

// HandleAPIError maps err to a status code and safe message and writes the
// response. An empty message selects GetSafeErrorMessage(err). Validation
// errors carry their per-field details.
func (e errorResponder) HandleAPIError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
	message string,
	opts ...shared.ResponseOption,
) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	if details := ValidationDetails(err); details != nil {
		opts = append(opts, shared.WithDetails(details))
	}
	if e.exposeDetail {
		opts = append(opts, shared.WithErrorDetail(true))
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
