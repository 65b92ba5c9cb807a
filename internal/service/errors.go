package service

import (
	"errors"
	"fmt"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is; the API layer maps them to HTTP
// status codes.
var (
	// ErrInvalidCredentials indicates an unknown login identifier or a wrong password.
	// The two cases are reported identically. API layer should map this to 401.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrIncorrectPassword indicates the current password supplied with a
	// password change did not match. API layer should map this to 400.
	ErrIncorrectPassword = errors.New("current password is incorrect")
)

// ServiceError adds service and operation context to an unexpected failure.
// Expected conditions are returned as sentinel errors instead.
type ServiceError struct {
	Service string // The service that failed (e.g., "user", "todo")
	Op      string // The operation that failed (e.g., "create", "batch")
	Err     error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, Err: err}
}
