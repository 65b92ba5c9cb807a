package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user. The user must already carry a password hash;
	// implementations never hash or see plaintext passwords.
	// Returns ErrUsernameExists or ErrEmailExists on a uniqueness conflict.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByLogin retrieves the user whose email equals identifier when it
	// contains "@", otherwise the user whose username equals it.
	// Email comparison is case-insensitive.
	// Returns ErrUserNotFound if no user matches.
	GetByLogin(ctx context.Context, identifier string) (*domain.User, error)

	// Update replaces the mutable fields of an existing user, including the
	// password hash. Returns ErrUserNotFound if the user does not exist and
	// ErrEmailExists if the new email is taken.
	Update(ctx context.Context, user *domain.User) error

	// UpdateLastLogin records a successful login.
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// Delete removes a user and, through the foreign key, their todos.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to the given transaction.
	WithTx(tx *sql.Tx) UserStore
}
