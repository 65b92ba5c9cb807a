package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service/auth"
	"github.com/phrazzld/doafter-api/internal/store"
)

// UserService provides account operations: registration, login, and profile
// and password maintenance.
type UserService interface {
	// Register creates a new account. The password is hashed before the user is persisted.
	// Returns a *domain.ValidationError for invalid input and store.ErrUsernameExists
	// or store.ErrEmailExists when the account would clash with an existing one.
	Register(ctx context.Context, username, email, password string) (*domain.User, error)

	// Authenticate verifies a username or email together with a password and
	// records the login time. Returns ErrInvalidCredentials on any mismatch.
	Authenticate(ctx context.Context, identifier, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// ChangePassword replaces the user's password after verifying the current one.
	// Returns ErrIncorrectPassword when currentPassword does not match.
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error

	// UpdateProfile applies a partial profile update and returns the updated user.
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch domain.ProfilePatch) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	hasher    auth.PasswordHasher
	db        *sql.DB
	logger    *slog.Logger
	now       func() time.Time
}

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	hasher auth.PasswordHasher,
	db *sql.DB,
	logger *slog.Logger,
) *UserServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserServiceImpl{
		userStore: userStore,
		hasher:    hasher,
		db:        db,
		logger:    logger.With("component", "user_service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register implements UserService.
func (s *UserServiceImpl) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(username, email, password)
	if err != nil {
		s.logger.Debug("rejected invalid registration",
			"error", err,
			"username", username)
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password",
			"error", err,
			"user_id", user.ID)
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	user.SetPasswordHash(hash)

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.logger.Debug("attempted to register an existing account",
				"username", user.Username,
				"error", err)
		} else {
			s.logger.Error("failed to save user to database",
				"error", err,
				"user_id", user.ID)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered successfully",
		"user_id", user.ID,
		"username", user.Username)

	return user, nil
}

// Authenticate implements UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	user, err := s.userStore.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("login attempt for unknown account")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for login", "error", err)
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("login attempt with wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.userStore.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login",
			"error", err,
			"user_id", user.ID)
	} else {
		user.LastLoginAt = &now
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, nil
}

// GetUser retrieves a user by their ID
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.logger.Debug("user not found", "user_id", userID)
		} else {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}

	return user, nil
}

// ChangePassword implements UserService.
// Runs in a single transaction.
func (s *UserServiceImpl) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	currentPassword, newPassword string,
) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			verr.Fields[0].Field = "newPassword"
		}
		return err
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			s.logger.Error("failed to retrieve user for password change",
				"error", err,
				"user_id", userID)
			return fmt.Errorf("failed to retrieve user for password change: %w", err)
		}

		if err := s.hasher.Compare(user.HashedPassword, currentPassword); err != nil {
			s.logger.Debug("password change with wrong current password", "user_id", userID)
			return ErrIncorrectPassword
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("failed to hash new password: %w", err)
		}
		user.SetPasswordHash(hash)
		user.UpdatedAt = s.now()

		if err := txStore.Update(ctx, user); err != nil {
			s.logger.Error("failed to update user password",
				"error", err,
				"user_id", userID)
			return fmt.Errorf("failed to update user password: %w", err)
		}

		s.logger.Info("user password updated successfully in transaction",
			"user_id", userID)
		return nil
	})
}

// UpdateProfile implements UserService.
// Following the pattern of getting the complete user first, then updating
// only the fields present in the patch.
func (s *UserServiceImpl) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	patch domain.ProfilePatch,
) (*domain.User, error) {
	if patch.Empty() {
		return nil, domain.NewValidationError("", "no profile fields to update", nil)
	}
	if patch.Email != nil {
		if err := domain.ValidateEmail(domain.NormalizeEmail(*patch.Email)); err != nil {
			return nil, err
		}
	}

	var updated *domain.User
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to retrieve user for profile update: %w", err)
		}

		user.ApplyProfile(patch)
		if err := user.Validate(); err != nil {
			return err
		}

		if err := txStore.Update(ctx, user); err != nil {
			if errors.Is(err, store.ErrEmailExists) {
				s.logger.Debug("attempted to update to an existing email",
					"user_id", userID)
			} else {
				s.logger.Error("failed to update user profile",
					"error", err,
					"user_id", userID)
			}
			return fmt.Errorf("failed to update user profile: %w", err)
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user profile updated successfully", "user_id", userID)
	return updated, nil
}
