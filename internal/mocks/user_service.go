package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/service"
)

// MockUserService implements service.UserService for testing
type MockUserService struct {
	// Custom behavior functions
	RegisterFn       func(ctx context.Context, username, email, password string) (*domain.User, error)
	AuthenticateFn   func(ctx context.Context, identifier, password string) (*domain.User, error)
	GetUserFn        func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ChangePasswordFn func(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	UpdateProfileFn  func(ctx context.Context, userID uuid.UUID, patch domain.ProfilePatch) (*domain.User, error)

	// Default return values
	User         *domain.User
	DefaultError error
}

var _ service.UserService = (*MockUserService)(nil)

// Register implements the UserService.Register method
func (m *MockUserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, username, email, password)
	}
	return m.User, m.DefaultError
}

// Authenticate implements the UserService.Authenticate method
func (m *MockUserService) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx, identifier, password)
	}
	return m.User, m.DefaultError
}

// GetUser implements the UserService.GetUser method
func (m *MockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, userID)
	}
	return m.User, m.DefaultError
}

// ChangePassword implements the UserService.ChangePassword method
func (m *MockUserService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if m.ChangePasswordFn != nil {
		return m.ChangePasswordFn(ctx, userID, currentPassword, newPassword)
	}
	return m.DefaultError
}

// UpdateProfile implements the UserService.UpdateProfile method
func (m *MockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch domain.ProfilePatch) (*domain.User, error) {
	if m.UpdateProfileFn != nil {
		return m.UpdateProfileFn(ctx, userID, patch)
	}
	return m.User, m.DefaultError
}
