package service_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/mocks"
	"github.com/phrazzld/doafter-api/internal/service"
	"github.com/phrazzld/doafter-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTxDB returns a sqlmock-backed database whose expectations are verified
// at the end of the test.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, sm, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, sm.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, sm
}

func existingUser() *domain.User {
	return &domain.User{
		ID:             uuid.New(),
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: "hashed:secret1",
		IsActive:       true,
		CreatedAt:      time.Now().Add(-24 * time.Hour),
		UpdatedAt:      time.Now().Add(-24 * time.Hour),
	}
}

func TestUserService_Register(t *testing.T) {
	t.Run("hashes the password before persisting", func(t *testing.T) {
		userStore := new(mocks.UserStore)
		hasher := &mocks.MockPasswordHasher{}
		userStore.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "alice" &&
				u.Email == "alice@example.com" &&
				u.HashedPassword == "hashed:secret1" &&
				u.Password == "" &&
				u.IsActive
		})).Return(nil)

		svc := service.NewUserService(userStore, hasher, nil, testLogger())
		user, err := svc.Register(context.Background(), "alice", " Alice@Example.com ", "secret1")

		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, 1, hasher.HashCallCount)
		userStore.AssertExpectations(t)
	})

	t.Run("invalid input never reaches the store", func(t *testing.T) {
		userStore := new(mocks.UserStore)
		hasher := &mocks.MockPasswordHasher{}

		svc := service.NewUserService(userStore, hasher, nil, testLogger())
		_, err := svc.Register(context.Background(), "al", "not-an-email", "123")

		require.Error(t, err)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Len(t, verr.Fields, 3)
		assert.Equal(t, 0, hasher.HashCallCount)
		userStore.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		userStore := new(mocks.UserStore)
		userStore.On("Create", mock.Anything, mock.Anything).Return(store.ErrUsernameExists)

		svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{}, nil, testLogger())
		_, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1")

		assert.ErrorIs(t, err, store.ErrUsernameExists)
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials record the login", func(t *testing.T) {
		user := existingUser()
		userStore := new(mocks.UserStore)
		userStore.On("GetByLogin", mock.Anything, "alice").Return(user, nil)
		userStore.On("UpdateLastLogin", mock.Anything, user.ID, mock.AnythingOfType("time.Time")).Return(nil)
		hasher := &mocks.MockPasswordHasher{ShouldSucceed: true}

		svc := service.NewUserService(userStore, hasher, nil, testLogger())
		got, err := svc.Authenticate(ctx, "alice", "secret1")

		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		require.NotNil(t, got.LastLoginAt)
		assert.Equal(t, "hashed:secret1", hasher.CompareCalledWith.HashedPassword)
		assert.Equal(t, "secret1", hasher.CompareCalledWith.Password)
		userStore.AssertExpectations(t)
	})

	t.Run("last login failure does not fail the login", func(t *testing.T) {
		user := existingUser()
		userStore := new(mocks.UserStore)
		userStore.On("GetByLogin", mock.Anything, "alice@example.com").Return(user, nil)
		userStore.On("UpdateLastLogin", mock.Anything, user.ID, mock.Anything).Return(errors.New("disk full"))

		svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{ShouldSucceed: true}, nil, testLogger())
		got, err := svc.Authenticate(ctx, "alice@example.com", "secret1")

		require.NoError(t, err)
		assert.Nil(t, got.LastLoginAt)
	})

	tests := []struct {
		name       string
		lookupUser *domain.User
		lookupErr  error
		passwordOK bool
		wantErr    error
	}{
		{"unknown user", nil, store.ErrUserNotFound, true, service.ErrInvalidCredentials},
		{"wrong password", existingUser(), nil, false, service.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userStore := new(mocks.UserStore)
			userStore.On("GetByLogin", mock.Anything, "alice").Return(tt.lookupUser, tt.lookupErr)

			svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{ShouldSucceed: tt.passwordOK}, nil, testLogger())
			user, err := svc.Authenticate(ctx, "alice", "secret1")

			assert.Nil(t, user)
			assert.ErrorIs(t, err, tt.wantErr)
			userStore.AssertNotCalled(t, "UpdateLastLogin", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("store failure is not reported as bad credentials", func(t *testing.T) {
		userStore := new(mocks.UserStore)
		userStore.On("GetByLogin", mock.Anything, "alice").Return(nil, errors.New("connection refused"))

		svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{}, nil, testLogger())
		_, err := svc.Authenticate(ctx, "alice", "secret1")

		require.Error(t, err)
		assert.NotErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestUserService_GetUser(t *testing.T) {
	user := existingUser()
	userStore := new(mocks.UserStore)
	userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	missing := uuid.New()
	userStore.On("GetByID", mock.Anything, missing).Return(nil, store.ErrUserNotFound)

	svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{}, nil, testLogger())

	got, err := svc.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = svc.GetUser(context.Background(), missing)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("successful change", func(t *testing.T) {
		db, sm := newTxDB(t)
		sm.ExpectBegin()
		sm.ExpectCommit()

		user := existingUser()
		createdAt := user.CreatedAt
		userStore := new(mocks.UserStore)
		userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		userStore.On("Update", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.ID == user.ID &&
				u.HashedPassword == "hashed:newsecret" &&
				u.Email == "alice@example.com" &&
				u.CreatedAt.Equal(createdAt)
		})).Return(nil)

		svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{ShouldSucceed: true}, db, testLogger())
		err := svc.ChangePassword(ctx, user.ID, "secret1", "newsecret")

		require.NoError(t, err)
		userStore.AssertExpectations(t)
	})

	t.Run("wrong current password rolls back", func(t *testing.T) {
		db, sm := newTxDB(t)
		sm.ExpectBegin()
		sm.ExpectRollback()

		user := existingUser()
		userStore := new(mocks.UserStore)
		userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)

		svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{ShouldSucceed: false}, db, testLogger())
		err := svc.ChangePassword(ctx, user.ID, "wrong", "newsecret")

		assert.ErrorIs(t, err, service.ErrIncorrectPassword)
		userStore.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("invalid new password is rejected before the transaction", func(t *testing.T) {
		db, _ := newTxDB(t)
		userStore := new(mocks.UserStore)

		svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{ShouldSucceed: true}, db, testLogger())
		err := svc.ChangePassword(ctx, uuid.New(), "secret1", "123")

		require.Error(t, err)
		var verr *domain.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "newPassword", verr.Fields[0].Field)
	})

	t.Run("update failure rolls back", func(t *testing.T) {
		db, sm := newTxDB(t)
		sm.ExpectBegin()
		sm.ExpectRollback()

		user := existingUser()
		userStore := new(mocks.UserStore)
		userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		userStore.On("Update", mock.Anything, mock.Anything).Return(errors.New("database error"))

		svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{ShouldSucceed: true}, db, testLogger())
		err := svc.ChangePassword(ctx, user.ID, "secret1", "newsecret")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update user password")
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("applies present fields only", func(t *testing.T) {
		db, sm := newTxDB(t)
		sm.ExpectBegin()
		sm.ExpectCommit()

		user := existingUser()
		avatar := "https://example.com/a.png"
		user.Avatar = &avatar
		userStore := new(mocks.UserStore)
		userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		userStore.On("Update", mock.Anything, mock.Anything).Return(nil)

		svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{}, db, testLogger())
		newEmail := "NEW@example.com"
		got, err := svc.UpdateProfile(ctx, user.ID, domain.ProfilePatch{
			FirstName: domain.Some("Alice"),
			Avatar:    domain.Null[string](),
			Email:     &newEmail,
		})

		require.NoError(t, err)
		require.NotNil(t, got.FirstName)
		assert.Equal(t, "Alice", *got.FirstName)
		assert.Nil(t, got.LastName)
		assert.Nil(t, got.Avatar)
		assert.Equal(t, "new@example.com", got.Email)
	})

	t.Run("taken email is a conflict", func(t *testing.T) {
		db, sm := newTxDB(t)
		sm.ExpectBegin()
		sm.ExpectRollback()

		user := existingUser()
		userStore := new(mocks.UserStore)
		userStore.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		userStore.On("Update", mock.Anything, mock.Anything).Return(store.ErrEmailExists)

		svc := service.NewUserService(userStore, &mocks.MockPasswordHasher{}, db, testLogger())
		email := "bob@example.com"
		_, err := svc.UpdateProfile(ctx, user.ID, domain.ProfilePatch{Email: &email})

		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name  string
			patch domain.ProfilePatch
		}{
			{"empty patch", domain.ProfilePatch{}},
			{"invalid email", domain.ProfilePatch{Email: func() *string { s := "nope"; return &s }()}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc := service.NewUserService(new(mocks.UserStore), &mocks.MockPasswordHasher{}, nil, testLogger())
				_, err := svc.UpdateProfile(ctx, uuid.New(), tt.patch)
				assert.ErrorIs(t, err, domain.ErrValidation)
			})
		}
	})
}
