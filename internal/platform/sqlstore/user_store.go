package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/platform/logger"
	"github.com/phrazzld/doafter-api/internal/store"
)

const userColumns = `id, username, email, hashed_password, first_name, last_name, avatar,
	is_active, last_login_at, created_at, updated_at`

// UserStore implements store.UserStore on database/sql.
type UserStore struct {
	db      store.DBTX
	dialect Dialect
	logger  *slog.Logger
}

// NewUserStore creates a UserStore. A nil logger falls back to slog.Default().
func NewUserStore(db store.DBTX, dialect Dialect, log *slog.Logger) *UserStore {
	if log == nil {
		log = slog.Default()
	}
	return &UserStore{
		db:      db,
		dialect: dialect,
		logger:  log.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*UserStore)(nil)

// WithTx implements store.UserStore.WithTx.
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{db: tx, dialect: s.dialect, logger: s.logger}
}

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if user.HashedPassword == "" {
		return fmt.Errorf("%w: user must carry a password hash before it is stored", store.ErrInvalidEntity)
	}
	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return err
	}

	query := s.dialect.Rebind(`
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.HashedPassword,
		nullStringArg(user.FirstName),
		nullStringArg(user.LastName),
		nullStringArg(user.Avatar),
		user.IsActive,
		s.dialect.nullTimeArg(user.LastLoginAt),
		s.dialect.timeArg(user.CreatedAt),
		s.dialect.timeArg(user.UpdatedAt),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("user conflicts with an existing account",
				slog.String("user_id", user.ID.String()),
				slog.String("error", err.Error()))
		} else {
			log.Error("failed to create user",
				slog.String("error", err.Error()),
				slog.String("user_id", user.ID.String()))
		}
		return wrapError("user", "create", err)
	}

	log.Debug("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := s.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return s.getOne(ctx, query, id)
}

// GetByLogin implements store.UserStore.GetByLogin. An identifier containing
// "@" is matched against emails only, anything else against usernames only.
func (s *UserStore) GetByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		query := s.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
		return s.getOne(ctx, query, domain.NormalizeEmail(identifier))
	}
	query := s.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE username = ?`)
	return s.getOne(ctx, query, identifier)
}

func (s *UserStore) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to query user", slog.String("error", err.Error()))
		return nil, wrapError("user", "get", err)
	}
	return user, nil
}

// Update implements store.UserStore.Update.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		return err
	}

	query := s.dialect.Rebind(`
		UPDATE users
		SET username = ?, email = ?, hashed_password = ?, first_name = ?, last_name = ?,
			avatar = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`)
	result, err := s.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.HashedPassword,
		nullStringArg(user.FirstName),
		nullStringArg(user.LastName),
		nullStringArg(user.Avatar),
		user.IsActive,
		s.dialect.timeArg(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return wrapError("user", "update", err)
	}

	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// UpdateLastLogin implements store.UserStore.UpdateLastLogin.
func (s *UserStore) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := s.dialect.Rebind(`UPDATE users SET last_login_at = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query, s.dialect.timeArg(at), id)
	if err != nil {
		return wrapError("user", "update last login", err)
	}
	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// Delete implements store.UserStore.Delete.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, s.dialect.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		log.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return wrapError("user", "delete", err)
	}

	return CheckRowsAffected(result, store.ErrUserNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                          domain.User
		first, last, avatar        sql.NullString
		lastLogin, created, update nullTime
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.HashedPassword,
		&first,
		&last,
		&avatar,
		&u.IsActive,
		&lastLogin,
		&created,
		&update,
	)
	if err != nil {
		return nil, err
	}

	u.FirstName = stringPtr(first)
	u.LastName = stringPtr(last)
	u.Avatar = stringPtr(avatar)
	u.LastLoginAt = lastLogin.ptr()
	u.CreatedAt = created.Time
	u.UpdatedAt = update.Time
	return &u, nil
}
