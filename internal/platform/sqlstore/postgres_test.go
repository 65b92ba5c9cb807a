//go:build integration

package sqlstore_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/domain"
	"github.com/phrazzld/doafter-api/internal/platform/sqlstore"
	"github.com/phrazzld/doafter-api/internal/store"
	"github.com/phrazzld/doafter-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgres_OwnerScopedQueries runs the dialect-specific paths (ILIKE
// search, pgconn error mapping) against a real PostgreSQL database.
func TestPostgres_OwnerScopedQueries(t *testing.T) {
	db := testdb.OpenPostgres(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		users := sqlstore.NewUserStore(db, sqlstore.Postgres, nil).WithTx(tx)
		todos := sqlstore.NewTodoStore(db, sqlstore.Postgres, nil).WithTx(tx)

		suffix := uuid.NewString()[:8]
		newUser := func(name string) *domain.User {
			user, err := domain.NewUser(name+suffix, name+suffix+"@example.com", "secret123")
			require.NoError(t, err)
			user.SetPasswordHash("$2a$12$hash-for-" + name)
			require.NoError(t, users.Create(ctx, user))
			return user
		}
		alice := newUser("alice")
		bob := newUser("bob")

		dup, err := domain.NewUser("alice"+suffix, "other"+suffix+"@example.com", "secret123")
		require.NoError(t, err)
		dup.SetPasswordHash("$2a$12$dup")
		assert.ErrorIs(t, users.Create(ctx, dup), store.ErrUsernameExists)

		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		create := func(owner uuid.UUID, draft domain.TodoDraft, offset time.Duration) *domain.Todo {
			todo, err := domain.NewTodo(owner, draft)
			require.NoError(t, err)
			todo.CreatedAt = base.Add(offset)
			todo.UpdatedAt = todo.CreatedAt
			require.NoError(t, todos.Create(ctx, todo))
			return todo
		}
		learn := create(alice.ID, domain.TodoDraft{Title: "Learn PostgreSQL", Tags: []string{"db"}}, 0)
		docs := create(alice.ID, domain.TodoDraft{Title: "Docs", Description: "read the postgres manual"}, time.Hour)
		foreign := create(bob.ID, domain.TodoDraft{Title: "Postgres for bob"}, 2*time.Hour)

		list, total, err := todos.List(ctx, alice.ID, store.TodoFilter{Search: "POSTGRE"}, store.Page{Number: 1, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, list, 2)
		assert.Equal(t, docs.ID, list[0].ID)
		assert.Equal(t, learn.ID, list[1].ID)
		assert.Equal(t, []string{"db"}, list[1].Tags)

		_, err = todos.GetByID(ctx, alice.ID, foreign.ID)
		assert.ErrorIs(t, err, store.ErrTodoNotFound)

		n, err := todos.SetCompleted(ctx, alice.ID, []uuid.UUID{learn.ID, foreign.ID}, true)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})
}
