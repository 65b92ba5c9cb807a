package sqlstore

import (
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/doafter-api/internal/store"
)

const todoColumns = `id, user_id, title, description, completed, priority, due_date, tags,
	estimated_hours, actual_hours, created_at, updated_at`

// todoQuery accumulates the WHERE clause of a todo statement. It can only be
// created through newTodoQuery, which installs the owner predicate first;
// there is no way to remove a predicate once added.
type todoQuery struct {
	dialect Dialect
	conds   []string
	args    []any
}

func newTodoQuery(d Dialect, ownerID uuid.UUID) *todoQuery {
	q := &todoQuery{dialect: d}
	return q.and("user_id = ?", ownerID)
}

func (q *todoQuery) and(cond string, args ...any) *todoQuery {
	q.conds = append(q.conds, cond)
	q.args = append(q.args, args...)
	return q
}

// withFilter adds the optional listing predicates.
func (q *todoQuery) withFilter(f store.TodoFilter) *todoQuery {
	if f.Completed != nil {
		q.and("completed = ?", *f.Completed)
	}
	if f.Priority != nil {
		q.and("priority = ?", string(*f.Priority))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(s) + "%"
		q.and("("+q.dialect.caseInsensitiveMatch("title")+" OR "+q.dialect.caseInsensitiveMatch("description")+")",
			pattern, pattern)
	}
	return q
}

// withIDs restricts the statement to the given ids. An empty list matches nothing.
func (q *todoQuery) withIDs(ids []uuid.UUID) *todoQuery {
	if len(ids) == 0 {
		return q.and("1 = 0")
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return q.and("id IN ("+strings.Join(placeholders, ", ")+")", args...)
}

func (q *todoQuery) where() string {
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// render assembles head + WHERE + tail and rebinds placeholders. headArgs
// belong to placeholders in head (for example a SET list), tailArgs to tail.
func (q *todoQuery) render(head string, headArgs []any, tail string, tailArgs ...any) (string, []any) {
	args := make([]any, 0, len(headArgs)+len(q.args)+len(tailArgs))
	args = append(args, headArgs...)
	args = append(args, q.args...)
	args = append(args, tailArgs...)
	return q.dialect.Rebind(head + q.where() + tail), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
