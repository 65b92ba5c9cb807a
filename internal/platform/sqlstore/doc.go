// Package sqlstore implements the store interfaces on database/sql for two
// dialects: PostgreSQL through pgx and SQLite through modernc.org/sqlite.
//
// Todo queries are assembled by an owner-rooted builder whose first predicate
// is always the owner match, so no code path in this package can issue an
// unscoped todo query. Schemas for both dialects are embedded and applied
// with goose.
package sqlstore
