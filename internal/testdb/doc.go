// Package testdb provides utilities for database tests.
//
// Open returns a fresh in-memory SQLite database with the full schema
// applied, so store, service and router tests run without external services.
// OpenPostgres does the same against DATABASE_URL and skips the test when
// that variable is unset.
//
// Tests that share one database can isolate their writes with WithTx, which
// rolls the transaction back when the callback returns:
//
//	db := testdb.Open(t)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	    todos := sqlstore.NewTodoStore(tx, sqlstore.SQLite, nil)
//	    ...
//	})
package testdb
