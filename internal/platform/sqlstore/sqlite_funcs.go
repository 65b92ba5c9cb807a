package sqlstore

import (
	"database/sql/driver"
	"strings"

	msqlite "modernc.org/sqlite"
)

// unicodeLowerFunc is a SQLite scalar function that lowercases text with Go's
// Unicode tables. SQLite's own lower() and LIKE only fold ASCII.
const unicodeLowerFunc = "unicode_lower"

func init() {
	msqlite.MustRegisterDeterministicScalarFunction(unicodeLowerFunc, 1, unicodeLower)
}

func unicodeLower(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
