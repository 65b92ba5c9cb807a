package sqlstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// nullTime scans timestamps from either dialect: PostgreSQL yields time.Time,
// SQLite yields RFC 3339 text.
type nullTime struct {
	Time  time.Time
	Valid bool
}

func (n *nullTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Time, n.Valid = time.Time{}, false
		return nil
	case time.Time:
		n.Time, n.Valid = v.UTC(), true
		return nil
	case string:
		return n.parse(v)
	case []byte:
		return n.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (n *nullTime) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	n.Time, n.Valid = t.UTC(), true
	return nil
}

func (n nullTime) ptr() *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// tagList stores a todo's tags as a JSON array (JSONB on PostgreSQL, TEXT on SQLite).
type tagList []string

func (t *tagList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*t = []string{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into tags", src)
	}

	tags := []string{}
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("invalid tags column: %w", err)
	}
	*t = tags
	return nil
}

func tagsArg(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func nullFloatArg(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullStringArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	v := n.String
	return &v
}
