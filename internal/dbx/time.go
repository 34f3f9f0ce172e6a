package dbx

import (
	"database/sql"
	"time"
)

// Timestamps are stored as INTEGER unix nanoseconds in UTC.

func ToUnix(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func FromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// ToNullUnix maps a nil time to SQL NULL.
func ToNullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: ToUnix(*t), Valid: true}
}

func FromNullUnix(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := FromUnix(n.Int64)
	return &t
}
