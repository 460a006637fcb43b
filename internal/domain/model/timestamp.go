package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Wire layouts for created_at: ISO-8601, UTC, no offset. Microseconds are
// printed only when non-zero, matching what existing score files contain.
const (
	layoutSeconds = "2006-01-02T15:04:05"
	layoutMicros  = "2006-01-02T15:04:05.000000"
)

// Timestamp is a UTC instant serialized without a timezone offset.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to UTC and drops precision below a microsecond so
// the value survives a round trip through the flat file unchanged.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Microsecond)}
}

// String renders the wire form.
func (t Timestamp) String() string {
	u := t.UTC()
	if u.Nanosecond()/int(time.Microsecond) == 0 {
		return u.Format(layoutSeconds)
	}
	return u.Format(layoutMicros)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the offset-less form and, for hand-edited files, RFC 3339.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("created_at must not be null")
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimestamp parses a created_at value. Values without an offset are UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	// time.Parse accepts any fractional width after the seconds field.
	if v, err := time.Parse(layoutSeconds, s); err == nil {
		return NewTimestamp(v), nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewTimestamp(v), nil
	}
	return Timestamp{}, fmt.Errorf("created_at: unsupported timestamp %q", s)
}
