package domain

import (
	"fmt"
	"time"
)

// Timestamp is a point in time in Unix milliseconds.
type Timestamp int64

// NewTimestamp fails on negative values.
func NewTimestamp(ms int64) (Timestamp, error) {
	if ms < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTimestamp, ms)
	}
	return Timestamp(ms), nil
}

// TimestampFromTime converts t to milliseconds.
func TimestampFromTime(t time.Time) (Timestamp, error) {
	return NewTimestamp(t.UnixMilli())
}

func (t Timestamp) Millis() int64           { return int64(t) }
func (t Timestamp) Before(u Timestamp) bool { return t < u }
func (t Timestamp) After(u Timestamp) bool  { return t > u }
func (t Timestamp) Time() time.Time         { return time.UnixMilli(int64(t)).UTC() }
func (t Timestamp) String() string          { return t.Time().Format(time.RFC3339Nano) }
