package utils

import "time"

// TimestampLayout is the storage format for timestamps. UTC with a
// fixed-width fraction so text comparison matches time ordering on both
// sqlite and postgres.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTimestamp renders t for storage.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp reads a stored timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
