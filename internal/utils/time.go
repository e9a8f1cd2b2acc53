package contextutils

import (
	"time"
)

// TimestampLayout is the wire format of every timestamp the API returns
const TimestampLayout = time.RFC3339

// FormatTimestamp renders t in UTC. The zero time renders as "".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// FormatOptionalTimestamp renders a nullable timestamp, "" when absent
func FormatOptionalTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTimestamp(*t)
}
