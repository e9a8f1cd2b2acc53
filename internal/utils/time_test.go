package contextutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormatTimestamp(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	ts := time.Date(2026, 3, 14, 10, 26, 53, 0, berlin)

	require.Equal(t, "2026-03-14T09:26:53Z", FormatTimestamp(ts))
	require.Equal(t, "", FormatTimestamp(time.Time{}))
}

func TestFormatOptionalTimestamp(t *testing.T) {
	require.Equal(t, "", FormatOptionalTimestamp(nil))

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.Equal(t, "2026-03-14T09:26:53Z", FormatOptionalTimestamp(&ts))
}
