package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyDetectionsKeyUsesLocalDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 10:00 local on June 1st. UTC midnight of that instant still renders
	// as May 31st in this zone, so a UTC-truncated key would name the
	// wrong day for the whole morning.
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, loc)

	assert.Equal(t, "statistics:detections:daily:2025-06-01", dailyDetectionsKey(at))
	assert.NotEqual(t, dailyDetectionsKey(at), dailyDetectionsKey(at.Truncate(24*time.Hour)))
}

func TestStartOfDayKeepsLocalMidnight(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 00:30 local is still the previous day in UTC.
	at := time.Date(2025, 6, 1, 0, 30, 0, 0, loc)
	got := startOfDay(at)

	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.June, got.Month())
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, loc, got.Location())
}

func TestWriterAndReaderAgreeOnKeyAllDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	for hour := 0; hour < 24; hour++ {
		at := time.Date(2025, 6, 1, hour, 0, 0, 0, loc)
		assert.Equal(t, dailyDetectionsKey(at), dailyDetectionsKey(startOfDay(at)), "hour %d", hour)
	}
}
