package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKey(t *testing.T) {
	ts := time.Date(2026, 10, 16, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-16", DayKey(ts, nil))
	assert.Equal(t, "2026-10-16", DayKey(ts, time.UTC))

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", DayKey(ts, tokyo))
}

func TestIsDayKey(t *testing.T) {
	assert.True(t, IsDayKey("2026-10-16"))
	assert.False(t, IsDayKey("theme"))
	assert.False(t, IsDayKey("2026-13-01"))
}

func TestDayRange(t *testing.T) {
	keys, err := DayRange("2026-02-27", "2026-03-02", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-27", "2026-02-28", "2026-03-01", "2026-03-02"}, keys)

	keys, err = DayRange("2026-03-02", "2026-02-28", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-02-28", "2026-03-01", "2026-03-02"}, keys)

	keys, err = DayRange("2026-10-16", "2026-10-16", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-10-16"}, keys)
}

func TestDayRange_Errors(t *testing.T) {
	_, err := DayRange("yesterday", "2026-10-16", 0)
	assert.ErrorIs(t, err, ErrInvalidDayKey)

	_, err = DayRange("2026-01-01", "2026-12-31", 30)
	assert.ErrorIs(t, err, ErrRangeTooLarge)
}
