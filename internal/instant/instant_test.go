package instant

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/treedecide/internal/errs"
)

func TestNew_TimezoneFormats(t *testing.T) {
	for _, tz := range []string{"+01:00", "CET", "+0100", "+01"} {
		tm, err := New(1356998400, tz)
		require.NoError(t, err, tz)
		assert.Equal(t, "+01:00", tm.Timezone, tz)
	}

	tm, err := New(1356998400, "CST")
	require.NoError(t, err)
	assert.Equal(t, "-06:00", tm.Timezone)
}

func TestNew_DerivedProperties(t *testing.T) {
	// 2017-03-20T08:22:54Z, a Monday.
	tm, err := New(1489998174, "+01:00")
	require.NoError(t, err)

	assert.Equal(t, int64(1489998174), tm.Timestamp)
	assert.Equal(t, 0, tm.DayOfWeek)
	assert.Equal(t, 20, tm.DayOfMonth)
	assert.Equal(t, 3, tm.MonthOfYear)
	assert.InDelta(t, 9+22.0/60+54.0/3600, tm.TimeOfDay, 1e-9)
	assert.Equal(t, "2017-03-20T09:22:54+01:00", tm.UTCISO)

	m := tm.ToMap()
	assert.Equal(t, 3, m["month_of_year"])
	assert.Equal(t, "+01:00", m["timezone"])
}

func TestNew_InvalidTimezone(t *testing.T) {
	_, err := New(0, "Mars/Olympus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrTime))
}

func TestParse(t *testing.T) {
	tm, err := Parse("2016-10-20T08:20:03+0200", nil)
	require.NoError(t, err)
	assert.Equal(t, "+02:00", tm.Timezone)
	assert.Equal(t, 3, tm.DayOfWeek)

	tm, err = Parse("2016-10-20T08:20:03+02:00", "UTC")
	require.NoError(t, err)
	assert.Equal(t, "+00:00", tm.Timezone)
	assert.InDelta(t, 6+20.0/60+3.0/3600, tm.TimeOfDay, 1e-9)

	_, err = Parse("yesterday", nil)
	assert.True(t, errors.Is(err, errs.ErrTime))
}

func TestFromTime_Sunday(t *testing.T) {
	tm := FromTime(time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, 6, tm.DayOfWeek)
}

func TestNormalizeTimezone(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{"+02:00", "+02:00", true},
		{"-0530", "-05:30", true},
		{"+14", "+14:00", true},
		{"utc", "+00:00", true},
		{60, "+01:00", true},
		{-330.0, "-05:30", true},
		{"+15:00", "", false},
		{"+01:75", "", false},
		{"tomorrow", "", false},
		{true, "", false},
	}
	for _, tc := range tests {
		got, ok := NormalizeTimezone(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}
