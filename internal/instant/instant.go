// Package instant derives time properties (time of day, day of week, ...) from a
// reference instant and a UTC offset.
package instant

import (
	"time"

	"github.com/danielpatrickdp/treedecide/internal/errs"
)

// #region time
// Time is a reference instant seen from a given timezone.
type Time struct {
	Timestamp   int64
	Timezone    string
	TimeOfDay   float64
	DayOfWeek   int // 0 is Monday
	DayOfMonth  int
	MonthOfYear int
	UTCISO      string
}

// New builds a Time from a POSIX timestamp. tz may be any value accepted by
// OffsetMinutes or an IANA location name; an empty tz uses the local zone.
func New(timestamp int64, tz any) (*Time, error) {
	loc, err := location(tz)
	if err != nil {
		return nil, err
	}
	return FromTime(time.Unix(timestamp, 0).In(loc)), nil
}

// Parse builds a Time from an ISO 8601 string such as "2017-03-20T09:22:54+0100".
// A non-empty tz converts the instant to that zone.
func Parse(iso string, tz any) (*Time, error) {
	var t time.Time
	var err error
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05-0700", "2006-01-02T15:04:05"} {
		t, err = time.Parse(layout, iso)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, errs.Timef("%q is not an ISO 8601 time.", iso)
	}
	if tz == nil || tz == "" {
		return FromTime(t), nil
	}
	loc, err := location(tz)
	if err != nil {
		return nil, err
	}
	return FromTime(t.In(loc)), nil
}

// FromTime derives every property from t in t's own location.
func FromTime(t time.Time) *Time {
	_, offset := t.Zone()
	return &Time{
		Timestamp:   t.Unix(),
		Timezone:    FormatOffset(offset / 60),
		TimeOfDay:   float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600,
		DayOfWeek:   (int(t.Weekday()) + 6) % 7,
		DayOfMonth:  t.Day(),
		MonthOfYear: int(t.Month()),
		UTCISO:      t.Format(time.RFC3339),
	}
}

// ToMap exposes the derived properties keyed by their property type names.
func (t *Time) ToMap() map[string]any {
	return map[string]any{
		"timestamp":     t.Timestamp,
		"timezone":      t.Timezone,
		"time_of_day":   t.TimeOfDay,
		"day_of_week":   t.DayOfWeek,
		"day_of_month":  t.DayOfMonth,
		"month_of_year": t.MonthOfYear,
		"utc_iso":       t.UTCISO,
	}
}

// #endregion time

// #region location
func location(tz any) (*time.Location, error) {
	if tz == nil || tz == "" {
		return time.Local, nil
	}
	if minutes, ok := OffsetMinutes(tz); ok {
		return time.FixedZone(FormatOffset(minutes), minutes*60), nil
	}
	if name, ok := tz.(string); ok {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc, nil
		}
	}
	return nil, errs.Timef("%v is not a valid timezone.", tz)
}

// #endregion location
