package instant

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielpatrickdp/treedecide/internal/operator"
)

// #region abbreviations
// abbreviations maps common timezone abbreviations to fixed UTC offsets in minutes.
var abbreviations = map[string]int{
	"UTC":  0,
	"GMT":  0,
	"Z":    0,
	"WET":  0,
	"WEST": 60,
	"BST":  60,
	"CET":  60,
	"CEST": 120,
	"EET":  120,
	"EEST": 180,
	"MSK":  180,
	"IST":  330,
	"AWST": 480,
	"JST":  540,
	"KST":  540,
	"ACST": 570,
	"AEST": 600,
	"AEDT": 660,
	"NZST": 720,
	"NZDT": 780,
	"HST":  -600,
	"AKST": -540,
	"AKDT": -480,
	"PST":  -480,
	"PDT":  -420,
	"MST":  -420,
	"MDT":  -360,
	"CST":  -360,
	"CDT":  -300,
	"EST":  -300,
	"EDT":  -240,
}

// #endregion abbreviations

// #region offsets
var offsetPattern = regexp.MustCompile(`^([+-])(\d{2}):?(\d{2})?$`)

// maxOffsetMinutes bounds real-world UTC offsets (UTC-12:00 to UTC+14:00).
const (
	minOffsetMinutes = -12 * 60
	maxOffsetMinutes = 14 * 60
)

// OffsetMinutes parses a timezone value into its UTC offset in minutes. Accepted
// forms are "±HH:MM", "±HHMM", "±HH", a known abbreviation, or a number of minutes.
func OffsetMinutes(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return parseOffsetString(s)
	}
	minutes, ok := operator.Integer(v)
	if !ok || minutes < minOffsetMinutes || minutes > maxOffsetMinutes {
		return 0, false
	}
	return minutes, true
}

func parseOffsetString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if m, ok := abbreviations[strings.ToUpper(s)]; ok {
		return m, true
	}
	parts := offsetPattern.FindStringSubmatch(s)
	if parts == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(parts[2])
	minutes := 0
	if parts[3] != "" {
		minutes, _ = strconv.Atoi(parts[3])
	}
	if minutes >= 60 {
		return 0, false
	}
	total := hours*60 + minutes
	if parts[1] == "-" {
		total = -total
	}
	if total < minOffsetMinutes || total > maxOffsetMinutes {
		return 0, false
	}
	return total, true
}

// IsTimezone reports whether v is an acceptable timezone value.
func IsTimezone(v any) bool {
	_, ok := OffsetMinutes(v)
	return ok
}

// NormalizeTimezone renders a timezone value in the standard "±HH:MM" form.
func NormalizeTimezone(v any) (string, bool) {
	minutes, ok := OffsetMinutes(v)
	if !ok {
		return "", false
	}
	return FormatOffset(minutes), true
}

// FormatOffset renders minutes east of UTC as "±HH:MM".
func FormatOffset(minutes int) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d:%02d", sign, minutes/60, minutes%60)
}

// #endregion offsets
