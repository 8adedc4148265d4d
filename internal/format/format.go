// Package format renders property values and decision rules as human readable text.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/operator"
	"github.com/danielpatrickdp/treedecide/internal/rule"
	"github.com/danielpatrickdp/treedecide/internal/tree"
)

var (
	dayNames   = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
)

// #region properties
var propertyFormatters = map[tree.PropertyType]func(any) string{
	tree.Continuous:  continuous,
	tree.TimeOfDay:   timeOfDay,
	tree.DayOfWeek:   dayOfWeek,
	tree.DayOfMonth:  dayOfMonth,
	tree.MonthOfYear: monthOfYear,
}

// Property returns the value formatter for a property type. Types without a dedicated
// formatter, enum and timezone included, render values as is.
func Property(t tree.PropertyType) func(any) string {
	if f, ok := propertyFormatters[t]; ok {
		return f
	}
	return raw
}

func raw(v any) string {
	return fmt.Sprint(v)
}

func continuous(v any) string {
	f, ok := operator.Float(v)
	if !ok {
		return raw(v)
	}
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func timeOfDay(v any) string {
	if t, ok := v.(time.Time); ok {
		if t.Second() != 0 {
			return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
		}
		return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
	}
	f, ok := operator.Float(v)
	if !ok {
		return raw(v)
	}
	hours := math.Floor(f)
	fracMinutes := (f - hours) * 60
	minutes := math.Floor(fracMinutes)
	seconds := math.Floor((fracMinutes - minutes) * 60)
	if seconds != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", int(hours), int(minutes), int(seconds))
	}
	return fmt.Sprintf("%02d:%02d", int(hours), int(minutes))
}

func dayOfWeek(v any) string {
	if t, ok := v.(time.Time); ok {
		return dayNames[(int(t.Weekday())+6)%7]
	}
	n, ok := operator.Integer(v)
	if !ok || n < 0 || n > 6 {
		return raw(v)
	}
	return dayNames[n]
}

func dayOfMonth(v any) string {
	if t, ok := v.(time.Time); ok {
		return strconv.Itoa(t.Day())
	}
	if n, ok := operator.Integer(v); ok {
		return strconv.Itoa(n)
	}
	return raw(v)
}

func monthOfYear(v any) string {
	if t, ok := v.(time.Time); ok {
		return monthNames[t.Month()-1]
	}
	n, ok := operator.Integer(v)
	if !ok || n < 1 || n > 12 {
		return raw(v)
	}
	return monthNames[n-1]
}

// #endregion properties

// #region rules
// DecisionRule renders the condition of p, without the property name, for a property
// of type t.
func DecisionRule(p rule.Predicate, t tree.PropertyType) (string, error) {
	value := Property(t)
	switch p.Operator {
	case operator.Is:
		return "is " + value(p.Operand), nil
	case operator.IsNull:
		return "is null", nil
	case operator.Gte:
		return ">= " + value(p.Operand), nil
	case operator.Lt:
		return "< " + value(p.Operand), nil
	case operator.In:
		interval, ok := p.Interval()
		if !ok {
			return "", errs.Formatf("%v is not a valid operand for operator '%s'.", p.Operand, p.Operator)
		}
		return formatInterval(interval, t, value), nil
	default:
		return "", errs.Formatf("unable to format the unknown operator '%s'.", p.Operator)
	}
}

func formatInterval(i operator.Interval, t tree.PropertyType, value func(any) string) string {
	from, to := int(math.Floor(i.From)), int(math.Floor(i.To))
	switch t {
	case tree.DayOfWeek:
		if to-from == 1 || (from == 6 && to == 0) {
			return value(from)
		}
		return value(from) + " to " + value((7+to-1)%7)
	case tree.MonthOfYear:
		if to-from == 1 || (from == 12 && to == 1) {
			return value(from)
		}
		last := (12 + to - 1) % 12
		if last == 0 {
			last = 12
		}
		return value(from) + " to " + value(last)
	default:
		return "[" + value(i.From) + ", " + value(i.To) + "["
	}
}

// Path renders every predicate of a decision path as "<property> <condition>", using
// the type each property has in cfg.
func Path(predicates []rule.Predicate, cfg tree.Configuration) ([]string, error) {
	out := make([]string, 0, len(predicates))
	for _, p := range predicates {
		text, err := DecisionRule(p, cfg.Context[p.Property].Type)
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", p.Property, err)
		}
		out = append(out, p.Property+" "+text)
	}
	return out, nil
}

// #endregion rules
