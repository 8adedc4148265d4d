package operator

import (
	"encoding/json"
	"math"
	"reflect"

	"github.com/danielpatrickdp/treedecide/internal/errs"
)

// #region parse
// Parse maps a wire string to an Operator. Unknown strings are a format error.
func Parse(s string) (Operator, error) {
	for _, op := range All {
		if string(op) == s {
			return op, nil
		}
	}
	return "", errs.Formatf("%s is not a valid decision operator.", s)
}

// #endregion parse

// #region apply
// Apply evaluates "value <op> operand". An absent (nil) value only satisfies IsNull;
// callers that must reject absent values check before calling.
func Apply(op Operator, value, operand any) (bool, error) {
	switch op {
	case IsNull:
		return value == nil && operand == nil, nil
	case Is:
		if value == nil {
			return false, nil
		}
		return Equal(value, operand), nil
	case Gte, Lt:
		if value == nil {
			return false, nil
		}
		return compare(op, value, operand)
	case In:
		if value == nil {
			return false, nil
		}
		interval, ok := AsInterval(operand)
		if !ok {
			return false, errs.Formatf("%v is not a valid operand for operator '%s'.", operand, op)
		}
		v, ok := Float(value)
		if !ok {
			return false, errs.Formatf("value %v cannot be compared with operator '%s'.", value, op)
		}
		return interval.Contains(v), nil
	default:
		return false, errs.Formatf("%s is not a valid decision operator.", op)
	}
}

func compare(op Operator, value, operand any) (bool, error) {
	if a, ok := Float(value); ok {
		b, ok := Float(operand)
		if !ok {
			return false, errs.Formatf("%v is not a valid operand for operator '%s'.", operand, op)
		}
		if op == Gte {
			return a >= b, nil
		}
		return a < b, nil
	}
	a, aok := value.(string)
	b, bok := operand.(string)
	if !aok || !bok {
		return false, errs.Formatf("value %v cannot be compared with operator '%s'.", value, op)
	}
	if op == Gte {
		return a >= b, nil
	}
	return a < b, nil
}

// #endregion apply

// #region coercion
// Float coerces a numeric value to float64. Strings and booleans are not numeric.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Integer reports whether v is numeric with no fractional part.
func Integer(v any) (int, bool) {
	f, ok := Float(v)
	if !ok || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// Equal is exact equality. Numbers compare by value whatever their Go type.
func Equal(a, b any) bool {
	if x, ok := Float(a); ok {
		y, ok := Float(b)
		return ok && x == y
	}
	if x, ok := a.(string); ok {
		y, ok := b.(string)
		return ok && x == y
	}
	return reflect.DeepEqual(a, b)
}

// AsInterval accepts an Interval or a two-element numeric slice.
func AsInterval(v any) (Interval, bool) {
	switch t := v.(type) {
	case Interval:
		return t, true
	case *Interval:
		if t == nil {
			return Interval{}, false
		}
		return *t, true
	case [2]float64:
		return Interval{From: t[0], To: t[1]}, true
	case []float64:
		if len(t) != 2 {
			return Interval{}, false
		}
		return Interval{From: t[0], To: t[1]}, true
	case []any:
		if len(t) != 2 {
			return Interval{}, false
		}
		from, ok := Float(t[0])
		if !ok {
			return Interval{}, false
		}
		to, ok := Float(t[1])
		if !ok {
			return Interval{}, false
		}
		return Interval{From: from, To: to}, true
	default:
		return Interval{}, false
	}
}

// #endregion coercion

// #region span-algebra
// Decode turns an interval into its span. A wrapping interval becomes the two pieces
// [From, +inf) and (-inf, To).
func Decode(i Interval) Span {
	if !i.Wraps() {
		return Span{i}
	}
	return normalize(Span{
		{From: math.Inf(-1), To: i.To},
		{From: i.From, To: math.Inf(1)},
	})
}

// Intersect returns the values present in both spans.
func (s Span) Intersect(t Span) Span {
	var out Span
	for _, a := range s {
		for _, b := range t {
			piece := Interval{From: math.Max(a.From, b.From), To: math.Min(a.To, b.To)}
			if piece.From < piece.To {
				out = append(out, piece)
			}
		}
	}
	return normalize(out)
}

// Empty reports whether the span holds no value.
func (s Span) Empty() bool {
	return len(s) == 0
}

// Encode converts the span back to a single interval. A span reaching both infinities
// in two pieces becomes a wrapping interval; anything else that is not one piece
// cannot be encoded and ok is false.
func (s Span) Encode() (Interval, bool) {
	switch len(s) {
	case 1:
		return s[0], true
	case 2:
		lo, hi := s[0], s[1]
		if math.IsInf(lo.From, -1) && math.IsInf(hi.To, 1) {
			return Interval{From: hi.From, To: lo.To}, true
		}
	}
	return Interval{}, false
}

// normalize sorts pieces and merges those that touch or overlap.
func normalize(s Span) Span {
	if len(s) < 2 {
		return s
	}
	sorted := make(Span, len(s))
	copy(sorted, s)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].From < sorted[j-1].From; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	out := Span{sorted[0]}
	for _, p := range sorted[1:] {
		last := &out[len(out)-1]
		if p.From <= last.To {
			last.To = math.Max(last.To, p.To)
			continue
		}
		out = append(out, p)
	}
	return out
}

// #endregion span-algebra

func (o Operator) String() string { return string(o) }

// Valid reports whether o is one of the supported operators.
func (o Operator) Valid() bool {
	_, err := Parse(string(o))
	return err == nil
}
