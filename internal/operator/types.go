package operator

import (
	"encoding/json"
	"fmt"
	"math"
)

// #region operator
// Operator is a comparison used by a decision rule. The set is closed: values are
// only produced by the constants below or by Parse.
type Operator string

const (
	Is     Operator = "is"
	In     Operator = "[in["
	Gte    Operator = ">="
	Lt     Operator = "<"
	IsNull Operator = "is_null"
)

// All lists every supported operator in wire order.
var All = []Operator{Is, In, Gte, Lt, IsNull}

// #endregion operator

// #region interval
// Interval is the operand of In: the half-open range [From, To). When From >= To the
// interval wraps around the domain boundary and accepts v >= From or v < To.
type Interval struct {
	From float64
	To   float64
}

// Wraps reports whether the interval crosses the domain boundary. This is the only
// place the compact from >= to encoding is interpreted.
func (i Interval) Wraps() bool {
	return i.From >= i.To
}

// Contains reports whether v lies in the interval.
func (i Interval) Contains(v float64) bool {
	if i.Wraps() {
		return v >= i.From || v < i.To
	}
	return v >= i.From && v < i.To
}

// MarshalJSON encodes the interval as a [from, to] pair.
func (i Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{i.From, i.To})
}

// UnmarshalJSON decodes a [from, to] pair.
func (i *Interval) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("interval: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("interval: expected 2 bounds, got %d", len(pair))
	}
	i.From, i.To = pair[0], pair[1]
	return nil
}

func (i Interval) String() string {
	return fmt.Sprintf("[%v, %v[", i.From, i.To)
}

// #endregion interval

// #region span
// Span is a set of reals stored as sorted, disjoint, non-adjacent half-open pieces.
// Bounds may be infinite, which lets Gte and Lt take part in interval algebra.
type Span []Interval

// Below returns the span (-inf, v).
func Below(v float64) Span {
	return Span{{From: math.Inf(-1), To: v}}
}

// AtLeast returns the span [v, +inf).
func AtLeast(v float64) Span {
	return Span{{From: v, To: math.Inf(1)}}
}

// #endregion span
