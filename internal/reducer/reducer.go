// Package reducer merges the predicates of a decision path into a canonical set holding
// at most one predicate per property.
//
// Range predicates (In, Gte, Lt) are folded as sets of reals, so the result does not
// depend on the order of the input and reducing a reduced set is a no-op.
package reducer

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/operator"
	"github.com/danielpatrickdp/treedecide/internal/rule"
)

// #region reduce
// Reduce returns one predicate per property, in order of first occurrence.
func Reduce(predicates []rule.Predicate) ([]rule.Predicate, error) {
	var order []string
	groups := make(map[string][]rule.Predicate)
	for _, p := range predicates {
		if _, seen := groups[p.Property]; !seen {
			order = append(order, p.Property)
		}
		groups[p.Property] = append(groups[p.Property], p)
	}

	out := make([]rule.Predicate, 0, len(order))
	for _, property := range order {
		merged, err := reduceProperty(property, groups[property])
		if err != nil {
			return nil, err
		}
		out = append(out, merged)
	}
	return out, nil
}

// #endregion reduce

// #region property
func reduceProperty(property string, group []rule.Predicate) (rule.Predicate, error) {
	if len(group) == 1 {
		return group[0], nil
	}

	first := group[0].Operator
	for _, p := range group[1:] {
		if exclusive(first) || exclusive(p.Operator) {
			if p.Operator != first {
				return rule.Predicate{}, &errs.ReductionError{
					Property: property,
					Message:  fmt.Sprintf("operator '%s' cannot be combined with '%s'", first, p.Operator),
				}
			}
		}
	}

	switch first {
	case operator.Is:
		return reduceIs(property, group)
	case operator.IsNull:
		return group[0], nil
	default:
		return reduceRange(property, group)
	}
}

// exclusive operators only merge with themselves.
func exclusive(op operator.Operator) bool {
	return op == operator.Is || op == operator.IsNull
}

func reduceIs(property string, group []rule.Predicate) (rule.Predicate, error) {
	want := group[0].Operand
	for _, p := range group[1:] {
		if !operator.Equal(want, p.Operand) {
			return rule.Predicate{}, &errs.ReductionError{
				Property: property,
				Message:  fmt.Sprintf("'is' operands %v and %v differ", want, p.Operand),
			}
		}
	}
	return group[0], nil
}

// #endregion property

// #region range
// reduceRange intersects the spans of every In, Gte and Lt predicate and encodes the
// result as the tightest single predicate.
func reduceRange(property string, group []rule.Predicate) (rule.Predicate, error) {
	span := operator.Span{{From: math.Inf(-1), To: math.Inf(1)}}
	var firstIn *rule.Predicate
	for i, p := range group {
		s, err := spanOf(property, p)
		if err != nil {
			return rule.Predicate{}, err
		}
		if p.Operator == operator.In && firstIn == nil {
			firstIn = &group[i]
		}
		span = span.Intersect(s)
	}

	if span.Empty() {
		return rule.Predicate{}, &errs.ReductionError{Property: property, Message: "the intersection of the rules is empty"}
	}
	interval, ok := span.Encode()
	if !ok {
		return rule.Predicate{}, &errs.ReductionError{Property: property, Message: "the intersection of the rules is not a single interval"}
	}

	lowOpen := math.IsInf(interval.From, -1)
	highOpen := math.IsInf(interval.To, 1)
	switch {
	case lowOpen && highOpen:
		// Only a wrapping In covering the whole domain gets here.
		if firstIn != nil {
			return *firstIn, nil
		}
		return group[0], nil
	case lowOpen:
		return rule.New(property, operator.Lt, interval.To)
	case highOpen:
		return rule.New(property, operator.Gte, interval.From)
	default:
		return rule.New(property, operator.In, interval)
	}
}

func spanOf(property string, p rule.Predicate) (operator.Span, error) {
	if p.Operator == operator.In {
		interval, ok := p.Interval()
		if !ok {
			return nil, &errs.ReductionError{Property: property, Message: fmt.Sprintf("invalid interval %v", p.Operand)}
		}
		return operator.Decode(interval), nil
	}

	bound, ok := operator.Float(p.Operand)
	if !ok {
		return nil, &errs.ReductionError{
			Property: property,
			Message:  fmt.Sprintf("operand %v of '%s' is not numeric", p.Operand, p.Operator),
		}
	}
	if p.Operator == operator.Gte {
		return operator.AtLeast(bound), nil
	}
	return operator.Below(bound), nil
}

// #endregion range
