package rule

import (
	"encoding/json"
	"fmt"

	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/operator"
)

// #region constructors
// New builds a predicate, normalizing the operand for its operator.
func New(property string, op operator.Operator, operand any) (Predicate, error) {
	p := Predicate{Property: property, Operator: op}
	if err := p.setOperand(operand); err != nil {
		return Predicate{}, err
	}
	return p, nil
}

// MustNew is New for literals known to be valid; it panics otherwise.
func MustNew(property string, op operator.Operator, operand any) Predicate {
	p, err := New(property, op, operand)
	if err != nil {
		panic(err)
	}
	return p
}

// #endregion constructors

// #region matching
// Matches evaluates the predicate against a context value.
func (p Predicate) Matches(value any) (bool, error) {
	return operator.Apply(p.Operator, value, p.Operand)
}

// Interval returns the operand of an In predicate.
func (p Predicate) Interval() (operator.Interval, bool) {
	if p.Operator != operator.In {
		return operator.Interval{}, false
	}
	return operator.AsInterval(p.Operand)
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %v", p.Property, p.Operator, p.Operand)
}

// #endregion matching

// #region json
type wirePredicate struct {
	Property string          `json:"property"`
	Operator string          `json:"operator"`
	Operand  json.RawMessage `json:"operand"`
}

// UnmarshalJSON decodes a decision_rule object, rejecting unknown operators.
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var w wirePredicate
	if err := json.Unmarshal(data, &w); err != nil {
		return errs.Formatf("decision rule is not an object: %v", err)
	}
	op, err := operator.Parse(w.Operator)
	if err != nil {
		return err
	}
	var operand any
	if len(w.Operand) > 0 {
		if err := json.Unmarshal(w.Operand, &operand); err != nil {
			return errs.Formatf("decision rule operand: %v", err)
		}
	}
	p.Property = w.Property
	p.Operator = op
	return p.setOperand(operand)
}

func (p *Predicate) setOperand(operand any) error {
	if !p.Operator.Valid() {
		return errs.Formatf("%s is not a valid decision operator.", p.Operator)
	}
	switch p.Operator {
	case operator.In:
		interval, ok := operator.AsInterval(operand)
		if !ok {
			return errs.Formatf("%v is not a valid operand for operator '%s'.", operand, p.Operator)
		}
		p.Operand = interval
	default:
		if f, ok := operator.Float(operand); ok {
			p.Operand = f
		} else {
			p.Operand = operand
		}
	}
	return nil
}

// #endregion json
