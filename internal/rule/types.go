package rule

import (
	"github.com/danielpatrickdp/treedecide/internal/operator"
)

// #region predicate
// Predicate guards a child of an internal tree node: "Property Operator Operand".
// Operand is an operator.Interval for In, a string or float64 for Is/Gte/Lt, and nil
// for IsNull.
type Predicate struct {
	Property string            `json:"property"`
	Operator operator.Operator `json:"operator"`
	Operand  any               `json:"operand"`
}

// #endregion predicate
