package engine

import (
	"github.com/danielpatrickdp/treedecide/internal/ctxbuild"
	"github.com/danielpatrickdp/treedecide/internal/rule"
)

// DecisionVersion tags the format of a Result.
const DecisionVersion = "1.1.0"

// #region result
// Result is a complete decision: one entry per output plus the resolved context.
type Result struct {
	Output  map[string]OutputDecision `json:"output"`
	Context ctxbuild.Context          `json:"context"`
	Version string                    `json:"_version"`
}

// OutputDecision is the decision for one output property.
type OutputDecision struct {
	PredictedValue    any              `json:"predicted_value"`
	Confidence        float64          `json:"confidence"`
	StandardDeviation *float64         `json:"standard_deviation,omitempty"`
	DecisionRules     []rule.Predicate `json:"decision_rules"`
	// Aggregated is set when no rule matched and the value comes from the subtree's
	// leaves.
	Aggregated bool `json:"-"`
}

// #endregion result

// Aggregated reports whether any output fell back to aggregation.
func (r *Result) Aggregated() bool {
	for _, d := range r.Output {
		if d.Aggregated {
			return true
		}
	}
	return false
}
