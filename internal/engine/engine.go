// Package engine takes decisions from parsed decision trees.
//
// A decision walks each output tree from the root, following the first child whose
// predicate the context satisfies. When no child matches and missing-value handling
// is enabled, the subtree's leaves are aggregated instead. Every function here is
// pure: envelopes are never mutated and may be shared between goroutines.
package engine

import (
	"github.com/danielpatrickdp/treedecide/internal/ctxbuild"
	"github.com/danielpatrickdp/treedecide/internal/distribution"
	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/instant"
	"github.com/danielpatrickdp/treedecide/internal/operator"
	"github.com/danielpatrickdp/treedecide/internal/rule"
	"github.com/danielpatrickdp/treedecide/internal/tree"
)

// #region decide
// Decide parses a JSON envelope and takes a decision for state. at is the optional
// reference instant used for generated time properties.
func Decide(data []byte, state map[string]any, at *instant.Time) (*Result, error) {
	env, err := tree.Parse(data)
	if err != nil {
		return nil, err
	}
	return DecideEnvelope(env, state, at)
}

// DecideEnvelope takes a decision against an already parsed envelope.
func DecideEnvelope(env *tree.Envelope, state map[string]any, at *instant.Time) (*Result, error) {
	cfg := env.Configuration
	ctx := ctxbuild.Build(cfg, state, at)
	if err := checkContext(cfg, ctx); err != nil {
		return nil, err
	}

	res := &Result{
		Output:  make(map[string]OutputDecision, len(cfg.Output)),
		Context: ctx,
		Version: DecisionVersion,
	}
	w := walker{ctx: ctx, missingValues: cfg.MissingValuesEnabled()}
	for _, output := range cfg.Output {
		t := env.Trees[output]
		if t == nil || t.Root == nil {
			return nil, errs.Formatf("no tree found for output '%s'.", output)
		}
		w.tree = t
		d, err := w.decide(t.Root)
		if err != nil {
			return nil, err
		}
		res.Output[output] = d
	}
	return res, nil
}

// #endregion decide

// #region walk
type walker struct {
	tree          *tree.Tree
	ctx           ctxbuild.Context
	missingValues bool
}

func (w walker) decide(node tree.Node) (OutputDecision, error) {
	switch n := node.(type) {
	case *tree.Leaf:
		return leafDecision(n)
	case *tree.Internal:
		return w.decideInternal(n)
	default:
		return OutputDecision{}, errs.NullDecisionf("the decision tree has no valid predicted value for the given context.")
	}
}

func leafDecision(leaf *tree.Leaf) (OutputDecision, error) {
	if leaf.Value == nil {
		return OutputDecision{}, errs.NullDecisionf("the decision tree has no valid predicted value for the given context.")
	}
	return OutputDecision{
		PredictedValue:    leaf.Value,
		Confidence:        leaf.Confidence,
		StandardDeviation: leaf.StandardDeviation,
		DecisionRules:     []rule.Predicate{},
	}, nil
}

func (w walker) decideInternal(n *tree.Internal) (OutputDecision, error) {
	child, err := w.matchingChild(n)
	if err != nil {
		return OutputDecision{}, err
	}
	if child == nil {
		return w.fallback(n)
	}

	d, err := w.decide(child.Node)
	if err != nil {
		return OutputDecision{}, err
	}
	path := make([]rule.Predicate, 0, len(d.DecisionRules)+1)
	path = append(path, child.Rule)
	d.DecisionRules = append(path, d.DecisionRules...)
	return d, nil
}

// matchingChild returns the first child whose rule holds, or nil.
func (w walker) matchingChild(n *tree.Internal) (*tree.Child, error) {
	for i := range n.Children {
		child := &n.Children[i]
		value := w.ctx[child.Rule.Property]
		if value == nil && !w.missingValues && child.Rule.Operator != operator.IsNull {
			return nil, &errs.ValidationError{Problems: []string{
				"property '" + child.Rule.Property + "' is missing from the given context",
			}}
		}
		ok, err := child.Rule.Matches(value)
		if err != nil {
			return nil, err
		}
		if ok {
			return child, nil
		}
	}
	return nil, nil
}

// fallback aggregates the subtree when no rule matches. The confidence of an
// aggregated decision is always 0.
func (w walker) fallback(n *tree.Internal) (OutputDecision, error) {
	if !w.missingValues {
		prop := n.Children[0].Rule.Property
		return OutputDecision{}, errs.NullDecisionf(
			"value '%v' for property '%s' doesn't validate any of the decision rules.", w.ctx[prop], prop)
	}

	vector, _, err := distribution.Aggregate(n)
	if err != nil {
		return OutputDecision{}, err
	}
	d := OutputDecision{DecisionRules: []rule.Predicate{}, Aggregated: true}
	if len(vector) == 1 && len(w.tree.OutputValues) == 0 {
		d.PredictedValue = vector[0]
		return d, nil
	}
	best := distribution.ArgMax(vector)
	if best >= len(w.tree.OutputValues) {
		return OutputDecision{}, errs.NullDecisionf("the decision tree has no output value for class %d.", best)
	}
	d.PredictedValue = w.tree.OutputValues[best]
	return d, nil
}

// #endregion walk
