// Package distribution combines the predictions of a subtree when a decision cannot
// follow a single branch.
package distribution

import (
	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/operator"
	"github.com/danielpatrickdp/treedecide/internal/tree"
)

// #region aggregate
// Aggregate returns the sample-weighted distribution of a subtree and its total
// sample count. Classification leaves contribute their class probabilities,
// regression leaves a one-element vector holding their value.
func Aggregate(node tree.Node) ([]float64, float64, error) {
	switch n := node.(type) {
	case *tree.Leaf:
		return leafVector(n)
	case *tree.Internal:
		vectors := make([][]float64, 0, len(n.Children))
		sizes := make([]float64, 0, len(n.Children))
		for _, child := range n.Children {
			v, size, err := Aggregate(child.Node)
			if err != nil {
				return nil, 0, err
			}
			vectors = append(vectors, v)
			sizes = append(sizes, size)
		}
		mean, err := ComputeMean(vectors, sizes)
		if err != nil {
			return nil, 0, err
		}
		return mean, sum(sizes), nil
	default:
		return nil, 0, errs.NullDecisionf("the decision tree has no valid predicted value for the given context.")
	}
}

func leafVector(leaf *tree.Leaf) ([]float64, float64, error) {
	if leaf.Distribution != nil {
		return leaf.Distribution, leaf.NbSamples, nil
	}
	if value, ok := operator.Float(leaf.Value); ok {
		return []float64{value}, leaf.NbSamples, nil
	}
	return nil, 0, errs.NullDecisionf("the decision tree has no valid predicted value for the given context.")
}

// #endregion aggregate

// #region mean
// ComputeMean is the component-wise mean of vectors weighted by sizes. Vectors are
// expected to have the same length; a zero-size vector does not contribute.
func ComputeMean(vectors [][]float64, sizes []float64) ([]float64, error) {
	total := sum(sizes)
	if total <= 0 || len(vectors) == 0 {
		return nil, errs.NullDecisionf("the decision tree has no samples to aggregate for the given context.")
	}
	mean := make([]float64, len(vectors[0]))
	for i, v := range vectors {
		for k := range mean {
			if k < len(v) {
				mean[k] += v[k] * sizes[i] / total
			}
		}
	}
	return mean, nil
}

// ArgMax returns the index of the largest component, the first one on ties.
func ArgMax(v []float64) int {
	best := 0
	for i := range v {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// #endregion mean
