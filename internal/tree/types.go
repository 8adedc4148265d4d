package tree

import (
	"sort"

	"github.com/danielpatrickdp/treedecide/internal/rule"
)

// #region property-type
// PropertyType is the declared type of a configuration property.
type PropertyType string

const (
	Continuous  PropertyType = "continuous"
	Enum        PropertyType = "enum"
	Timezone    PropertyType = "timezone"
	TimeOfDay   PropertyType = "time_of_day"
	DayOfWeek   PropertyType = "day_of_week"
	DayOfMonth  PropertyType = "day_of_month"
	MonthOfYear PropertyType = "month_of_year"
)

// TimeDerived reports whether values of this type can be produced from a reference
// instant.
func (t PropertyType) TimeDerived() bool {
	switch t {
	case Timezone, TimeOfDay, DayOfWeek, DayOfMonth, MonthOfYear:
		return true
	}
	return false
}

// #endregion property-type

// #region configuration
// Property describes one context property.
type Property struct {
	Type        PropertyType `json:"type"`
	IsGenerated *bool        `json:"is_generated,omitempty"`
}

// Generated reports whether the value should come from the reference instant.
// An unset flag means generate.
func (p Property) Generated() bool {
	return p.IsGenerated == nil || *p.IsGenerated
}

// Configuration is the model configuration embedded in an envelope.
type Configuration struct {
	Context                 map[string]Property `json:"context"`
	Output                  []string            `json:"output"`
	DeactivateMissingValues bool                `json:"deactivate_missing_values,omitempty"`
	TimeQuantum             int                 `json:"time_quantum,omitempty"`
	LearningPeriod          int                 `json:"learning_period,omitempty"`
}

// IsOutput reports whether name is one of the output properties.
func (c Configuration) IsOutput(name string) bool {
	for _, o := range c.Output {
		if o == name {
			return true
		}
	}
	return false
}

// Inputs returns the non-output property names, sorted.
func (c Configuration) Inputs() []string {
	names := make([]string, 0, len(c.Context))
	for name := range c.Context {
		if !c.IsOutput(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// MissingValuesEnabled reports whether unresolved branches fall back to aggregation.
func (c Configuration) MissingValuesEnabled() bool {
	return !c.DeactivateMissingValues
}

// #endregion configuration

// #region nodes
// Node is either a *Leaf or an *Internal.
type Node interface {
	node()
}

// Leaf holds a prediction.
type Leaf struct {
	Value             any
	Confidence        float64
	StandardDeviation *float64
	// Distribution holds class probabilities aligned with Tree.OutputValues.
	Distribution []float64
	NbSamples    float64
}

// Internal holds children tried in order.
type Internal struct {
	Children []Child
}

// Child is a subtree guarded by a predicate.
type Child struct {
	Rule rule.Predicate
	Node Node
}

func (*Leaf) node()     {}
func (*Internal) node() {}

// Tree is the bare tree of one output.
type Tree struct {
	// OutputValues lists the classes of a classification output.
	OutputValues []any
	Root         Node
}

// #endregion nodes

// #region envelope
// Envelope is a parsed, read-only tree artifact. It is safe to share between
// goroutines.
type Envelope struct {
	Version       string
	Configuration Configuration
	Trees         map[string]*Tree
}

// #endregion envelope
