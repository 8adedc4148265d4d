package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/danielpatrickdp/treedecide/internal/logging"
	"github.com/danielpatrickdp/treedecide/internal/rule"
)

// #region fixture-types

// Fixture pairs a tree envelope with the decisions expected from it.
type Fixture struct {
	Name         string          `json:"-"`
	Description  string          `json:"description,omitempty"`
	Tree         json.RawMessage `json:"tree"`
	Expectations []Expectation   `json:"expectations"`
}

// Expectation is one decision to replay. Exactly one of Output or Error is set.
type Expectation struct {
	Title   string                    `json:"title"`
	Context map[string]any            `json:"context"`
	Time    *FixtureTime              `json:"time,omitempty"`
	Output  map[string]ExpectedOutput `json:"output,omitempty"`
	Error   *ExpectedError            `json:"error,omitempty"`
}

// FixtureTime is the reference instant: unix seconds and an optional timezone.
type FixtureTime struct {
	T  int64 `json:"t"`
	TZ any   `json:"tz,omitempty"`
}

// ExpectedOutput is the expected decision for one output. Nil pointers are not checked.
type ExpectedOutput struct {
	PredictedValue    any              `json:"predicted_value"`
	Confidence        *float64         `json:"confidence,omitempty"`
	StandardDeviation *float64         `json:"standard_deviation,omitempty"`
	DecisionRules     []rule.Predicate `json:"decision_rules,omitempty"`
}

// ExpectedError describes an expected failure. Kind is one of "format", "validation",
// "null_decision", "time" or empty for any kind; an empty Message is not checked.
type ExpectedError struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	f.Name = filepath.Base(path)
	return &f, nil
}

// LoadDir loads every *.json fixture of dir, sorted by file name.
func LoadDir(dir string) ([]*Fixture, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob fixtures: %w", err)
	}
	sort.Strings(paths)

	fixtures := make([]*Fixture, 0, len(paths))
	for _, p := range paths {
		f, err := LoadFixture(p)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

// Save writes the fixture as indented JSON.
func (f *Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-loader

// #region fixture-export

// FromDecisions builds a fixture from logged decisions taken against envelope. The
// logged context is already resolved, so expectations carry no reference instant.
func FromDecisions(description string, envelope []byte, entries []logging.DecisionEntry) (*Fixture, error) {
	f := &Fixture{Description: description, Tree: json.RawMessage(envelope)}
	for _, e := range entries {
		exp := Expectation{Title: e.DecisionID}
		if err := json.Unmarshal([]byte(e.ContextJSON), &exp.Context); err != nil {
			return nil, fmt.Errorf("decision %s context: %w", e.DecisionID, err)
		}
		if e.Outcome == logging.OutcomeRejected {
			exp.Error = &ExpectedError{Message: e.Reason}
		} else if err := json.Unmarshal([]byte(e.OutputJSON), &exp.Output); err != nil {
			return nil, fmt.Errorf("decision %s output: %w", e.DecisionID, err)
		}
		f.Expectations = append(f.Expectations, exp)
	}
	return f, nil
}

// #endregion fixture-export
