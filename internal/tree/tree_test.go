package tree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/operator"
)

// #region helpers
func loadTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

// #endregion helpers

// #region parse-tests
func TestParse_Classification(t *testing.T) {
	env, err := Parse(loadTestdata(t, "classification.json"))
	require.NoError(t, err)

	assert.Equal(t, "1.1.0", env.Version)
	assert.Equal(t, []string{"color"}, env.Configuration.Output)
	assert.Equal(t, []string{"car", "speed", "tod"}, env.Configuration.Inputs())
	assert.True(t, env.Configuration.MissingValuesEnabled())
	assert.False(t, env.Configuration.Context["tod"].Generated())
	assert.True(t, env.Configuration.Context["car"].Generated())

	tr := env.Trees["color"]
	require.NotNil(t, tr)
	assert.Equal(t, []any{"red", "blue", "green"}, tr.OutputValues)

	root, ok := tr.Root.(*Internal)
	require.True(t, ok)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "car", root.Children[0].Rule.Property)
	assert.Equal(t, operator.Is, root.Children[0].Rule.Operator)

	peugeot := root.Children[1].Node.(*Internal)
	interval, ok := peugeot.Children[0].Rule.Interval()
	require.True(t, ok)
	assert.Equal(t, operator.Interval{From: 22, To: 6}, interval)

	leaf, ok := peugeot.Children[0].Node.(*Leaf)
	require.True(t, ok)
	assert.Equal(t, "green", leaf.Value)
	assert.Equal(t, 0.7, leaf.Confidence)
	assert.Equal(t, []float64{0.1, 0.2, 0.7}, leaf.Distribution)
	assert.Equal(t, 40.0, leaf.NbSamples)
}

func TestParse_RegressionLeaf(t *testing.T) {
	env, err := Parse([]byte(`{
		"_version": "1.0.0",
		"configuration": {"context": {"x": {"type": "continuous"}, "y": {"type": "continuous"}}, "output": ["y"]},
		"trees": {"y": {"prediction": {"value": 4.5, "confidence": 0.3, "distribution": {"standard_deviation": 1.25}, "nb_samples": 12}}}
	}`))
	require.NoError(t, err)

	leaf, ok := env.Trees["y"].Root.(*Leaf)
	require.True(t, ok)
	assert.Equal(t, 4.5, leaf.Value)
	require.NotNil(t, leaf.StandardDeviation)
	assert.Equal(t, 1.25, *leaf.StandardDeviation)
	assert.Nil(t, leaf.Distribution)
}

func TestParse_LegacyFlatLeaf(t *testing.T) {
	env, err := Parse([]byte(`{
		"_version": "1.1.0",
		"configuration": {"context": {"y": {"type": "continuous"}}, "output": ["y"]},
		"trees": {"y": {"value": 7, "confidence": 0.5, "nb_samples": 3, "standard_deviation": 0.5}}
	}`))
	require.NoError(t, err)
	leaf := env.Trees["y"].Root.(*Leaf)
	assert.Equal(t, 7.0, leaf.Value)
	assert.Equal(t, 3.0, leaf.NbSamples)
	assert.Equal(t, 0.5, *leaf.StandardDeviation)
}

func TestParse_FormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"not an object", `[1, 2]`, "the given json is not an object"},
		{"not json", `{`, "the given json is not an object"},
		{"no version", `{"trees": {}}`, "unable to find the version"},
		{"bad version", `{"_version": "one"}`, `"one" is not a valid version`},
		{"major only", `{"_version": "1"}`, `"1" is not a valid version`},
		{"major and minor only", `{"_version": "1.0"}`, `"1.0" is not a valid version`},
		{"unsupported major", `{"_version": "2.0.0"}`, "2.0.0 is not a supported version"},
		{"no configuration", `{"_version": "1.1.0", "trees": {}}`, "no configuration found"},
		{"no trees", `{"_version": "1.1.0", "configuration": {"context": {}, "output": ["a"]}}`, "no tree found"},
		{"missing output tree", `{"_version": "1.1.0", "configuration": {"context": {"a": {"type": "enum"}}, "output": ["a"]}, "trees": {}}`, "no tree found for output 'a'"},
		{"unknown operator", `{"_version": "1.1.0", "configuration": {"context": {"a": {"type": "enum"}, "b": {"type": "enum"}}, "output": ["a"]},
			"trees": {"a": {"children": [{"decision_rule": {"property": "b", "operator": "!=", "operand": "x"}, "prediction": {"value": "y"}}]}}}`, "!= is not a valid decision operator"},
		{"child without rule", `{"_version": "1.1.0", "configuration": {"context": {"a": {"type": "enum"}}, "output": ["a"]},
			"trees": {"a": {"children": [{"prediction": {"value": "y"}}]}}}`, "has no decision rule"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrFormat), "got %T", err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestParse_AcceptsFullVersions(t *testing.T) {
	for _, version := range []string{"1.2.3", "1.1.0-beta", "1.0.0+build.7"} {
		t.Run(version, func(t *testing.T) {
			input := `{"_version": "` + version + `", "configuration": {"context": {"a": {"type": "enum"}}, "output": ["a"]},
				"trees": {"a": {"prediction": {"value": "y"}}}}`
			env, err := Parse([]byte(input))
			require.NoError(t, err)
			assert.Equal(t, version, env.Version)
		})
	}
}

func TestParseValue_NotAnObject(t *testing.T) {
	_, err := ParseValue("tree")
	assert.True(t, errors.Is(err, errs.ErrFormat))
}

// #endregion parse-tests
