package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes treectl with args against a fresh database under dir.
func run(t *testing.T, dir, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TREEDECIDE_DB", filepath.Join(dir, "trees.db"))
	t.Setenv("TREEDECIDE_LOG_LEVEL", "error")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", filepath.Join(dir, "absent.yaml")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestDecideFromFile(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "", "decide",
		"--tree", filepath.Join("testdata", "classification.json"),
		"--context", `{"car": "Renault", "speed": 100, "tod": 12}`)
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	color := res["output"].(map[string]any)["color"].(map[string]any)
	assert.Equal(t, "red", color["predicted_value"])
	assert.Equal(t, "1.1.0", res["_version"])
}

func TestDecideExplain(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, `{"car": "Peugeot", "speed": 10, "tod": 23.5}`, "decide",
		"--tree", filepath.Join("testdata", "classification.json"),
		"--context-file", "-", "--explain")
	require.NoError(t, err)
	assert.Equal(t, "color = green (confidence 0.70)\n  car is Peugeot\n  tod [22:00, 06:00[\n", out)
}

func TestDecideInvalidContext(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "", "decide",
		"--tree", filepath.Join("testdata", "classification.json"),
		"--context", `{"car": 3}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'3' is not a valid value for property 'car' of type 'enum'")
}

func TestReduceAndFormat(t *testing.T) {
	dir := t.TempDir()
	rules := `[
		{"property": "speed", "operator": ">=", "operand": 2},
		{"property": "speed", "operator": "<", "operand": 13},
		{"property": "speed", "operator": "<", "operand": 20}
	]`

	out, err := run(t, dir, rules, "reduce")
	require.NoError(t, err)
	var reduced []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &reduced))
	assert.Equal(t, []map[string]any{
		{"property": "speed", "operator": "[in[", "operand": []any{2.0, 13.0}},
	}, reduced)

	out, err = run(t, dir, rules, "reduce", "--human")
	require.NoError(t, err)
	assert.Equal(t, "speed [2, 13[\n", out)

	_, err = run(t, dir, `[{"property": "x", "operator": ">=", "operand": 5}, {"property": "x", "operator": "<", "operand": 1}]`, "reduce")
	assert.Error(t, err)

	out, err = run(t, dir, "", "format", "--type", "time_of_day", "--value", "11.5")
	require.NoError(t, err)
	assert.Equal(t, "11:30\n", out)

	out, err = run(t, dir, `[{"property": "day", "operator": "[in[", "operand": [4, 0]}]`, "format", "--type", "day_of_week")
	require.NoError(t, err)
	assert.Equal(t, "day Fri to Sun\n", out)
}

func TestStoreDecideExportReplay(t *testing.T) {
	dir := t.TempDir()
	envelope := filepath.Join("testdata", "classification.json")

	versionOut, err := run(t, dir, "", "tree", "put", "car-1", envelope)
	require.NoError(t, err)
	versionID := strings.TrimSpace(versionOut)
	require.NotEmpty(t, versionID)

	out, err := run(t, dir, "", "tree", "list", "--agent", "car-1")
	require.NoError(t, err)
	assert.Contains(t, out, versionID)
	assert.Contains(t, out, " *")

	out, err = run(t, dir, "", "tree", "get", "car-1")
	require.NoError(t, err)
	original, _ := os.ReadFile(envelope)
	assert.Equal(t, string(original), out)

	for _, ctx := range []string{
		`{"car": "Renault", "speed": 100, "tod": 12}`,
		`{"car": "Citroen", "speed": 10, "tod": 8}`,
		`{"car": 7}`,
	} {
		_, _ = run(t, dir, "", "decide", "--agent", "car-1", "--context", ctx)
	}

	out, err = run(t, dir, "", "inspect", "--agent", "car-1")
	require.NoError(t, err)
	assert.Contains(t, out, "decided")
	assert.Contains(t, out, "aggregated")
	assert.Contains(t, out, "rejected")

	fixture := filepath.Join(dir, "fixture.json")
	_, err = run(t, dir, "", "export", "car-1", "--out", fixture)
	require.NoError(t, err)

	out, err = run(t, dir, "", "replay", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, "3 expectations, 3 passed, 0 failed")
}

func TestReplayReportsFailures(t *testing.T) {
	dir := t.TempDir()
	tree, err := os.ReadFile(filepath.Join("testdata", "classification.json"))
	require.NoError(t, err)

	fixture := map[string]any{
		"tree": json.RawMessage(tree),
		"expectations": []any{
			map[string]any{
				"title":   "wrong color",
				"context": map[string]any{"car": "Renault", "speed": 100, "tod": 12},
				"output":  map[string]any{"color": map[string]any{"predicted_value": "blue"}},
			},
		},
	}
	data, err := json.Marshal(fixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drift.json"), data, 0o644))

	out, err := run(t, dir, "", "replay", dir)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL  drift.json / wrong color")
	assert.Contains(t, out, "1 expectations, 0 passed, 1 failed")
}

func TestTreeRollback(t *testing.T) {
	dir := t.TempDir()
	envelope := filepath.Join("testdata", "classification.json")

	first, err := run(t, dir, "", "tree", "put", "car-1", envelope)
	require.NoError(t, err)
	_, err = run(t, dir, "", "tree", "put", "car-1", envelope)
	require.NoError(t, err)

	_, err = run(t, dir, "", "tree", "rollback", "car-1", strings.TrimSpace(first))
	require.NoError(t, err)

	out, err := run(t, dir, "", "tree", "list", "--agent", "car-1", "--json")
	require.NoError(t, err)
	var versions []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &versions))
	require.Len(t, versions, 2)
	assert.Equal(t, false, versions[0]["Active"])
	assert.Equal(t, true, versions[1]["Active"])
}
