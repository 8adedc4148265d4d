package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/danielpatrickdp/treedecide/internal/errs"
	"github.com/danielpatrickdp/treedecide/internal/operator"
	"github.com/danielpatrickdp/treedecide/internal/rule"
)

// #region version-registry
type versionParser func(obj map[string]any, version string) (*Envelope, error)

// parsers maps each supported major version to its parser.
var parsers = map[string]versionParser{
	"v1": parseV1,
}

// #endregion version-registry

// #region parse
// Parse decodes a JSON envelope.
func Parse(data []byte) (*Envelope, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, errs.Formatf("the given json is not an object.")
	}
	return ParseValue(v)
}

// ParseValue validates an already decoded envelope (maps, slices and scalars as
// produced by encoding/json or structpb).
func ParseValue(v any) (*Envelope, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errs.Formatf("the given json is not an object.")
	}
	version, _ := obj["_version"].(string)
	if version == "" {
		return nil, errs.Formatf("unable to find the version informations.")
	}
	canonical := "v" + version
	if !semver.IsValid(canonical) || !fullVersion(canonical) {
		return nil, errs.Formatf("\"%s\" is not a valid version.", version)
	}
	parse, ok := parsers[semver.Major(canonical)]
	if !ok {
		return nil, errs.Formatf("%s is not a supported version.", version)
	}
	return parse(obj, version)
}

// fullVersion rejects the vMAJOR and vMAJOR.MINOR shorthands semver accepts.
func fullVersion(v string) bool {
	if i := strings.IndexByte(v, '+'); i >= 0 {
		v = v[:i]
	}
	return semver.Canonical(v) == v
}

// #endregion parse

// #region v1
func parseV1(obj map[string]any, version string) (*Envelope, error) {
	rawConfig, ok := obj["configuration"]
	if !ok || rawConfig == nil {
		return nil, errs.Formatf("no configuration found.")
	}
	rawTrees, ok := obj["trees"].(map[string]any)
	if !ok {
		return nil, errs.Formatf("no tree found.")
	}

	cfg, err := parseConfiguration(rawConfig)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Version:       version,
		Configuration: cfg,
		Trees:         make(map[string]*Tree, len(rawTrees)),
	}
	for _, output := range cfg.Output {
		raw, ok := rawTrees[output]
		if !ok {
			return nil, errs.Formatf("no tree found for output '%s'.", output)
		}
		t, err := parseTree(raw, output)
		if err != nil {
			return nil, err
		}
		env.Trees[output] = t
	}
	return env, nil
}

func parseConfiguration(v any) (Configuration, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Configuration{}, errs.Formatf("configuration: %v", err)
	}
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Configuration{}, errs.Formatf("configuration: %v", err)
	}
	if len(cfg.Output) == 0 {
		return Configuration{}, errs.Formatf("no output found in configuration.")
	}
	return cfg, nil
}

func parseTree(v any, output string) (*Tree, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errs.Formatf("tree for output '%s' is not an object.", output)
	}
	root, err := parseNode(m, output)
	if err != nil {
		return nil, err
	}
	t := &Tree{Root: root}
	if values, ok := m["output_values"].([]any); ok {
		t.OutputValues = make([]any, len(values))
		for i, value := range values {
			t.OutputValues[i] = scalar(value)
		}
	}
	return t, nil
}

// parseNode decides once whether m is a leaf or an internal node.
func parseNode(m map[string]any, path string) (Node, error) {
	children, _ := m["children"].([]any)
	if len(children) == 0 {
		return parseLeaf(m, path)
	}

	internal := &Internal{Children: make([]Child, 0, len(children))}
	for i, c := range children {
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		cm, ok := c.(map[string]any)
		if !ok {
			return nil, errs.Formatf("node %s is not an object.", childPath)
		}
		p, err := parsePredicate(cm["decision_rule"], childPath)
		if err != nil {
			return nil, err
		}
		n, err := parseNode(cm, childPath)
		if err != nil {
			return nil, err
		}
		internal.Children = append(internal.Children, Child{Rule: p, Node: n})
	}
	return internal, nil
}

func parsePredicate(v any, path string) (rule.Predicate, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return rule.Predicate{}, errs.Formatf("node %s has no decision rule.", path)
	}
	property, _ := m["property"].(string)
	opName, _ := m["operator"].(string)
	op, err := operator.Parse(opName)
	if err != nil {
		return rule.Predicate{}, err
	}
	var operand any
	switch o := m["operand"].(type) {
	case []any:
		pair := make([]any, len(o))
		for i := range o {
			pair[i] = scalar(o[i])
		}
		operand = pair
	default:
		operand = scalar(o)
	}
	return rule.New(property, op, operand)
}

// parseLeaf accepts both {"prediction": {...}} leaves and legacy flat leaves.
func parseLeaf(m map[string]any, path string) (*Leaf, error) {
	pred, ok := m["prediction"].(map[string]any)
	if !ok {
		pred = m
	}
	leaf := &Leaf{Value: scalar(pred["value"])}
	if c, ok := operator.Float(pred["confidence"]); ok {
		leaf.Confidence = c
	}
	if n, ok := operator.Float(pred["nb_samples"]); ok {
		leaf.NbSamples = n
	} else if n, ok := operator.Float(m["nb_samples"]); ok {
		leaf.NbSamples = n
	}
	if sd, ok := operator.Float(pred["standard_deviation"]); ok {
		leaf.StandardDeviation = &sd
	}

	switch d := pred["distribution"].(type) {
	case []any:
		leaf.Distribution = make([]float64, len(d))
		for i, p := range d {
			f, ok := operator.Float(p)
			if !ok {
				return nil, errs.Formatf("leaf %s has a non numeric distribution.", path)
			}
			leaf.Distribution[i] = f
		}
	case map[string]any:
		if sd, ok := operator.Float(d["standard_deviation"]); ok {
			leaf.StandardDeviation = &sd
		}
	}
	return leaf, nil
}

// scalar turns json.Number into float64 so values compare uniformly.
func scalar(v any) any {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}

// #endregion v1
