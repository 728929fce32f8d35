// Package jsonschema configures a JSON-Schema-like environment: camelCase
// construct spellings, "$ref" references, and JSON/YAML definition decoding.
package jsonschema

import (
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/skemahub/skemahub"
	"github.com/skemahub/skemahub/internal/inflect"
)

// New builds an environment whose native dialect follows JSON Schema
// conventions. Additional options apply after the dialect defaults, so
// callers may override policies or register their own constructs.
func New(opts ...skemahub.Option) (*skemahub.Environment, error) {
	base := []skemahub.Option{
		skemahub.WithInflection(inflect.Camelize),
		skemahub.WithAliases(map[string]string{
			"$ref":          "ref",
			"minValue":      skemahub.ConstraintMinimum,
			"maxValue":      skemahub.ConstraintMaximum,
			"minProperties": skemahub.ConstraintMinEntries,
			"maxProperties": skemahub.ConstraintMaxEntries,
		}),
		skemahub.WithExportAliases(map[string]string{
			"ref":                         "$ref",
			skemahub.ConstraintMinEntries: "minProperties",
			skemahub.ConstraintMaxEntries: "maxProperties",
		}),
	}
	env, err := skemahub.New("jsonschema", append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	env.RegisterImporter("x-range", importRange)
	return env, nil
}

// RangeExtension renders numeric bounds as a single x-range construct
// instead of separate minimum/maximum keys. Definitions carrying x-range
// import back into the same bounds, so translation through an environment
// built with this option round-trips.
func RangeExtension() skemahub.Option {
	return func(env *skemahub.Environment) error {
		env.RegisterExporter(skemahub.ConstraintMinimum, exportRange)
		env.RegisterExporter(skemahub.ConstraintMaximum, exportRange)
		return nil
	}
}

func importRange(param any, _ map[string]any) (map[string]any, error) {
	bounds, ok := param.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("x-range wants a mapping with min/max, got %T", param)
	}
	out := map[string]any{}
	for k, v := range bounds {
		switch k {
		case "min":
			out[skemahub.ConstraintMinimum] = v
		case "max":
			out[skemahub.ConstraintMaximum] = v
		default:
			return nil, fmt.Errorf("x-range has no bound %q", k)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("x-range wants at least one of min, max")
	}
	return out, nil
}

// exportRange serves both bounds: whichever fires first emits the merged
// construct, and the second emission overwrites it with the same value.
func exportRange(_ any, n *skemahub.Node) (map[string]any, error) {
	bounds := map[string]any{}
	if v, ok := n.ConstraintParam(skemahub.ConstraintMinimum); ok {
		bounds["min"] = v
	}
	if v, ok := n.ConstraintParam(skemahub.ConstraintMaximum); ok {
		bounds["max"] = v
	}
	return map[string]any{"x-range": bounds}, nil
}

// DecodeJSON parses a JSON document into the mapping shape Import and
// Define consume.
func DecodeJSON(data []byte) (map[string]any, error) {
	var def map[string]any
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	return def, nil
}

// DecodeYAML parses a YAML document into the mapping shape Import and
// Define consume.
func DecodeYAML(data []byte) (map[string]any, error) {
	var def map[string]any
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	return def, nil
}

// EncodeJSON renders a translated definition as indented JSON.
func EncodeJSON(def map[string]any) ([]byte, error) {
	return json.MarshalIndent(def, "", "  ")
}

// ImportJSON decodes a JSON definition and imports it as an anonymous
// schema.
func ImportJSON(env *skemahub.Environment, data []byte) (*skemahub.Schema, error) {
	def, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return env.Import(def)
}

// ImportYAML decodes a YAML definition and imports it as an anonymous
// schema.
func ImportYAML(env *skemahub.Environment, data []byte) (*skemahub.Schema, error) {
	def, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return env.Import(def)
}
