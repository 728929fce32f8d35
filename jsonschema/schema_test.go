package jsonschema_test

import (
	"testing"

	"github.com/skemahub/skemahub"
	"github.com/skemahub/skemahub/jsonschema"
)

func TestImportJSONCamelCase(t *testing.T) {
	env, err := jsonschema.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := jsonschema.ImportJSON(env, []byte(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "maxLength": 5},
			"age": {"type": "integer", "minValue": 0}
		},
		"required": ["name"]
	}`))
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	r := s.Validate(map[string]any{"name": "okay", "age": 30})
	if !r.OK() {
		t.Fatalf("expected valid, got %v", r.Failures)
	}
	r = s.Validate(map[string]any{"name": "much too long", "age": -1})
	if len(r.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %v", r.Failures)
	}
	if r.Failures[1].Constraint != skemahub.ConstraintMaxLength || r.Failures[1].Pointer() != "/name" {
		t.Fatalf("unexpected failure %+v", r.Failures[1])
	}
	if r.Failures[0].Constraint != skemahub.ConstraintMinimum || r.Failures[0].Pointer() != "/age" {
		t.Fatalf("unexpected failure %+v", r.Failures[0])
	}
}

func TestRefAlias(t *testing.T) {
	env, err := jsonschema.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := env.Define("id", map[string]any{"type": "string", "minLength": 1}); err != nil {
		t.Fatalf("Define id: %v", err)
	}
	s, err := env.Import(map[string]any{
		"type":       "object",
		"properties": map[string]any{"id": map[string]any{"$ref": "id"}},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if r := s.Validate(map[string]any{"id": ""}); r.OK() {
		t.Fatalf("expected the referenced constraint to apply")
	}
	if r := s.Validate(map[string]any{"id": "a"}); !r.OK() {
		t.Fatalf("expected valid, got %v", r.Failures)
	}
}

func TestRangeExtensionTranslation(t *testing.T) {
	source, err := jsonschema.New()
	if err != nil {
		t.Fatalf("New source: %v", err)
	}
	s, err := source.Import(map[string]any{"type": "integer", "minValue": 0, "maxValue": 120})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	target, err := jsonschema.New(jsonschema.RangeExtension())
	if err != nil {
		t.Fatalf("New target: %v", err)
	}
	tr, err := skemahub.Translate(s, target)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	bounds, ok := tr.Definition["x-range"].(map[string]any)
	if !ok {
		t.Fatalf("expected x-range construct, got %v", tr.Definition)
	}
	if bounds["min"] != 0 || bounds["max"] != 120 {
		t.Fatalf("unexpected bounds %v", bounds)
	}
	if _, leaked := tr.Definition["minimum"]; leaked {
		t.Fatalf("minimum should render through x-range only: %v", tr.Definition)
	}

	// Importing the translated definition restores the original bounds.
	back, err := target.Import(tr.Definition)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	for _, v := range []any{-1, 150} {
		if r := back.Validate(v); r.OK() {
			t.Fatalf("expected %v out of range after round-trip", v)
		}
	}
	if r := back.Validate(42); !r.OK() {
		t.Fatalf("expected 42 in range, got %v", r.Failures)
	}
}

func TestDecodeYAML(t *testing.T) {
	env, err := jsonschema.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := jsonschema.ImportYAML(env, []byte(`
type: object
properties:
  port:
    type: integer
    minValue: 1
    maxValue: 65535
required: [port]
`))
	if err != nil {
		t.Fatalf("ImportYAML: %v", err)
	}
	if r := s.Validate(map[string]any{"port": 8080}); !r.OK() {
		t.Fatalf("expected valid, got %v", r.Failures)
	}
	if r := s.Validate(map[string]any{}); r.OK() {
		t.Fatalf("expected required failure")
	}
}
