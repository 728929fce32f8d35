package skemahub_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/skemahub/skemahub"
)

func TestDefineAndResolve(t *testing.T) {
	env := skemahub.Hub()
	s, err := env.Define("person", map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if s.Name() != "person" {
		t.Fatalf("unexpected name %q", s.Name())
	}
	got, ok := env.Resolve("person")
	if !ok || got != s {
		t.Fatalf("Resolve returned %v, %v", got, ok)
	}
	if _, ok := env.Resolve("missing"); ok {
		t.Fatalf("expected miss for unknown name")
	}
}

func TestDefineDuplicate(t *testing.T) {
	env := skemahub.Hub()
	if _, err := env.Define("person", map[string]any{"type": "object"}); err != nil {
		t.Fatalf("Define: %v", err)
	}
	_, err := env.Define("person", map[string]any{"type": "object"})
	var regErr *skemahub.RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
	if regErr.Construct != "person" {
		t.Fatalf("unexpected construct %q", regErr.Construct)
	}
}

func TestRegisterTypeDuplicate(t *testing.T) {
	env := skemahub.Hub()
	err := env.RegisterType(skemahub.Type{
		Name:   "string",
		Detect: func(any) bool { return true },
	})
	var regErr *skemahub.RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
}

func TestRegisterTypeUnknownParent(t *testing.T) {
	env := skemahub.Hub()
	err := env.RegisterType(skemahub.Type{
		Name:   "port",
		Parent: "nonexistent",
		Detect: func(any) bool { return false },
	})
	if err == nil {
		t.Fatalf("expected error for unknown parent")
	}
}

func TestRegisterConstraintDuplicate(t *testing.T) {
	env := skemahub.Hub()
	err := env.RegisterConstraint(skemahub.Constraint{
		Name: skemahub.ConstraintMinimum,
		Compile: func(*skemahub.Node, any) (skemahub.Handler, error) {
			return nil, nil
		},
	})
	var regErr *skemahub.RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
}

func TestCustomConstraint(t *testing.T) {
	env := skemahub.Hub()
	err := env.RegisterConstraint(skemahub.Constraint{
		Name:  "even",
		Types: []string{"integer"},
		Compile: func(n *skemahub.Node, param any) (skemahub.Handler, error) {
			return func(v any, mode skemahub.Mode) (any, error) {
				i, _ := skemahub.AsInt(v)
				if i%2 != 0 {
					return nil, fmt.Errorf("must be even")
				}
				return v, nil
			}, nil
		},
	})
	if err != nil {
		t.Fatalf("RegisterConstraint: %v", err)
	}
	s, err := env.Import(map[string]any{"type": "integer", "even": true})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if r := s.Validate(3); r.OK() {
		t.Fatalf("expected failure for odd value")
	}
	if r := s.Validate(4); !r.OK() {
		t.Fatalf("expected even value to pass, got %v", r.Failures)
	}
}

func TestConstraintOnIncompatibleType(t *testing.T) {
	env := skemahub.Hub()
	_, err := env.Import(map[string]any{"type": "string", "minimum": 3})
	var regErr *skemahub.RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
	if regErr.Construct != skemahub.ConstraintMinimum {
		t.Fatalf("unexpected construct %q", regErr.Construct)
	}
}

func TestConstraintOnOpaqueNodeSkipsForeignValues(t *testing.T) {
	// A constraint on an untyped node applies only to values in its domain.
	env := skemahub.Hub()
	s, err := env.Import(map[string]any{"minimum": 3})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if r := s.Validate("not a number"); !r.OK() {
		t.Fatalf("expected strings to pass the untyped bound, got %v", r.Failures)
	}
	if r := s.Validate(1); r.OK() {
		t.Fatalf("expected numbers inside the domain to be checked")
	}
}

func TestDefaultViolatingOwnConstraints(t *testing.T) {
	env := skemahub.Hub()
	_, err := env.Import(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"age": map[string]any{"type": "integer", "minimum": 0, "default": -1},
		},
	})
	var regErr *skemahub.RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
	if regErr.Construct != "default" {
		t.Fatalf("unexpected construct %q", regErr.Construct)
	}
}

func TestUnknownKeyPolicies(t *testing.T) {
	def := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
	}
	data := map[string]any{"name": "ada", "extra": 1}

	t.Run("ignore", func(t *testing.T) {
		env := skemahub.Hub()
		s, err := env.Import(def)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		out, err := s.Convert(data)
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if _, kept := out.(map[string]any)["extra"]; kept {
			t.Fatalf("expected unknown key dropped, got %v", out)
		}
		if r := s.Validate(data); !r.OK() {
			t.Fatalf("ignore policy must accept unknown keys, got %v", r.Failures)
		}
	})

	t.Run("reject", func(t *testing.T) {
		env, err := skemahub.New("strict", skemahub.WithUnknownPolicy(skemahub.UnknownReject))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		s, err := env.Import(def)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		r := s.Validate(data)
		if len(r.Failures) != 1 {
			t.Fatalf("expected 1 failure, got %v", r.Failures)
		}
		f := r.Failures[0]
		if f.Constraint != skemahub.ConstraintUnknown || f.Pointer() != "/extra" {
			t.Fatalf("unexpected failure %+v", f)
		}
	})

	t.Run("passthrough", func(t *testing.T) {
		env, err := skemahub.New("open", skemahub.WithUnknownPolicy(skemahub.UnknownPassthrough))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		s, err := env.Import(def)
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		out, err := s.Convert(data)
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if out.(map[string]any)["extra"] != 1 {
			t.Fatalf("expected unknown key preserved, got %v", out)
		}
	})
}

func TestFreeFormObjectKeepsAllKeys(t *testing.T) {
	env := skemahub.Hub()
	s, err := env.Import(map[string]any{"type": "object"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	out, err := s.Convert(map[string]any{"a": 1, "b": "two"})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	m := out.(map[string]any)
	if m["a"] != 1 || m["b"] != "two" {
		t.Fatalf("free-form object lost keys: %v", m)
	}
}

func TestCoercionPolicies(t *testing.T) {
	t.Run("strict rejects", func(t *testing.T) {
		env := skemahub.Hub()
		s, err := env.Import(map[string]any{"type": "integer"})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		if _, err := s.Convert("42"); err == nil {
			t.Fatalf("expected type failure under the strict default")
		}
	})

	t.Run("enabled coerces in convert only", func(t *testing.T) {
		env, err := skemahub.New("lenient", skemahub.WithCoercePolicy(skemahub.CoerceEnabled))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		s, err := env.Import(map[string]any{"type": "integer"})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		out, err := s.Convert("42")
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if out != int64(42) {
			t.Fatalf("expected int64(42), got %T %v", out, out)
		}
		// Validation never coerces.
		if r := s.Validate("42"); r.OK() {
			t.Fatalf("expected validation to reject the raw string")
		}
	})

	t.Run("per-node opt-in", func(t *testing.T) {
		env := skemahub.Hub()
		s, err := env.Import(map[string]any{"type": "number", "coerce": true})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		out, err := s.Convert("2.5")
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if out != 2.5 {
			t.Fatalf("expected 2.5, got %v", out)
		}
	})

	t.Run("reference passes through", func(t *testing.T) {
		env := skemahub.Hub()
		s, err := env.Import(map[string]any{"type": "integer", "coerce": "reference"})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		out, err := s.Convert("anything")
		if err != nil {
			t.Fatalf("Convert: %v", err)
		}
		if out != "anything" {
			t.Fatalf("expected untouched value, got %v", out)
		}
	})

	t.Run("uncoercible fails", func(t *testing.T) {
		env, err := skemahub.New("lenient", skemahub.WithCoercePolicy(skemahub.CoerceEnabled))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		s, err := env.Import(map[string]any{"type": "integer"})
		if err != nil {
			t.Fatalf("Import: %v", err)
		}
		_, err = s.Convert("not a number")
		fails, ok := skemahub.AsFailures(err)
		if !ok || fails[0].Constraint != skemahub.ConstraintType {
			t.Fatalf("expected type failure, got %v", err)
		}
	})
}

func TestMapType(t *testing.T) {
	env := skemahub.Hub()
	if err := env.MapType("int", "integer"); err != nil {
		t.Fatalf("MapType: %v", err)
	}
	s, err := env.Import(map[string]any{"type": "int"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got := s.Root().TypeName(); got != "integer" {
		t.Fatalf("expected hub type integer, got %q", got)
	}
	if err := env.MapType("x", "nonexistent"); err == nil {
		t.Fatalf("expected error for unknown hub type")
	}
}

func TestRegisterImporter(t *testing.T) {
	env := skemahub.Hub()
	env.RegisterImporter("bounds", func(param any, _ map[string]any) (map[string]any, error) {
		m, ok := param.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("bounds wants a mapping")
		}
		return map[string]any{
			skemahub.ConstraintMinimum: m["low"],
			skemahub.ConstraintMaximum: m["high"],
		}, nil
	})
	s, err := env.Import(map[string]any{
		"type":   "integer",
		"bounds": map[string]any{"low": 0, "high": 10},
	})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if r := s.Validate(11); r.OK() {
		t.Fatalf("expected the decomposed maximum to apply")
	}
	if r := s.Validate(5); !r.OK() {
		t.Fatalf("expected in-range value to pass, got %v", r.Failures)
	}
}

func TestRestrictedConstraintSet(t *testing.T) {
	env, err := skemahub.New("limited", skemahub.WithConstraints(
		skemahub.ConstraintMinimum, skemahub.ConstraintMaximum,
	))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// A construct outside the set imports as an opaque extension, not a
	// runtime check.
	s, err := env.Import(map[string]any{"type": "string", "pattern": "^a"})
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if r := s.Validate("zzz"); !r.OK() {
		t.Fatalf("expected no enforcement outside the restricted set, got %v", r.Failures)
	}
	exts := s.Root().Extensions()
	if len(exts) != 1 || exts[0].Name != "pattern" {
		t.Fatalf("expected pattern preserved as extension, got %v", exts)
	}
}

func TestRecursiveSchema(t *testing.T) {
	env := skemahub.Hub()
	_, err := env.Define("tree", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{"type": "integer"},
			"left":  map[string]any{"ref": "tree"},
			"right": map[string]any{"ref": "tree"},
		},
		"required": []any{"value"},
	})
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	s, _ := env.Resolve("tree")

	data := map[string]any{
		"value": 1,
		"left": map[string]any{
			"value": 2,
			"right": map[string]any{"value": "oops"},
		},
	}
	r := s.Validate(data)
	if len(r.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %v", r.Failures)
	}
	if got := r.Failures[0].Pointer(); got != "/left/right/value" {
		t.Fatalf("unexpected pointer %q", got)
	}
}

func TestReferenceToUnknownSchema(t *testing.T) {
	env := skemahub.Hub()
	_, err := env.Import(map[string]any{"ref": "missing"})
	var regErr *skemahub.RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("expected RegistrationError, got %v", err)
	}
}

func TestRecursionLimit(t *testing.T) {
	env, err := skemahub.New("shallow", skemahub.WithMaxDepth(3))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = env.Define("list", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"v":    map[string]any{"type": "integer"},
			"next": map[string]any{"ref": "list"},
		},
		"required": []any{"v"},
	})
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	s, _ := env.Resolve("list")

	deep := map[string]any{"v": 0}
	for i := 1; i < 10; i++ {
		deep = map[string]any{"v": i, "next": deep}
	}

	_, err = s.Convert(deep)
	var limitErr *skemahub.RecursionLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected RecursionLimitError, got %v", err)
	}
	if limitErr.Limit != 3 {
		t.Fatalf("unexpected limit %d", limitErr.Limit)
	}

	r := s.Validate(deep)
	if r.OK() {
		t.Fatalf("expected validation to record the depth failure")
	}
	found := false
	for _, f := range r.Failures {
		if f.Constraint == skemahub.ConstraintRecursion {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a recursion_limit failure, got %v", r.Failures)
	}
}
