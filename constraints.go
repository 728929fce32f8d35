package skemahub

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"unicode/utf8"
)

// Hub identifiers of the built-in constraint library.
const (
	ConstraintEnum             = "enum"
	ConstraintConst            = "const"
	ConstraintMultipleOf       = "multiple_of"
	ConstraintMinimum          = "minimum"
	ConstraintMaximum          = "maximum"
	ConstraintExclusiveMinimum = "exclusive_minimum"
	ConstraintExclusiveMaximum = "exclusive_maximum"
	ConstraintMinLength        = "min_length"
	ConstraintMaxLength        = "max_length"
	ConstraintPattern          = "pattern"
	ConstraintFormat           = "format"
	ConstraintMinItems         = "min_items"
	ConstraintMaxItems         = "max_items"
	ConstraintUniqueItems      = "unique_items"
	ConstraintContains         = "contains"
	ConstraintMinEntries       = "min_entries"
	ConstraintMaxEntries       = "max_entries"
	ConstraintDependencies     = "dependencies"
)

// equalValues compares two plain values, treating all numeric
// representations of the same quantity as equal.
func equalValues(a, b any) bool {
	if fa, ok := AsNumber(a); ok {
		if fb, ok := AsNumber(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func paramNumber(name string, param any) (float64, error) {
	f, ok := AsNumber(param)
	if !ok {
		return 0, fmt.Errorf("constraint %q wants a numeric parameter, got %T", name, param)
	}
	return f, nil
}

func paramInt(name string, param any) (int, error) {
	i, ok := AsInt(param)
	if !ok {
		return 0, fmt.Errorf("constraint %q wants an integer parameter, got %T", name, param)
	}
	return int(i), nil
}

func paramBool(node *Node, name string) bool {
	v, ok := node.ConstraintParam(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// BuiltinConstraints returns the hub's built-in constraint library in
// canonical binding order.
func BuiltinConstraints() []*Constraint {
	return []*Constraint{
		{
			Name:        ConstraintEnum,
			Description: "must be one of the allowed values",
			Compile: func(node *Node, param any) (Handler, error) {
				choices, ok := param.([]any)
				if !ok {
					return nil, fmt.Errorf("constraint %q wants a list parameter, got %T", ConstraintEnum, param)
				}
				return func(v any, mode Mode) (any, error) {
					for _, c := range choices {
						if equalValues(v, c) {
							return v, nil
						}
					}
					return nil, failf("must be one of: %v", choices)
				}, nil
			},
		},
		{
			Name:        ConstraintConst,
			Description: "must equal the constant",
			Compile: func(node *Node, param any) (Handler, error) {
				return func(v any, mode Mode) (any, error) {
					if equalValues(v, param) {
						return v, nil
					}
					if mode.Converts() {
						return copyValue(param), nil
					}
					return nil, failf("must be %v", param)
				}, nil
			},
		},
		{
			Name:        ConstraintMultipleOf,
			Description: "must be a multiple of the given quantum",
			Types:       []string{TypeNumber},
			Compile: func(node *Node, param any) (Handler, error) {
				q, err := paramNumber(ConstraintMultipleOf, param)
				if err != nil {
					return nil, err
				}
				if q == 0 {
					return nil, fmt.Errorf("constraint %q wants a non-zero parameter", ConstraintMultipleOf)
				}
				return func(v any, mode Mode) (any, error) {
					f, _ := AsNumber(v)
					rem := math.Abs(math.Mod(f, q))
					if rem > 1e-9 && math.Abs(rem-math.Abs(q)) > 1e-9 {
						return nil, failf("must be a multiple of %v", param)
					}
					return v, nil
				}, nil
			},
		},
		{
			Name:        ConstraintMinimum,
			Description: "must be at least the lower bound",
			Types:       []string{TypeNumber},
			Compile: func(node *Node, param any) (Handler, error) {
				bound, err := paramNumber(ConstraintMinimum, param)
				if err != nil {
					return nil, err
				}
				if paramBool(node, ConstraintExclusiveMinimum) {
					return func(v any, mode Mode) (any, error) {
						if f, _ := AsNumber(v); f > bound {
							return v, nil
						}
						return nil, failf("must be larger than %v", param)
					}, nil
				}
				return func(v any, mode Mode) (any, error) {
					if f, _ := AsNumber(v); f >= bound {
						return v, nil
					}
					return nil, failf("must be no smaller than %v", param)
				}, nil
			},
		},
		{
			Name:        ConstraintMaximum,
			Description: "must be at most the upper bound",
			Types:       []string{TypeNumber},
			Compile: func(node *Node, param any) (Handler, error) {
				bound, err := paramNumber(ConstraintMaximum, param)
				if err != nil {
					return nil, err
				}
				if paramBool(node, ConstraintExclusiveMaximum) {
					return func(v any, mode Mode) (any, error) {
						if f, _ := AsNumber(v); f < bound {
							return v, nil
						}
						return nil, failf("must be smaller than %v", param)
					}, nil
				}
				return func(v any, mode Mode) (any, error) {
					if f, _ := AsNumber(v); f <= bound {
						return v, nil
					}
					return nil, failf("must be no larger than %v", param)
				}, nil
			},
		},
		{
			Name:  ConstraintExclusiveMinimum,
			Types: []string{TypeNumber},
			Compile: func(node *Node, param any) (Handler, error) {
				// Modifier consumed by minimum; no runtime effect of its own.
				return nil, nil
			},
		},
		{
			Name:  ConstraintExclusiveMaximum,
			Types: []string{TypeNumber},
			Compile: func(node *Node, param any) (Handler, error) {
				return nil, nil
			},
		},
		{
			Name:        ConstraintMinLength,
			Description: "must be no shorter than the bound",
			Types:       []string{TypeString},
			Compile: func(node *Node, param any) (Handler, error) {
				n, err := paramInt(ConstraintMinLength, param)
				if err != nil {
					return nil, err
				}
				return func(v any, mode Mode) (any, error) {
					if utf8.RuneCountInString(v.(string)) < n {
						return nil, failf("must be no shorter than %d", n)
					}
					return v, nil
				}, nil
			},
		},
		{
			Name:        ConstraintMaxLength,
			Description: "must be no longer than the bound",
			Types:       []string{TypeString},
			Compile: func(node *Node, param any) (Handler, error) {
				n, err := paramInt(ConstraintMaxLength, param)
				if err != nil {
					return nil, err
				}
				return func(v any, mode Mode) (any, error) {
					s := v.(string)
					if utf8.RuneCountInString(s) <= n {
						return v, nil
					}
					if mode.Converts() {
						return string([]rune(s)[:n]), nil
					}
					return nil, failf("must be no longer than %d", n)
				}, nil
			},
		},
		{
			Name:        ConstraintPattern,
			Description: "must match the pattern",
			Types:       []string{TypeString},
			Compile: func(node *Node, param any) (Handler, error) {
				src, ok := param.(string)
				if !ok {
					return nil, fmt.Errorf("constraint %q wants a string parameter, got %T", ConstraintPattern, param)
				}
				re, err := regexp.Compile(src)
				if err != nil {
					return nil, fmt.Errorf("constraint %q: %w", ConstraintPattern, err)
				}
				return func(v any, mode Mode) (any, error) {
					if !re.MatchString(v.(string)) {
						return nil, failf("must match the pattern %q", src)
					}
					return v, nil
				}, nil
			},
		},
		{
			Name:        ConstraintFormat,
			Description: "must match the named format",
			Types:       []string{TypeString},
			Compile:     compileFormat,
		},
		{
			Name:        ConstraintMinItems,
			Description: "must have at least the given number of items",
			Types:       []string{TypeArray},
			Compile: func(node *Node, param any) (Handler, error) {
				n, err := paramInt(ConstraintMinItems, param)
				if err != nil {
					return nil, err
				}
				return func(v any, mode Mode) (any, error) {
					if len(v.([]any)) < n {
						return nil, failf("must have at least %d items", n)
					}
					return v, nil
				}, nil
			},
		},
		{
			Name:        ConstraintMaxItems,
			Description: "must have no more than the given number of items",
			Types:       []string{TypeArray},
			Compile: func(node *Node, param any) (Handler, error) {
				n, err := paramInt(ConstraintMaxItems, param)
				if err != nil {
					return nil, err
				}
				return func(v any, mode Mode) (any, error) {
					items := v.([]any)
					if len(items) <= n {
						return v, nil
					}
					if mode.Converts() {
						return append([]any(nil), items[:n]...), nil
					}
					return nil, failf("must have no more than %d items", n)
				}, nil
			},
		},
		{
			Name:        ConstraintUniqueItems,
			Description: "items must be unique",
			Types:       []string{TypeArray},
			Compile: func(node *Node, param any) (Handler, error) {
				if want, ok := param.(bool); ok && !want {
					return nil, nil
				}
				return func(v any, mode Mode) (any, error) {
					items := v.([]any)
					uniq := make([]any, 0, len(items))
					for _, it := range items {
						dup := false
						for _, seen := range uniq {
							if equalValues(it, seen) {
								dup = true
								break
							}
						}
						if !dup {
							uniq = append(uniq, it)
						}
					}
					if len(uniq) == len(items) {
						return v, nil
					}
					if mode.Converts() {
						return uniq, nil
					}
					return nil, failf("items must be unique")
				}, nil
			},
		},
		{
			Name:        ConstraintContains,
			Description: "must contain an item matching the sub-schema",
			Types:       []string{TypeArray},
			Compile: func(node *Node, param any) (Handler, error) {
				def, ok := param.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("constraint %q wants a schema parameter, got %T", ConstraintContains, param)
				}
				sub, err := node.env.importNode(def, nil)
				if err != nil {
					return nil, err
				}
				return func(v any, mode Mode) (any, error) {
					for _, it := range v.([]any) {
						if validateDetached(sub, it) {
							return v, nil
						}
					}
					return nil, failf("must contain a matching item")
				}, nil
			},
		},
		{
			Name:        ConstraintMinEntries,
			Description: "must have at least the given number of entries",
			Types:       []string{TypeObject},
			Compile: func(node *Node, param any) (Handler, error) {
				n, err := paramInt(ConstraintMinEntries, param)
				if err != nil {
					return nil, err
				}
				return func(v any, mode Mode) (any, error) {
					if len(v.(map[string]any)) < n {
						return nil, failf("must have at least %d entries", n)
					}
					return v, nil
				}, nil
			},
		},
		{
			Name:        ConstraintMaxEntries,
			Description: "must have no more than the given number of entries",
			Types:       []string{TypeObject},
			Compile: func(node *Node, param any) (Handler, error) {
				n, err := paramInt(ConstraintMaxEntries, param)
				if err != nil {
					return nil, err
				}
				return func(v any, mode Mode) (any, error) {
					if len(v.(map[string]any)) > n {
						return nil, failf("must have no more than %d entries", n)
					}
					return v, nil
				}, nil
			},
		},
		{
			Name:        ConstraintDependencies,
			Description: "entries required by a present entry must also be present",
			Types:       []string{TypeObject},
			Compile: func(node *Node, param any) (Handler, error) {
				deps, ok := param.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("constraint %q wants a mapping parameter, got %T", ConstraintDependencies, param)
				}
				requirements := make(map[string][]string, len(deps))
				for key, raw := range deps {
					list, ok := raw.([]any)
					if !ok {
						return nil, fmt.Errorf("constraint %q wants lists of entry names, got %T for %q", ConstraintDependencies, raw, key)
					}
					names := make([]string, 0, len(list))
					for _, e := range list {
						s, ok := e.(string)
						if !ok {
							return nil, fmt.Errorf("constraint %q wants entry names, got %T", ConstraintDependencies, e)
						}
						names = append(names, s)
					}
					requirements[key] = names
				}
				return func(v any, mode Mode) (any, error) {
					obj := v.(map[string]any)
					for key, names := range requirements {
						if _, present := obj[key]; !present {
							continue
						}
						for _, other := range names {
							if _, ok := obj[other]; !ok {
								return nil, failf("since %q appears, %q must also appear", key, other)
							}
						}
					}
					return v, nil
				}, nil
			},
		},
	}
}
