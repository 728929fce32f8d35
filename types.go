package skemahub

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Mode selects how the engine walks a schema against data.
type Mode int

const (
	ModeValidate Mode = iota
	ModeConvert
	ModePartialValidate
	ModePartialConvert
)

// Converts reports whether the mode produces converted output (and may apply
// defaults and type coercion).
func (m Mode) Converts() bool { return m == ModeConvert || m == ModePartialConvert }

// Partial reports whether presence ("required") checks are skipped. All other
// constraints still apply.
func (m Mode) Partial() bool { return m == ModePartialValidate || m == ModePartialConvert }

// CoercePolicy controls how a node treats raw values that are not already of
// its type. The zero value is strict; coercion is opt-in.
type CoercePolicy int

const (
	CoerceStrict    CoercePolicy = iota // Reject incompatible raw values with a type failure.
	CoerceEnabled                       // Invoke the type's coercion function in convert modes.
	CoerceReference                     // Pass the value through untouched, no check.
)

// UnknownPolicy controls how unknown input keys on an object are handled.
type UnknownPolicy int

const (
	UnknownIgnore      UnknownPolicy = iota // Drop unknown keys from the output.
	UnknownReject                           // Fail with an additional_entries failure.
	UnknownPassthrough                      // Copy unknown keys to the output untouched.
)

// UnmappablePolicy controls the outcome when a translation target has no
// mapping for a hub construct. Never a silent drop: UnmappableWarn records a
// warning on the translation.
type UnmappablePolicy int

const (
	UnmappableFail     UnmappablePolicy = iota // Return an UnmappableConstructError.
	UnmappableWarn                             // Drop the construct and record a warning.
	UnmappablePreserve                         // Emit the construct as opaque extension data.
)

// Type describes one entry of an environment's type registry: an identifier,
// an optional parent identifier and the coercion contract. Detect recognizes
// values already conformant to the type; Coerce (optional) converts a raw
// value, returning an error when the value cannot be represented.
type Type struct {
	Name   string
	Parent string
	Detect func(v any) bool
	Coerce func(v any) (any, error)
}

// Built-in hub type identifiers.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeNull    = "null"
	TypeAny     = "any"
)

// BuiltinTypes returns the hub's built-in type set in detection order. The
// slice is freshly allocated per call; environments own their copy.
func BuiltinTypes() []Type {
	return []Type{
		{Name: TypeNull, Detect: func(v any) bool { return v == nil }},
		{Name: TypeBoolean, Detect: func(v any) bool { _, ok := v.(bool); return ok }},
		{
			Name:   TypeInteger,
			Parent: TypeNumber,
			Detect: func(v any) bool { _, ok := AsInt(v); return ok },
			Coerce: coerceInteger,
		},
		{
			Name:   TypeNumber,
			Detect: func(v any) bool { _, ok := AsNumber(v); return ok },
			Coerce: coerceNumber,
		},
		{
			Name:   TypeString,
			Detect: func(v any) bool { _, ok := v.(string); return ok },
			Coerce: coerceString,
		},
		{Name: TypeArray, Detect: func(v any) bool { _, ok := v.([]any); return ok }},
		{Name: TypeObject, Detect: func(v any) bool { _, ok := v.(map[string]any); return ok }},
		{Name: TypeAny, Detect: func(v any) bool { return true }},
	}
}

// AsNumber reports v as a float64 when it is any recognized numeric
// representation (Go ints/floats or json.Number).
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsInt reports v as an int64 when it is an integral numeric value. Floats
// qualify only when they carry no fractional part, mirroring how JSON
// decoding erases the int/float distinction.
func AsInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
		return 0, false
	case float32:
		return AsInt(float64(n))
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func coerceInteger(v any) (any, error) {
	if i, ok := AsInt(v); ok {
		return i, nil
	}
	if s, ok := v.(string); ok {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to integer", s)
		}
		return i, nil
	}
	if b, ok := v.(bool); ok {
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return nil, fmt.Errorf("cannot coerce %T to integer", v)
}

func coerceNumber(v any) (any, error) {
	if f, ok := AsNumber(v); ok {
		return f, nil
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot coerce %q to number", s)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to number", v)
}

func coerceString(v any) (any, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		if i, ok := AsInt(v); ok {
			return strconv.FormatInt(i, 10), nil
		}
		if f, ok := AsNumber(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
		return nil, fmt.Errorf("cannot coerce %T to string", v)
	}
}
