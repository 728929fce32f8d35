package skemahub

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Constraint identifiers reported for structural failures. Everything else is
// reported under the name of the constraint that produced it.
const (
	ConstraintType      = "type"
	ConstraintRequired  = "required"
	ConstraintUnknown   = "additional_entries"
	ConstraintRecursion = "recursion_limit"
)

// Failure is a single validation entry: the property/index chain from the
// schema root to the failing node, the constraint that failed and a human
// message.
type Failure struct {
	Path       []any // string property names and int array indexes
	Constraint string
	Message    string
	// Param carries the failing constraint's parameter when one exists
	// (e.g. the minimum bound), for programmatic consumers.
	Param any
}

// Pointer renders the failure path as a JSON Pointer (for example /items/2/price).
func (f Failure) Pointer() string { return RenderPath(f.Path) }

// RenderPath renders a path as a JSON Pointer string. The empty path renders
// as "/".
func RenderPath(path []any) string {
	if len(path) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, seg := range path {
		b.WriteByte('/')
		switch s := seg.(type) {
		case string:
			b.WriteString(s)
		case int:
			b.WriteString(strconv.Itoa(s))
		default:
			fmt.Fprintf(b, "%v", s)
		}
	}
	return b.String()
}

// Failures is an ordered collection of validation failures that implements
// error.
type Failures []Failure

// Error summarizes the first few failures.
func (fs Failures) Error() string {
	if len(fs) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(fs)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		f := fs[i]
		fmt.Fprintf(b, "%s at %s", f.Constraint, f.Pointer())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendFailures appends failures to the destination, initializing the slice
// when needed.
func AppendFailures(dst Failures, more ...Failure) Failures {
	if dst == nil {
		dst = Failures{}
	}
	return append(dst, more...)
}

// AsFailures extracts Failures from an error using errors.As internally.
func AsFailures(err error) (Failures, bool) {
	if err == nil {
		return nil, false
	}
	var fs Failures
	if errors.As(err, &fs) {
		return fs, true
	}
	return nil, false
}

// Result is the outcome of a Validate call. It never carries an error; OK
// reports success and Failures lists every failing constraint exhaustively.
type Result struct {
	Failures Failures
}

// OK reports whether validation produced no failures.
func (r Result) OK() bool { return len(r.Failures) == 0 }

// Err returns the failure list as an error, or nil when validation passed.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return r.Failures
}

// RegistrationError reports a build-time configuration problem: a duplicate
// type or constraint identifier, a constraint bound to an incompatible type,
// or a default value that violates its own node. It always halts
// construction.
type RegistrationError struct {
	Env       string // environment name
	Construct string // offending type/constraint/schema identifier
	Err       error
}

func (e *RegistrationError) Error() string {
	if e.Construct != "" {
		return fmt.Sprintf("skemahub: registration of %q in environment %q: %v", e.Construct, e.Env, e.Err)
	}
	return fmt.Sprintf("skemahub: registration in environment %q: %v", e.Env, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// UnmappableConstructError reports that a translation or marshalling target
// has no mapping for a hub construct and its policy is UnmappableFail.
type UnmappableConstructError struct {
	Env       string // target environment name
	Construct string // hub identifier with no mapping
	Path      []any
}

func (e *UnmappableConstructError) Error() string {
	return fmt.Sprintf("skemahub: no mapping for %q in environment %q at %s", e.Construct, e.Env, RenderPath(e.Path))
}

// RecursionLimitError reports that evaluation or translation exceeded the
// environment's configured depth bound.
type RecursionLimitError struct {
	Limit int
	Path  []any
}

func (e *RecursionLimitError) Error() string {
	return fmt.Sprintf("skemahub: recursion limit %d exceeded at %s", e.Limit, RenderPath(e.Path))
}
