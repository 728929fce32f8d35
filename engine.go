package skemahub

import (
	"errors"
	"sort"

	"github.com/skemahub/skemahub/i18n"
	eng "github.com/skemahub/skemahub/internal/engine"
)

// evalContext carries all per-call state of one convert/validate walk: the
// current path, the accumulated failures and the recursion guard. Nothing is
// ever stored on schema nodes or environments, which is what makes shared
// schemas safe under concurrent calls.
type evalContext struct {
	mode     Mode
	failFast bool
	path     []any
	fails    Failures
	guard    *eng.Guard
	hardErr  error // RecursionLimitError in convert mode
}

func newEvalContext(env *Environment, mode Mode, failFast bool) *evalContext {
	return &evalContext{
		mode:     mode,
		failFast: failFast,
		guard:    eng.NewGuard(env.maxDepth),
	}
}

func (c *evalContext) stopped() bool {
	return c.hardErr != nil || (c.failFast && len(c.fails) > 0)
}

func (c *evalContext) fail(constraint, message string, param any) {
	c.fails = AppendFailures(c.fails, Failure{
		Path:       append([]any(nil), c.path...),
		Constraint: constraint,
		Message:    message,
		Param:      param,
	})
}

// evalNode walks one node against a present value and returns the converted
// value. On failure the returned value is undefined; callers consult the
// context.
func (c *evalContext) evalNode(n *Node, value any) any {
	n = n.resolve()

	if err := c.guard.Enter(); err != nil {
		if errors.Is(err, eng.ErrDepthExceeded) {
			limitErr := &RecursionLimitError{Limit: c.guard.Limit(), Path: append([]any(nil), c.path...)}
			if c.mode.Converts() {
				c.hardErr = limitErr
			} else {
				c.fail(ConstraintRecursion, limitErr.Error(), c.guard.Limit())
			}
		}
		return value
	}
	defer c.guard.Leave()

	env := n.env

	// Implicit type check/coercion runs before any other constraint.
	if n.coerce != CoerceReference && n.typ.Name != TypeAny {
		if !n.typ.Detect(value) {
			coerced := false
			if c.mode.Converts() && n.coerce == CoerceEnabled && n.typ.Coerce != nil {
				if cv, err := n.typ.Coerce(value); err == nil {
					value = cv
					coerced = true
				}
			}
			if !coerced {
				c.fail(ConstraintType, i18n.T(i18n.CodeTypeMismatch, map[string]string{"type": n.typ.Name}), n.typ.Name)
				return value
			}
		}
	}

	// Remaining constraints run in declared order; the first failure halts
	// constraint evaluation on this node but not on siblings or children.
	for _, b := range n.constraints {
		if b.handler == nil {
			continue
		}
		if !c.applicable(env, b.def, value) {
			continue
		}
		out, err := b.handler(value, c.mode)
		if err != nil {
			c.fail(b.def.Name, err.Error(), b.param)
			break
		}
		if c.mode.Converts() {
			value = out
		}
		if c.stopped() {
			return value
		}
	}
	if c.stopped() {
		return value
	}

	switch t := value.(type) {
	case map[string]any:
		if n.typ.Name == TypeObject || (n.typ.Name == TypeAny && len(n.properties) > 0) {
			return c.evalObject(n, t)
		}
	case []any:
		if n.items != nil {
			return c.evalArray(n, t)
		}
	}
	if c.mode.Converts() {
		return copyValue(value)
	}
	return value
}

// applicable reports whether a constraint applies to the value's runtime
// type. Constraints bound to opaque nodes are skipped silently when the
// value is out of their domain, matching partial knowledge of foreign data.
func (c *evalContext) applicable(env *Environment, def *Constraint, value any) bool {
	if def.Types == nil {
		return true
	}
	detected := env.detectType(value)
	for _, want := range def.Types {
		if env.typeIsA(detected.Name, want) {
			return true
		}
	}
	return false
}

// evalObject walks declared properties in schema order, applies defaults and
// presence rules, then handles unknown input keys per the environment
// policy.
func (c *evalContext) evalObject(n *Node, src map[string]any) any {
	var out map[string]any
	if c.mode.Converts() {
		out = make(map[string]any, len(src))
	}

	// A node with no declared properties is a free-form object; the
	// unknown-key policy only applies relative to declared properties.
	if len(n.properties) == 0 {
		if out == nil {
			return src
		}
		for k, v := range src {
			out[k] = copyValue(v)
		}
		return out
	}

	for _, prop := range n.properties {
		c.path = append(c.path, prop.Name)
		if v, present := src[prop.Name]; present {
			res := c.evalNode(prop.Node, v)
			if out != nil && c.hardErr == nil {
				out[prop.Name] = res
			}
		} else if dv, ok := prop.Node.resolve().Default(); ok && c.mode.Converts() {
			res := c.evalNode(prop.Node, copyValue(dv))
			if out != nil && c.hardErr == nil {
				out[prop.Name] = res
			}
		} else if prop.Required && !c.mode.Partial() {
			c.fail(ConstraintRequired, i18n.T(i18n.CodeMissingField, map[string]string{"key": prop.Name}), nil)
		}
		c.path = c.path[:len(c.path)-1]
		if c.stopped() {
			return out
		}
	}

	for _, k := range sortedUnknownKeys(n, src) {
		switch n.env.unknown {
		case UnknownReject:
			c.path = append(c.path, k)
			c.fail(ConstraintUnknown, i18n.T(i18n.CodeUnknownKey, map[string]string{"key": k}), nil)
			c.path = c.path[:len(c.path)-1]
			if c.stopped() {
				return out
			}
		case UnknownPassthrough:
			if out != nil {
				out[k] = copyValue(src[k])
			}
		case UnknownIgnore:
			// dropped from converted output, accepted by validation
		}
	}

	if out != nil {
		return out
	}
	return src
}

func (c *evalContext) evalArray(n *Node, src []any) any {
	var out []any
	if c.mode.Converts() {
		out = make([]any, 0, len(src))
	}
	for i, v := range src {
		c.path = append(c.path, i)
		res := c.evalNode(n.items, v)
		if out != nil && c.hardErr == nil {
			out = append(out, res)
		}
		c.path = c.path[:len(c.path)-1]
		if c.stopped() {
			return out
		}
	}
	if out != nil {
		return out
	}
	return src
}

func sortedUnknownKeys(n *Node, src map[string]any) []string {
	var unknown []string
	for k := range src {
		if _, known := n.propIndex[k]; !known {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// validateDetached runs a standalone validation of a value against a node,
// used by build-time default checks and the contains constraint.
func validateDetached(n *Node, v any) bool {
	c := newEvalContext(n.env, ModeValidate, true)
	c.evalNode(n, v)
	return len(c.fails) == 0
}
