package skemahub

import (
	"fmt"
)

// Handler is a constraint compiled against one schema node. It receives the
// current value and the walk mode, and returns the (possibly converted) value
// or a failure. Handlers are pure functions of (value, parameter, node
// context); no hidden state, which is what makes translation and reuse across
// environments safe.
type Handler func(v any, mode Mode) (any, error)

// Constraint is a named, parameterized rule. Compile binds the rule to a
// schema node at construction time, returning the handler that will run
// during evaluation. A nil handler means the constraint has no runtime effect
// on this node (e.g. exclusive_maximum, which only modifies maximum).
//
// Types restricts the hub types the constraint applies to; nil means any.
// Binding a constraint to a node of an incompatible type is a
// registration-time error, never deferred to evaluation.
type Constraint struct {
	Name        string
	Description string
	Types       []string
	Compile     func(node *Node, param any) (Handler, error)
}

// failf builds the error a handler returns on constraint failure. The engine
// fills in path and constraint name.
func failf(format string, args ...any) error { return fmt.Errorf(format, args...) }

// constraintRegistry holds constraint definitions keyed by hub identifier,
// preserving registration order so nodes bind their constraints
// deterministically.
type constraintRegistry struct {
	defs  map[string]*Constraint
	order []string
}

func newConstraintRegistry() *constraintRegistry {
	return &constraintRegistry{defs: map[string]*Constraint{}}
}

func (r *constraintRegistry) register(c *Constraint) error {
	if _, dup := r.defs[c.Name]; dup {
		return fmt.Errorf("duplicate constraint %q", c.Name)
	}
	cc := *c
	r.defs[c.Name] = &cc
	r.order = append(r.order, c.Name)
	return nil
}

func (r *constraintRegistry) lookup(name string) (*Constraint, bool) {
	c, ok := r.defs[name]
	return c, ok
}

// clone copies the registry, optionally restricted to the given identifiers.
// Used by environments that represent only a subset of the hub constraints.
func (r *constraintRegistry) clone(include []string) (*constraintRegistry, error) {
	out := newConstraintRegistry()
	if include == nil {
		for _, name := range r.order {
			if err := out.register(r.defs[name]); err != nil {
				return nil, err
			}
		}
		return out, nil
	}
	allowed := make(map[string]bool, len(include))
	for _, name := range include {
		if _, ok := r.defs[name]; !ok {
			return nil, fmt.Errorf("unknown constraint %q", name)
		}
		allowed[name] = true
	}
	for _, name := range r.order {
		if allowed[name] {
			if err := out.register(r.defs[name]); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// bound is one constraint instance attached to a node: the definition, its
// parameter and the compiled handler.
type bound struct {
	def     *Constraint
	param   any
	handler Handler
}

// Extension is an environment-specific construct with no hub equivalent. It
// is preserved on the node, inert for environments that do not understand
// it, and exported verbatim rather than silently dropped.
type Extension struct {
	Name  string
	Param any
}
