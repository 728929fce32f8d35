package skemahub

// Property is a parent node's reference to a child: the property name, the
// child node and whether the parent requires it. Required-ness lives here,
// on the reference, not on the child itself.
type Property struct {
	Name     string
	Node     *Node
	Required bool
}

// Node is one node of a hub-native schema tree: a type reference, ordered
// constraints (unique by name, last registration wins), children, metadata
// and an optional default. Nodes are immutable once their environment hands
// them out; evaluation keeps all per-call state on its own context.
type Node struct {
	env *Environment
	typ *Type

	name        string
	description string

	defaultValue any
	hasDefault   bool

	coerce CoercePolicy

	params      map[string]any // raw hub-keyed constraint parameters
	constraints []bound
	extensions  []Extension

	properties []Property
	propIndex  map[string]int
	items      *Node

	// ref marks the node as a reference to a named schema's root; the
	// engine and translator follow target instead of descending into the
	// node's own (empty) children.
	ref    string
	target *Schema
}

// TypeName returns the hub identifier of the node's type.
func (n *Node) TypeName() string { return n.typ.Name }

// Name returns the node's metadata name, usually empty for inner nodes.
func (n *Node) Name() string { return n.name }

// Description returns the node's metadata description.
func (n *Node) Description() string { return n.description }

// Default returns the node's default value and whether one is set.
func (n *Node) Default() (any, bool) { return n.defaultValue, n.hasDefault }

// Properties returns the node's child references in declared order. The
// caller must not modify the returned slice.
func (n *Node) Properties() []Property { return n.properties }

// Property looks up a child reference by name.
func (n *Node) Property(name string) (Property, bool) {
	i, ok := n.propIndex[name]
	if !ok {
		return Property{}, false
	}
	return n.properties[i], true
}

// Items returns the item node of an array-typed node, or nil.
func (n *Node) Items() *Node { return n.items }

// Extensions returns the node's preserved extension constraints.
func (n *Node) Extensions() []Extension { return n.extensions }

// ConstraintParam returns the raw parameter bound for the given hub
// constraint identifier, or (nil, false) when the node does not carry it.
func (n *Node) ConstraintParam(name string) (any, bool) {
	v, ok := n.params[name]
	return v, ok
}

// Constraints returns the hub identifiers of the node's bound constraints in
// evaluation order.
func (n *Node) Constraints() []string {
	out := make([]string, 0, len(n.constraints))
	for _, b := range n.constraints {
		out = append(out, b.def.Name)
	}
	return out
}

// Ref returns the named schema this node references, or "".
func (n *Node) Ref() string { return n.ref }

// resolve returns the node evaluation should descend into: the referenced
// schema's root for ref nodes, otherwise the node itself.
func (n *Node) resolve() *Node {
	if n.target != nil {
		return n.target.root
	}
	return n
}

// copyValue returns a deep copy of a plain nested value. Conversion never
// mutates its input, and substituted defaults must not alias the schema.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
