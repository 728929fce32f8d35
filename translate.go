package skemahub

import (
	"errors"

	eng "github.com/skemahub/skemahub/internal/engine"
)

// Warning records a hub construct dropped during translation under the
// UnmappableWarn policy. Drops are always surfaced as data, never silent.
type Warning struct {
	Path      []any
	Construct string
}

// Translation is the outcome of exporting a schema into a target
// environment: the environment-native definition plus any drop warnings.
type Translation struct {
	Definition map[string]any
	Warnings   []Warning
}

// Translate exports a hub-native schema into the target environment's
// native definition. The schema is already hub-native, so translation is
// export-only: each node's type and constraints pass through the target's
// exporters. Self-referencing schemas terminate by emitting a reference
// construct when an in-progress node is re-encountered.
func Translate(s *Schema, target *Environment) (*Translation, error) {
	x := &exportContext{
		target:     target,
		guard:      eng.NewGuard(target.maxDepth),
		inProgress: map[*Node]string{},
	}
	def, err := x.exportNode(s.root, s.name, nil)
	if err != nil {
		return nil, err
	}
	return &Translation{Definition: def, Warnings: x.warnings}, nil
}

type exportContext struct {
	target     *Environment
	guard      *eng.Guard
	inProgress map[*Node]string
	warnings   []Warning
}

func (x *exportContext) refConstruct(name string) map[string]any {
	return map[string]any{x.target.exportKey("ref"): name}
}

func (x *exportContext) exportNode(n *Node, name string, path []any) (map[string]any, error) {
	if n.ref != "" {
		return x.refConstruct(n.ref), nil
	}
	if seen, ok := x.inProgress[n]; ok {
		return x.refConstruct(seen), nil
	}
	if err := x.guard.Enter(); err != nil {
		if errors.Is(err, eng.ErrDepthExceeded) {
			return nil, &RecursionLimitError{Limit: x.guard.Limit(), Path: append([]any(nil), path...)}
		}
		return nil, err
	}
	defer x.guard.Leave()
	refName := name
	if refName == "" {
		refName = n.name
	}
	x.inProgress[n] = refName
	defer delete(x.inProgress, n)

	t := x.target
	out := map[string]any{}

	if n.typ.Name != TypeAny {
		typeName, err := x.exportType(n.typ.Name, path, out)
		if err != nil {
			return nil, err
		}
		if typeName != "" {
			out[t.exportKey("type")] = typeName
		}
	}

	if n.name != "" {
		out[t.exportKey("name")] = n.name
	}
	if n.description != "" {
		out[t.exportKey("description")] = n.description
	}
	if n.hasDefault {
		out[t.exportKey("default")] = copyValue(n.defaultValue)
	}
	if n.coerce == CoerceEnabled {
		out[t.exportKey("coerce")] = true
	} else if n.coerce == CoerceReference {
		out[t.exportKey("coerce")] = "reference"
	}

	for _, b := range n.constraints {
		if err := x.exportConstraint(n, b, path, out); err != nil {
			return nil, err
		}
	}

	// Extension constructs export verbatim under their literal names.
	for _, ext := range n.extensions {
		out[ext.Name] = copyValue(ext.Param)
	}

	if len(n.properties) > 0 {
		props := make(map[string]any, len(n.properties))
		var required []string
		for _, prop := range n.properties {
			child, err := x.exportNode(prop.Node, "", append(path, prop.Name))
			if err != nil {
				return nil, err
			}
			if !isImplicitAny(prop.Node) {
				props[prop.Name] = child
			}
			if prop.Required {
				required = append(required, prop.Name)
			}
		}
		if len(props) > 0 {
			out[t.exportKey("properties")] = props
		}
		if len(required) > 0 {
			out[t.exportKey("required")] = required
		}
	}

	if n.items != nil {
		item, err := x.exportNode(n.items, "", append(path, "items"))
		if err != nil {
			return nil, err
		}
		out[t.exportKey("items")] = item
	}

	return out, nil
}

// isImplicitAny reports a child created solely by a required-name listing:
// an opaque node with no constraints of its own. It round-trips through the
// required list alone.
func isImplicitAny(n *Node) bool {
	return n.typ.Name == TypeAny && !n.hasDefault && len(n.constraints) == 0 &&
		len(n.extensions) == 0 && len(n.properties) == 0 && n.items == nil &&
		n.ref == "" && n.name == "" && n.description == ""
}

func (x *exportContext) exportType(hubName string, path []any, out map[string]any) (string, error) {
	t := x.target
	if native, ok := t.typeOut[hubName]; ok {
		return native, nil
	}
	if _, ok := t.types[hubName]; ok {
		return hubName, nil
	}
	switch t.unmappable {
	case UnmappableWarn:
		x.warnings = append(x.warnings, Warning{Path: append([]any(nil), path...), Construct: "type:" + hubName})
		return "", nil
	case UnmappablePreserve:
		out["x-hub-type"] = hubName
		return "", nil
	default:
		return "", &UnmappableConstructError{Env: t.name, Construct: "type:" + hubName, Path: append([]any(nil), path...)}
	}
}

func (x *exportContext) exportConstraint(n *Node, b bound, path []any, out map[string]any) error {
	t := x.target
	if fn, ok := t.exporters[b.def.Name]; ok {
		m, err := fn(b.param, n)
		if err != nil {
			return err
		}
		if len(m) > 0 {
			for k, v := range m {
				out[k] = v
			}
			return nil
		}
		// fall through: the exporter declared the construct unmappable
	} else if _, known := t.constraints.lookup(b.def.Name); known {
		out[t.exportKey(b.def.Name)] = copyValue(b.param)
		return nil
	}
	switch t.unmappable {
	case UnmappableWarn:
		x.warnings = append(x.warnings, Warning{Path: append([]any(nil), path...), Construct: b.def.Name})
		return nil
	case UnmappablePreserve:
		out["x-hub-"+b.def.Name] = copyValue(b.param)
		return nil
	default:
		return &UnmappableConstructError{Env: t.name, Construct: b.def.Name, Path: append([]any(nil), path...)}
	}
}
