package skemahub

import (
	"fmt"
)

// Marshal converts a data value into the target environment's wire
// representation, enforcing the schema as a side effect: the value is first
// converted into the hub representation, then exported through the wire
// codecs the target registered per type. Invalid data therefore can never
// pass through silently.
func Marshal(v any, s *Schema, target *Environment) (any, error) {
	return marshal(v, s, target, ModeConvert)
}

// MarshalPartial marshals without enforcing presence constraints.
func MarshalPartial(v any, s *Schema, target *Environment) (any, error) {
	return marshal(v, s, target, ModePartialConvert)
}

func marshal(v any, s *Schema, target *Environment, mode Mode) (any, error) {
	hub, err := s.convert(v, mode)
	if err != nil {
		return nil, err
	}
	return exportValue(s.root, hub, target, nil)
}

// Unmarshal converts a value from the source environment's wire
// representation into the hub: wire codecs run first, then the schema
// converts (and thereby enforces) the result.
func Unmarshal(v any, s *Schema, source *Environment) (any, error) {
	hub, err := importValue(s.root, v, source, nil)
	if err != nil {
		return nil, err
	}
	return s.Convert(hub)
}

// wireFor resolves the codec for a type, walking parent links so a codec
// registered for a parent type covers its subtypes.
func wireFor(target *Environment, typeName string) (WireCodec, bool) {
	for typeName != "" {
		if c, ok := target.wire[typeName]; ok {
			return c, true
		}
		t, ok := target.types[typeName]
		if !ok {
			return nil, false
		}
		typeName = t.Parent
	}
	return nil, false
}

func exportValue(n *Node, v any, target *Environment, path []any) (any, error) {
	n = n.resolve()

	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			prop, ok := n.Property(k)
			if !ok {
				out[k] = copyValue(e)
				continue
			}
			ev, err := exportValue(prop.Node, e, target, append(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		v = any(out)
	case []any:
		if n.items != nil {
			out := make([]any, len(t))
			for i, e := range t {
				ev, err := exportValue(n.items, e, target, append(path, i))
				if err != nil {
					return nil, err
				}
				out[i] = ev
			}
			v = any(out)
		} else {
			v = copyValue(v)
		}
	}

	if codec, ok := wireFor(target, n.typ.Name); ok {
		wv, err := codec.ToWire(v)
		if err != nil {
			return nil, fmt.Errorf("skemahub: wire export of %q at %s: %w", n.typ.Name, RenderPath(path), err)
		}
		return wv, nil
	}
	return v, nil
}

func importValue(n *Node, v any, source *Environment, path []any) (any, error) {
	n = n.resolve()

	if codec, ok := wireFor(source, n.typ.Name); ok {
		hv, err := codec.FromWire(v)
		if err != nil {
			return nil, fmt.Errorf("skemahub: wire import of %q at %s: %w", n.typ.Name, RenderPath(path), err)
		}
		v = hv
	}

	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			prop, ok := n.Property(k)
			if !ok {
				out[k] = copyValue(e)
				continue
			}
			iv, err := importValue(prop.Node, e, source, append(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = iv
		}
		return out, nil
	case []any:
		if n.items == nil {
			return copyValue(v), nil
		}
		out := make([]any, len(t))
		for i, e := range t {
			iv, err := importValue(n.items, e, source, append(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = iv
		}
		return out, nil
	default:
		return v, nil
	}
}
