package skemahub

import (
	"fmt"
	"sort"

	"github.com/skemahub/skemahub/internal/inflect"
)

// ConstraintImporter maps one environment-native constraint construct onto
// hub constraints. It receives the construct's parameter and the node's full
// normalized definition, and returns hub constraint identifiers with their
// parameters; a single native construct may decompose into several hub
// constraints.
type ConstraintImporter func(param any, def map[string]any) (map[string]any, error)

// ConstraintExporter maps one hub constraint onto environment-native
// constructs: native keys (in native spelling) with their parameters. The
// node is available so related constraints can merge into one construct
// (e.g. minimum and maximum into a range extension). Returning an empty map
// marks the construct unmappable for this target.
type ConstraintExporter func(param any, n *Node) (map[string]any, error)

// WireCodec converts a hub data value of one type to and from an
// environment's wire representation, e.g. a native timestamp to an ISO-8601
// string for a text-based environment.
type WireCodec interface {
	ToWire(v any) (any, error)
	FromWire(v any) (any, error)
}

// DefaultMaxDepth bounds evaluation and translation recursion when an
// environment does not configure its own limit.
const DefaultMaxDepth = 64

// Environment is a named bundle of registered types, constraints, a
// named-schema catalog, an inflection rule and per-construct import/export
// mappings to the hub. Lookups key by hub identifier, which is what keeps
// the topology a star: adding environment N+1 requires only its own
// mappings, never pairwise mappings with existing environments.
//
// An Environment is populated once, before any schema import; afterwards it
// is read-only and safe for concurrent use.
type Environment struct {
	name          string
	inflect       func(string) string // hub identifier -> native spelling
	aliases       map[string]string   // native spelling -> hub identifier
	exportAliases map[string]string   // hub identifier -> native spelling, overrides inflect

	types     map[string]*Type
	typeOrder []string // detection order; "any" stays last
	typeIn    map[string]string
	typeOut   map[string]string

	constraints *constraintRegistry
	importers   map[string]ConstraintImporter // keyed by native construct key
	exporters   map[string]ConstraintExporter // keyed by hub identifier
	wire        map[string]WireCodec          // keyed by hub type identifier

	schemas map[string]*Schema

	unknown        UnknownPolicy
	unmappable     UnmappablePolicy
	coerce         CoercePolicy
	maxDepth       int
	ignoreFormats  bool
	ignoredFormats map[string]struct{}
}

// Option configures an Environment at construction time.
type Option func(*Environment) error

// WithInflection sets the hub-to-native identifier rendering used at the
// export boundary. Import always normalizes to snake_case hub identifiers.
func WithInflection(fn func(string) string) Option {
	return func(e *Environment) error {
		e.inflect = fn
		return nil
	}
}

// WithAliases maps native spellings to hub identifiers at the import
// boundary, for keys inflection alone cannot resolve (e.g. "$ref").
func WithAliases(aliases map[string]string) Option {
	return func(e *Environment) error {
		for k, v := range aliases {
			e.aliases[k] = v
		}
		return nil
	}
}

// WithExportAliases maps hub identifiers to native spellings at the export
// boundary, for keys inflection alone cannot render (e.g. "ref" -> "$ref").
func WithExportAliases(aliases map[string]string) Option {
	return func(e *Environment) error {
		for k, v := range aliases {
			e.exportAliases[k] = v
		}
		return nil
	}
}

// WithUnknownPolicy sets the unknown-input-key policy for object evaluation.
func WithUnknownPolicy(p UnknownPolicy) Option {
	return func(e *Environment) error {
		e.unknown = p
		return nil
	}
}

// WithUnmappablePolicy sets the outcome for hub constructs this environment
// cannot express during translation.
func WithUnmappablePolicy(p UnmappablePolicy) Option {
	return func(e *Environment) error {
		e.unmappable = p
		return nil
	}
}

// WithCoercePolicy sets the default coercion policy for imported nodes.
// Nodes opt in individually via the "coerce" key.
func WithCoercePolicy(p CoercePolicy) Option {
	return func(e *Environment) error {
		e.coerce = p
		return nil
	}
}

// WithMaxDepth bounds recursion during evaluation and translation.
func WithMaxDepth(n int) Option {
	return func(e *Environment) error {
		e.maxDepth = n
		return nil
	}
}

// WithIgnoreFormats disables the format constraint entirely.
func WithIgnoreFormats() Option {
	return func(e *Environment) error {
		e.ignoreFormats = true
		return nil
	}
}

// WithIgnoredFormats disables the given named formats only.
func WithIgnoredFormats(names ...string) Option {
	return func(e *Environment) error {
		for _, n := range names {
			e.ignoredFormats[underscoreKey(n)] = struct{}{}
		}
		return nil
	}
}

// WithConstraints restricts the environment to the given hub constraint
// identifiers. Constructs outside the set become unmappable for translation
// into this environment and import as extension constraints.
func WithConstraints(names ...string) Option {
	return func(e *Environment) error {
		restricted, err := e.constraints.clone(names)
		if err != nil {
			return err
		}
		e.constraints = restricted
		return nil
	}
}

// New builds an Environment preloaded with the hub's built-in types and
// constraint library.
func New(name string, opts ...Option) (*Environment, error) {
	e := &Environment{
		name:           name,
		inflect:        func(s string) string { return s },
		aliases:        map[string]string{},
		exportAliases:  map[string]string{},
		types:          map[string]*Type{},
		typeIn:         map[string]string{},
		typeOut:        map[string]string{},
		constraints:    newConstraintRegistry(),
		importers:      map[string]ConstraintImporter{},
		exporters:      map[string]ConstraintExporter{},
		wire:           map[string]WireCodec{},
		schemas:        map[string]*Schema{},
		maxDepth:       DefaultMaxDepth,
		ignoredFormats: map[string]struct{}{},
	}
	for _, t := range BuiltinTypes() {
		tt := t
		e.types[t.Name] = &tt
		e.typeOrder = append(e.typeOrder, t.Name)
	}
	for _, c := range BuiltinConstraints() {
		if err := e.constraints.register(c); err != nil {
			return nil, &RegistrationError{Env: name, Construct: c.Name, Err: err}
		}
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, &RegistrationError{Env: name, Err: err}
		}
	}
	return e, nil
}

// Hub returns a fresh canonical hub environment: built-in types and
// constraints under their snake_case hub identifiers.
func Hub() *Environment {
	e, err := New("hub")
	if err != nil {
		panic(err) // built-ins are statically consistent
	}
	return e
}

// Name returns the environment's name.
func (e *Environment) Name() string { return e.name }

// RegisterType adds a type to the environment's registry. Identifier
// collisions are build-time configuration errors. Custom types take
// detection precedence over the opaque "any" type.
func (e *Environment) RegisterType(t Type) error {
	if t.Name == "" || t.Detect == nil {
		return &RegistrationError{Env: e.name, Construct: t.Name, Err: fmt.Errorf("type needs a name and a detection predicate")}
	}
	if _, dup := e.types[t.Name]; dup {
		return &RegistrationError{Env: e.name, Construct: t.Name, Err: fmt.Errorf("duplicate type")}
	}
	if t.Parent != "" {
		if _, ok := e.types[t.Parent]; !ok {
			return &RegistrationError{Env: e.name, Construct: t.Name, Err: fmt.Errorf("unknown parent type %q", t.Parent)}
		}
	}
	tt := t
	e.types[t.Name] = &tt
	// keep "any" last in detection order
	order := e.typeOrder
	if len(order) > 0 && order[len(order)-1] == TypeAny {
		e.typeOrder = append(append(order[:len(order)-1:len(order)-1], t.Name), TypeAny)
	} else {
		e.typeOrder = append(order, t.Name)
	}
	return nil
}

// MapType declares how a native type name imports to a hub type and how the
// hub type renders back out.
func (e *Environment) MapType(native, hub string) error {
	if _, ok := e.types[hub]; !ok {
		return &RegistrationError{Env: e.name, Construct: native, Err: fmt.Errorf("unknown hub type %q", hub)}
	}
	e.typeIn[native] = hub
	e.typeOut[hub] = native
	return nil
}

// RegisterConstraint adds a constraint definition under its hub identifier.
// Duplicate identifiers are build-time errors.
func (e *Environment) RegisterConstraint(c Constraint) error {
	if c.Name == "" || c.Compile == nil {
		return &RegistrationError{Env: e.name, Construct: c.Name, Err: fmt.Errorf("constraint needs a name and a compile function")}
	}
	if err := e.constraints.register(&c); err != nil {
		return &RegistrationError{Env: e.name, Construct: c.Name, Err: err}
	}
	return nil
}

// RegisterImporter maps a native construct key onto hub constraints at
// import time.
func (e *Environment) RegisterImporter(nativeKey string, fn ConstraintImporter) {
	e.importers[nativeKey] = fn
}

// RegisterExporter maps a hub constraint onto native constructs at export
// time.
func (e *Environment) RegisterExporter(hubName string, fn ConstraintExporter) {
	e.exporters[hubName] = fn
}

// RegisterWire attaches a wire codec to a hub type for marshalling into and
// out of this environment.
func (e *Environment) RegisterWire(typeName string, c WireCodec) error {
	if _, ok := e.types[typeName]; !ok {
		return &RegistrationError{Env: e.name, Construct: typeName, Err: fmt.Errorf("unknown type %q", typeName)}
	}
	e.wire[typeName] = c
	return nil
}

// Resolve returns a schema from the named-schema catalog.
func (e *Environment) Resolve(name string) (*Schema, bool) {
	s, ok := e.schemas[name]
	return s, ok
}

// Define imports an environment-native definition and records the resulting
// schema in the catalog under the given name. The schema is registered
// before its body compiles, so definitions may reference themselves.
func (e *Environment) Define(name string, def map[string]any) (*Schema, error) {
	if name == "" {
		return nil, &RegistrationError{Env: e.name, Err: fmt.Errorf("schema name must not be empty")}
	}
	if _, dup := e.schemas[name]; dup {
		return nil, &RegistrationError{Env: e.name, Construct: name, Err: fmt.Errorf("duplicate schema")}
	}
	s := &Schema{name: name, env: e}
	e.schemas[name] = s
	root, err := e.importNode(def, nil)
	if err != nil {
		delete(e.schemas, name)
		return nil, err
	}
	if root.name == "" {
		root.name = name
	}
	s.root = root
	if err := checkDefaults(root, map[*Node]bool{}); err != nil {
		delete(e.schemas, name)
		return nil, err
	}
	return s, nil
}

// Import builds an anonymous schema from an environment-native definition.
func (e *Environment) Import(def map[string]any) (*Schema, error) {
	root, err := e.importNode(def, nil)
	if err != nil {
		return nil, err
	}
	if err := checkDefaults(root, map[*Node]bool{}); err != nil {
		return nil, err
	}
	return &Schema{env: e, root: root}, nil
}

// exportKey renders a hub identifier in the environment's native spelling.
func (e *Environment) exportKey(hub string) string {
	if native, ok := e.exportAliases[hub]; ok {
		return native
	}
	return e.inflect(hub)
}

// normalizeKey resolves a native spelling to its hub identifier.
func (e *Environment) normalizeKey(k string) string {
	if hub, ok := e.aliases[k]; ok {
		return hub
	}
	return inflect.Underscore(k)
}

// structural keys consumed by the importer itself; everything else is a
// constraint or extension registration.
var structuralKeys = map[string]bool{
	"type":        true,
	"properties":  true,
	"items":       true,
	"required":    true,
	"default":     true,
	"name":        true,
	"description": true,
	"coerce":      true,
	"ref":         true,
}

func (e *Environment) importNode(def map[string]any, path []any) (*Node, error) {
	regErr := func(construct string, format string, args ...any) error {
		return &RegistrationError{Env: e.name, Construct: construct, Err: fmt.Errorf(format, args...)}
	}

	// Normalize keys, remembering the raw spelling for extensions and
	// importer lookups.
	normalized := make(map[string]any, len(def))
	rawByHub := make(map[string]string, len(def))
	for k, v := range def {
		hk := e.normalizeKey(k)
		normalized[hk] = v
		rawByHub[hk] = k
	}

	if rv, ok := normalized["ref"]; ok {
		refName, ok := rv.(string)
		if !ok {
			return nil, regErr("ref", "ref wants a schema name, got %T", rv)
		}
		target, ok := e.schemas[refName]
		if !ok {
			return nil, regErr(refName, "reference to unknown schema")
		}
		anyType := e.types[TypeAny]
		return &Node{env: e, typ: anyType, ref: refName, target: target}, nil
	}

	typeName := TypeAny
	if tv, ok := normalized["type"]; ok {
		s, ok := tv.(string)
		if !ok {
			return nil, regErr("type", "type wants a name, got %T", tv)
		}
		if hub, ok := e.typeIn[s]; ok {
			s = hub
		}
		typeName = s
	}
	typ, ok := e.types[typeName]
	if !ok {
		return nil, regErr(typeName, "environment has no type %q", typeName)
	}

	node := &Node{
		env:       e,
		typ:       typ,
		coerce:    e.coerce,
		params:    map[string]any{},
		propIndex: map[string]int{},
	}

	if v, ok := normalized["name"]; ok {
		if s, ok := v.(string); ok {
			node.name = s
		}
	}
	if v, ok := normalized["description"]; ok {
		if s, ok := v.(string); ok {
			node.description = s
		}
	}
	if v, ok := normalized["coerce"]; ok {
		p, err := coercePolicyOf(v)
		if err != nil {
			return nil, regErr("coerce", "%v", err)
		}
		node.coerce = p
	}
	if v, ok := normalized["default"]; ok {
		node.defaultValue = copyValue(v)
		node.hasDefault = true
	}

	if v, ok := normalized["properties"]; ok {
		props, ok := v.(map[string]any)
		if !ok {
			return nil, regErr("properties", "properties wants a mapping, got %T", v)
		}
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			childDef, ok := props[name].(map[string]any)
			if !ok {
				return nil, regErr(name, "property definition wants a mapping, got %T", props[name])
			}
			child, err := e.importNode(childDef, append(path, name))
			if err != nil {
				return nil, err
			}
			node.propIndex[name] = len(node.properties)
			node.properties = append(node.properties, Property{Name: name, Node: child})
		}
	}

	if v, ok := normalized["required"]; ok {
		names, err := stringList(v)
		if err != nil {
			return nil, regErr("required", "%v", err)
		}
		for _, name := range names {
			if i, ok := node.propIndex[name]; ok {
				node.properties[i].Required = true
				continue
			}
			// Required names without a declared property reference an
			// implicit opaque child.
			child := &Node{env: e, typ: e.types[TypeAny], coerce: e.coerce}
			node.propIndex[name] = len(node.properties)
			node.properties = append(node.properties, Property{Name: name, Node: child, Required: true})
		}
	}

	if v, ok := normalized["items"]; ok {
		itemDef, ok := v.(map[string]any)
		if !ok {
			return nil, regErr("items", "items wants a mapping, got %T", v)
		}
		item, err := e.importNode(itemDef, append(path, "items"))
		if err != nil {
			return nil, err
		}
		node.items = item
	}

	// Remaining keys are constraint or extension registrations. Importers
	// are consulted by the raw native spelling first; last registration of
	// a hub identifier wins.
	hubKeys := make([]string, 0, len(normalized))
	for hk := range normalized {
		if !structuralKeys[hk] {
			hubKeys = append(hubKeys, hk)
		}
	}
	sort.Strings(hubKeys)
	for _, hk := range hubKeys {
		raw := rawByHub[hk]
		param := normalized[hk]
		imp, ok := e.importers[raw]
		if !ok {
			imp, ok = e.importers[hk]
		}
		if ok {
			mapped, err := imp(param, normalized)
			if err != nil {
				return nil, regErr(raw, "%v", err)
			}
			for name, p := range mapped {
				node.params[name] = p
			}
			continue
		}
		if _, known := e.constraints.lookup(hk); known {
			node.params[hk] = param
			continue
		}
		node.extensions = append(node.extensions, Extension{Name: raw, Param: param})
	}
	sort.Slice(node.extensions, func(i, j int) bool { return node.extensions[i].Name < node.extensions[j].Name })

	// Bind constraints in the registry's canonical order.
	for _, name := range e.constraints.order {
		param, ok := node.params[name]
		if !ok {
			continue
		}
		cdef, _ := e.constraints.lookup(name)
		if err := e.checkApplicable(cdef, node); err != nil {
			return nil, regErr(name, "%v", err)
		}
		h, err := cdef.Compile(node, param)
		if err != nil {
			return nil, regErr(name, "%v", err)
		}
		node.constraints = append(node.constraints, bound{def: cdef, param: param, handler: h})
	}

	return node, nil
}

// checkApplicable enforces at registration time that a constraint is only
// bound to a node of a compatible type. Opaque nodes defer the check to
// evaluation, where inapplicable constraints are skipped.
func (e *Environment) checkApplicable(c *Constraint, node *Node) error {
	if c.Types == nil || node.typ.Name == TypeAny {
		return nil
	}
	for _, want := range c.Types {
		if e.typeIsA(node.typ.Name, want) {
			return nil
		}
	}
	return fmt.Errorf("constraint %q does not apply to type %q", c.Name, node.typ.Name)
}

// typeIsA reports whether name equals target or descends from it through
// parent links.
func (e *Environment) typeIsA(name, target string) bool {
	for name != "" {
		if name == target {
			return true
		}
		t, ok := e.types[name]
		if !ok {
			return false
		}
		name = t.Parent
	}
	return false
}

// detectType resolves a raw value to the most specific registered type.
func (e *Environment) detectType(v any) *Type {
	for _, name := range e.typeOrder {
		t := e.types[name]
		if t.Detect(v) {
			return t
		}
	}
	return e.types[TypeAny]
}

// checkDefaults verifies, at build time, that every default value in the
// tree satisfies its own node's constraints. A default that violates its
// node is a registration error, not a runtime surprise.
func checkDefaults(n *Node, seen map[*Node]bool) error {
	if n == nil || seen[n] {
		return nil
	}
	seen[n] = true
	if n.hasDefault {
		if !validateDetached(n, n.defaultValue) {
			return &RegistrationError{
				Env:       n.env.name,
				Construct: "default",
				Err:       fmt.Errorf("default value %v violates the node's own constraints", n.defaultValue),
			}
		}
	}
	for _, p := range n.properties {
		if err := checkDefaults(p.Node, seen); err != nil {
			return err
		}
	}
	if n.items != nil {
		if err := checkDefaults(n.items, seen); err != nil {
			return err
		}
	}
	return nil
}

func coercePolicyOf(v any) (CoercePolicy, error) {
	switch p := v.(type) {
	case bool:
		if p {
			return CoerceEnabled, nil
		}
		return CoerceStrict, nil
	case string:
		switch p {
		case "strict":
			return CoerceStrict, nil
		case "coerce":
			return CoerceEnabled, nil
		case "reference":
			return CoerceReference, nil
		}
		return CoerceStrict, fmt.Errorf("unknown coercion policy %q", p)
	default:
		return CoerceStrict, fmt.Errorf("coerce wants a bool or policy name, got %T", v)
	}
}

func stringList(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("wants a list of names, got %T element", e)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wants a list of names, got %T", v)
	}
}
