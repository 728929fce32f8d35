package skemahub

// Schema is a named, rooted schema node bound to its owning environment.
// Schemas are immutable after construction and may be referenced (not
// copied) by other schemas, which is how recursive definitions work.
type Schema struct {
	name string
	env  *Environment
	root *Node
}

// Name returns the catalog name, or "" for anonymous schemas.
func (s *Schema) Name() string { return s.name }

// Env returns the owning environment.
func (s *Schema) Env() *Environment { return s.env }

// Root returns the root schema node.
func (s *Schema) Root() *Node { return s.root }

// Convert evaluates data against the schema and returns a newly built,
// conformant value. It stops at the first hard failure; the input is never
// mutated. Use Validate for the exhaustive failure list.
func (s *Schema) Convert(v any) (any, error) {
	return s.convert(v, ModeConvert)
}

// ConvertPartial converts without enforcing presence constraints; every
// other constraint still applies.
func (s *Schema) ConvertPartial(v any) (any, error) {
	return s.convert(v, ModePartialConvert)
}

func (s *Schema) convert(v any, mode Mode) (any, error) {
	c := newEvalContext(s.env, mode, true)
	out := c.evalNode(s.root, v)
	if c.hardErr != nil {
		return nil, c.hardErr
	}
	if len(c.fails) > 0 {
		return nil, c.fails
	}
	return out, nil
}

// Validate evaluates data against the schema and returns the exhaustive
// failure list. It visits every independent branch and never returns an
// error; the Result's truthiness encodes success.
func (s *Schema) Validate(v any) Result {
	return s.validate(v, ModeValidate)
}

// ValidatePartial validates without enforcing presence constraints.
func (s *Schema) ValidatePartial(v any) Result {
	return s.validate(v, ModePartialValidate)
}

func (s *Schema) validate(v any, mode Mode) Result {
	c := newEvalContext(s.env, mode, false)
	c.evalNode(s.root, v)
	return Result{Failures: c.fails}
}
