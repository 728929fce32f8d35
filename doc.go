package skemahub

// Package skemahub is a hub-and-spoke schema engine:
//
// - One canonical ("hub") schema model: typed nodes with ordered, named
//   constraints, children, defaults and required references.
// - Environments bundle types, constraints, a named-schema catalog and
//   import/export mappings; every cross-environment translation routes
//   through the hub, so adding environment N+1 needs only its own mappings.
// - Convert/Validate walk a schema tree against data. Convert stops at the
//   first hard failure and returns a new value; Validate always returns the
//   exhaustive failure list as a Result. Partial modes skip presence checks.
// - Translate exports a schema into a target environment's native definition;
//   Marshal converts data into the hub (enforcing the schema) and then out
//   through the target's wire codecs.
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations
//   under internal/.
// - Place environments under their own packages (jsonschema/), wire codecs
//   under codec/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  env, err := jsonschema.New()
//  s, err := env.Define("user", def)
//  v, err := s.Convert(data)
//  r := s.Validate(data)
//
//  out, err := skemahub.Translate(s, target)
//  wire, err := skemahub.Marshal(data, s, target)
