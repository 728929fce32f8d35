package codec

import (
	skemahub "github.com/skemahub/skemahub"
)

// Identity returns a wire codec that performs identity transformations in
// both directions. Useful when a type's hub representation already is its
// wire representation for the target environment.
func Identity() skemahub.WireCodec { return identityCodec{} }

type identityCodec struct{}

func (identityCodec) ToWire(v any) (any, error)   { return v, nil }
func (identityCodec) FromWire(v any) (any, error) { return v, nil }
