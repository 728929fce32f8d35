package codec

import (
	"fmt"
	"time"

	skemahub "github.com/skemahub/skemahub"
)

// TimeRFC3339 returns a wire codec that converts between time.Time hub
// values and RFC3339 strings, for text-based environments. Formatting is
// canonical: UTC, trailing zeros trimmed.
func TimeRFC3339() skemahub.WireCodec { return rfc3339Codec{} }

type rfc3339Codec struct{}

func (rfc3339Codec) ToWire(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("codec: expected time.Time, got %T", v)
	}
	return formatRFC3339Canonical(t), nil
}

func (rfc3339Codec) FromWire(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("codec: expected RFC3339 string, got %T", v)
	}
	return parseRFC3339(s)
}

func parseRFC3339(s string) (time.Time, error) {
	// Accept RFC3339Nano (trailing zeros optional)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2, nil
		}
		return time.Time{}, err
	}
	return t, nil
}

func formatRFC3339Canonical(t time.Time) string {
	// Normalize to UTC and format using RFC3339Nano (Go trims trailing zeros)
	return t.UTC().Format(time.RFC3339Nano)
}
