package codec

import (
	"testing"
	"time"
)

func TestTimeRFC3339_RoundTrip(t *testing.T) {
	c := TimeRFC3339()

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	wire, err := c.ToWire(at)
	if err != nil {
		t.Fatalf("ToWire err: %v", err)
	}
	if wire != "2026-03-14T09:26:53Z" {
		t.Fatalf("unexpected wire form: %v", wire)
	}

	back, err := c.FromWire(wire)
	if err != nil {
		t.Fatalf("FromWire err: %v", err)
	}
	if !back.(time.Time).Equal(at) {
		t.Fatalf("round trip mismatch: %v != %v", back, at)
	}
}

func TestTimeRFC3339_CanonicalizesZone(t *testing.T) {
	c := TimeRFC3339()
	loc := time.FixedZone("JST", 9*3600)
	at := time.Date(2026, 3, 14, 18, 26, 53, 0, loc)
	wire, err := c.ToWire(at)
	if err != nil {
		t.Fatalf("ToWire err: %v", err)
	}
	if wire != "2026-03-14T09:26:53Z" {
		t.Fatalf("expected UTC canonical form, got %v", wire)
	}
}

func TestTimeRFC3339_RejectsWrongShapes(t *testing.T) {
	c := TimeRFC3339()
	if _, err := c.ToWire("not a time"); err == nil {
		t.Fatalf("expected error for non-time input")
	}
	if _, err := c.FromWire(42); err == nil {
		t.Fatalf("expected error for non-string input")
	}
	if _, err := c.FromWire("yesterday"); err == nil {
		t.Fatalf("expected error for malformed timestamp")
	}
}
