package skemahub

import (
	"fmt"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FormatFunc reports whether a string conforms to a named format.
type FormatFunc func(s string) bool

var (
	formatMu       sync.RWMutex
	formatRegistry = map[string]FormatFunc{}
)

// RegisterFormat adds a named format validator to the global registry.
// Registration happens during program initialization, before schemas are
// built.
func RegisterFormat(name string, fn FormatFunc) {
	formatMu.Lock()
	formatRegistry[underscoreKey(name)] = fn
	formatMu.Unlock()
}

// LookupFormat returns the validator for a format name, if registered.
func LookupFormat(name string) (FormatFunc, bool) {
	formatMu.RLock()
	fn, ok := formatRegistry[underscoreKey(name)]
	formatMu.RUnlock()
	return fn, ok
}

func underscoreKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

func compileFormat(node *Node, param any) (Handler, error) {
	name, ok := param.(string)
	if !ok {
		return nil, fmt.Errorf("constraint %q wants a string parameter, got %T", ConstraintFormat, param)
	}
	env := node.env
	if env.ignoreFormats {
		return nil, nil
	}
	// Historical alias.
	if name == "datetime" {
		name = "date-time"
	}
	if _, skip := env.ignoredFormats[underscoreKey(name)]; skip {
		return nil, nil
	}
	fn, ok := LookupFormat(name)
	if !ok {
		return nil, fmt.Errorf("unknown format %q", name)
	}
	return func(v any, mode Mode) (any, error) {
		if !fn(v.(string)) {
			return nil, failf("%q does not match the format %q", v, name)
		}
		return v, nil
	}, nil
}

var (
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	hostnameRe = regexp.MustCompile(`^(?i)[a-z\d]([a-z\d-]{0,61}[a-z\d])?$`)
)

func init() {
	RegisterFormat("date-time", func(s string) bool {
		_, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		return err == nil
	})
	RegisterFormat("date", func(s string) bool {
		_, err := time.Parse("2006-01-02", strings.TrimSpace(s))
		return err == nil
	})
	RegisterFormat("time", func(s string) bool {
		s = strings.TrimSpace(s)
		for _, layout := range []string{"15:04:05Z07:00", "15:04:05.999999999Z07:00"} {
			if _, err := time.Parse(layout, s); err == nil {
				return true
			}
		}
		return false
	})
	RegisterFormat("duration", func(s string) bool {
		_, err := time.ParseDuration(s)
		return err == nil
	})
	RegisterFormat("email", func(s string) bool { return emailRe.MatchString(s) })
	RegisterFormat("hostname", func(s string) bool {
		if len(s) > 255 || s == "" {
			return false
		}
		s = strings.TrimSuffix(s, ".")
		for _, label := range strings.Split(s, ".") {
			if !hostnameRe.MatchString(label) {
				return false
			}
		}
		return true
	})
	RegisterFormat("ipv4", func(s string) bool {
		addr, err := netip.ParseAddr(s)
		return err == nil && addr.Is4()
	})
	RegisterFormat("ipv6", func(s string) bool {
		addr, err := netip.ParseAddr(s)
		return err == nil && addr.Is6() && !addr.Is4In6()
	})
	RegisterFormat("uuid", func(s string) bool {
		_, err := uuid.Parse(s)
		return err == nil
	})
	RegisterFormat("uri", func(s string) bool {
		u, err := url.Parse(s)
		return err == nil && u.Scheme != ""
	})
	RegisterFormat("uri-reference", func(s string) bool {
		_, err := url.Parse(s)
		return err == nil
	})
}
