// Package engine holds the shared runtime enforcement used by evaluation and
// translation walks.
package engine

import "errors"

// ErrDepthExceeded reports that a walk descended past its configured bound.
var ErrDepthExceeded = errors.New("engine: depth limit exceeded")

// Guard bounds recursion depth. A zero or negative limit disables
// enforcement. Guards are per-call state and must not be shared across
// concurrent walks.
type Guard struct {
	depth int
	limit int
}

// NewGuard returns a Guard enforcing the given depth limit.
func NewGuard(limit int) *Guard { return &Guard{limit: limit} }

// Limit returns the configured bound.
func (g *Guard) Limit() int { return g.limit }

// Enter records one level of descent, failing when the limit is exceeded.
// Every successful Enter must be paired with Leave; a failed Enter records
// nothing.
func (g *Guard) Enter() error {
	if g.limit > 0 && g.depth >= g.limit {
		return ErrDepthExceeded
	}
	g.depth++
	return nil
}

// Leave backs out one level of descent.
func (g *Guard) Leave() {
	if g.depth > 0 {
		g.depth--
	}
}
