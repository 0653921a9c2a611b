// Package refresh serializes pull-and-load runs: at most one refresh is in
// flight at any time, and its state is readable without blocking it.
package refresh

import "sync"

// Gate is the single-flight flag around a refresh run. All access goes
// through accept-or-reject and status reads; the flag itself is never
// shared.
type Gate struct {
	mu         sync.Mutex
	refreshing bool
}

// TryBegin claims the gate. The caller that gets true owns the run and must
// call End when it finishes, however it finishes.
func (g *Gate) TryBegin() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refreshing {
		return false
	}
	g.refreshing = true
	return true
}

// End releases the gate.
func (g *Gate) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshing = false
}

// Refreshing reports whether a run is in flight.
func (g *Gate) Refreshing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refreshing
}
