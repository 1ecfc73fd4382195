package reconcile

import "sync/atomic"

// Guard is a process-wide flag held while a view is being placed at the
// first position, so the placement cannot re-enter itself
type Guard struct {
	held atomic.Bool
}

// Acquire takes the guard. It returns a release func and true, or nil and
// false when the guard is already held.
func (g *Guard) Acquire() (release func(), ok bool) {
	if !g.held.CompareAndSwap(false, true) {
		return nil, false
	}
	return func() { g.held.Store(false) }, true
}

// Held reports whether the guard is currently taken
func (g *Guard) Held() bool {
	return g.held.Load()
}

var firstPositionGuard Guard
