package overlay

import "sync"

// Gate is an enabled flag with transition callbacks. It is independent of
// whether there is anything to show.
type Gate struct {
	mu        sync.Mutex
	enabled   bool
	onEnable  func()
	onDisable func()
}

// NewGate creates a Gate in the given state.
func NewGate(enabled bool) *Gate {
	return &Gate{enabled: enabled}
}

// SetCallbacks sets the enable/disable callbacks.
func (g *Gate) SetCallbacks(onEnable, onDisable func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onEnable = onEnable
	g.onDisable = onDisable
}

// Set changes the state. Callbacks run only on a transition and after the
// lock is released, so they may query the gate.
func (g *Gate) Set(enabled bool) {
	g.mu.Lock()
	if g.enabled == enabled {
		g.mu.Unlock()
		return
	}
	g.enabled = enabled
	cb := g.onDisable
	if enabled {
		cb = g.onEnable
	}
	g.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// Enable opens the gate.
func (g *Gate) Enable() { g.Set(true) }

// Disable closes the gate.
func (g *Gate) Disable() { g.Set(false) }

// Enabled reports the current state.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}
