package resource

import "sync"

// Attributes is a key/value bag an owner may update between timer ticks,
// e.g. the target of a heartbeated setpoint.
type Attributes struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewAttributes creates a bag seeded with a copy of initial.
func NewAttributes(initial map[string]any) *Attributes {
	a := &Attributes{values: make(map[string]any, len(initial))}
	for k, v := range initial {
		a.values[k] = v
	}
	return a
}

// Get returns the value stored under key.
func (a *Attributes) Get(key string) (any, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.values[key]
	return v, ok
}

// Set stores value under key.
func (a *Attributes) Set(key string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[key] = value
}

// Delete removes key.
func (a *Attributes) Delete(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.values, key)
}

// Snapshot returns a copy of all values.
func (a *Attributes) Snapshot() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[string]any, len(a.values))
	for k, v := range a.values {
		out[k] = v
	}
	return out
}
