package unit

import (
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// Memory is a node's scratch state for one run, keyed by (run, node) rather
// than by unit instance, so event-triggered parallel runs of the same flow
// cannot race each other's state. Lifetime equals the run's.
type Memory struct {
	mu     sync.Mutex
	values map[string]cty.Value
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]cty.Value)}
}

// Get returns the stored value for key, if present.
func (m *Memory) Get(key string) (cty.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// GetOr returns the stored value for key, or fallback when absent.
func (m *Memory) GetOr(key string, fallback cty.Value) cty.Value {
	if v, ok := m.Get(key); ok {
		return v
	}
	return fallback
}

// Set stores a value under key.
func (m *Memory) Set(key string, v cty.Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = v
}
