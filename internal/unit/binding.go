package unit

import (
	"fmt"
	"math/big"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// Binding is one node's per-run view of its own sockets and configuration.
// The socket slices are copies of the registry's declared specs; Load may
// toggle flags (IsDependency, DoNotWait, IsArray) on them before the run
// begins, and the change is visible only to this run.
type Binding struct {
	NodeID   string
	UnitType string
	Config   map[string]cty.Value
	Inputs   []graph.SocketSpec
	Outputs  []graph.SocketSpec
}

// Input returns a mutable pointer to the input socket spec with the given
// base name, or nil when the unit declares no such socket.
func (b *Binding) Input(name string) *graph.SocketSpec {
	for i := range b.Inputs {
		if b.Inputs[i].Name == name {
			return &b.Inputs[i]
		}
	}
	return nil
}

// Output returns a mutable pointer to the output socket spec with the given
// base name, or nil when the unit declares no such socket.
func (b *Binding) Output(name string) *graph.SocketSpec {
	for i := range b.Outputs {
		if b.Outputs[i].Name == name {
			return &b.Outputs[i]
		}
	}
	return nil
}

// ConfigValue returns the raw configuration value for key, if set.
func (b *Binding) ConfigValue(key string) (cty.Value, bool) {
	v, ok := b.Config[key]
	if !ok || v.IsNull() {
		return cty.NilVal, false
	}
	return v, true
}

// ConfigString returns the string configuration value for key, or fallback.
func (b *Binding) ConfigString(key, fallback string) string {
	v, ok := b.ConfigValue(key)
	if !ok || v.Type() != cty.String {
		return fallback
	}
	return v.AsString()
}

// ConfigBool returns the bool configuration value for key, or fallback.
func (b *Binding) ConfigBool(key string, fallback bool) bool {
	v, ok := b.ConfigValue(key)
	if !ok || v.Type() != cty.Bool {
		return fallback
	}
	return v.True()
}

// ConfigNumber returns the numeric configuration value for key, or fallback.
func (b *Binding) ConfigNumber(key string, fallback *big.Float) *big.Float {
	v, ok := b.ConfigValue(key)
	if !ok || v.Type() != cty.Number {
		return fallback
	}
	return v.AsBigFloat()
}

// ConfigInt returns the integer configuration value for key, or fallback.
// Non-integral numbers fall back as well.
func (b *Binding) ConfigInt(key string, fallback int64) int64 {
	v, ok := b.ConfigValue(key)
	if !ok || v.Type() != cty.Number {
		return fallback
	}
	n, acc := v.AsBigFloat().Int64()
	if acc != big.Exact {
		return fallback
	}
	return n
}

func (b *Binding) String() string {
	return fmt.Sprintf("%s (%s)", b.NodeID, b.UnitType)
}
