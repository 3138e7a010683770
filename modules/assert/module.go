// Package assert provides the 'assert_equal' unit. A failed assertion is a
// unit error, which aborts the whole run.
package assert

import (
	"context"
	"fmt"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type assertEqualUnit struct{}

func (u *assertEqualUnit) Load(ctx context.Context, b *unit.Binding) error { return nil }

func (u *assertEqualUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	actual, ok := inv.Arg("actual")
	if !ok {
		return nil, fmt.Errorf("node %q: missing 'actual' input", inv.NodeID)
	}
	expected, ok := inv.Arg("expected")
	if !ok {
		return nil, fmt.Errorf("node %q: missing 'expected' input", inv.NodeID)
	}
	if !actual.RawEquals(expected) {
		return nil, fmt.Errorf("node %q: assertion failed: got %v, want %v", inv.NodeID, actual.GoString(), expected.GoString())
	}
	return &unit.Result{Outputs: []unit.Output{unit.Val(actual)}}, nil
}

// Register registers the unit type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "assert_equal",
		New:      func() unit.Unit { return &assertEqualUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "actual", Type: cty.DynamicPseudoType},
			{Name: "expected", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
	})
}
