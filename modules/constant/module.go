// Package constant provides the 'constant' unit: it emits its configured
// value every time it fires.
package constant

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

type constantUnit struct {
	value cty.Value
}

func (u *constantUnit) Load(ctx context.Context, b *unit.Binding) error {
	v, ok := b.ConfigValue("value")
	if !ok {
		return fmt.Errorf("node %q: constant requires a 'value' config attribute", b.NodeID)
	}
	u.value = v
	return nil
}

func (u *constantUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	return &unit.Result{Outputs: []unit.Output{unit.Val(u.value)}}, nil
}

// Register registers the unit type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "constant",
		New:      func() unit.Unit { return &constantUnit{} },
		Outputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
	})
}
