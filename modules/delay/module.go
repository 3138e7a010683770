// Package delay provides the 'delay' unit: it holds its input for a
// configured duration before forwarding it.
package delay

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type delayUnit struct {
	duration time.Duration
}

func (u *delayUnit) Load(ctx context.Context, b *unit.Binding) error {
	raw := b.ConfigString("duration", "1s")
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("node %q: invalid duration %q: %w", b.NodeID, raw, err)
	}
	u.duration = d
	return nil
}

// Execute suspends on a timer and honors cancellation at the suspension
// point, returning the context error without emitting anything.
func (u *delayUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	timer := time.NewTimer(u.duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	v, ok := inv.Arg("value")
	if !ok {
		v = inv.Seed
	}
	return &unit.Result{Outputs: []unit.Output{unit.Val(v)}}, nil
}

// Register registers the unit type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "delay",
		New:      func() unit.Unit { return &delayUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
	})
}
