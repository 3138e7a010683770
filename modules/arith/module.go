// Package arith provides arithmetic units: 'sum' adds its two operands and
// 'accumulate' keeps a running total across repeated firings of one run.
package arith

import (
	"context"
	"fmt"
	"math/big"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type sumUnit struct{}

func (u *sumUnit) Load(ctx context.Context, b *unit.Binding) error { return nil }

func (u *sumUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	a, err := number(inv, "a")
	if err != nil {
		return nil, err
	}
	b, err := number(inv, "b")
	if err != nil {
		return nil, err
	}
	total := new(big.Float).Add(a, b)
	return &unit.Result{Outputs: []unit.Output{unit.Val(cty.NumberVal(total))}}, nil
}

// accumulateUnit waits for its seed once, then re-arms on increments only.
// The running total lives in run-scoped memory, so parallel runs never share
// state.
type accumulateUnit struct{}

const totalKey = "total"

func (u *accumulateUnit) Load(ctx context.Context, b *unit.Binding) error { return nil }

func (u *accumulateUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	if _, ok := inv.Memory.Get(totalKey); !ok {
		seed, err := number(inv, "seed")
		if err != nil {
			return nil, err
		}
		inv.Memory.Set(totalKey, cty.NumberVal(seed))
		return &unit.Result{
			Outputs:     []unit.Output{unit.Val(cty.NumberVal(seed))},
			StateUpdate: &unit.StateUpdate{WaitFor: []string{"increment"}},
		}, nil
	}

	inc, err := number(inv, "increment")
	if err != nil {
		return nil, err
	}
	prev := inv.Memory.GetOr(totalKey, cty.Zero)
	total := new(big.Float).Add(prev.AsBigFloat(), inc)
	v := cty.NumberVal(total)
	inv.Memory.Set(totalKey, v)
	return &unit.Result{Outputs: []unit.Output{unit.Val(v)}}, nil
}

func number(inv *unit.Invocation, name string) (*big.Float, error) {
	v, ok := inv.Arg(name)
	if !ok {
		return nil, fmt.Errorf("node %q: missing numeric input %q", inv.NodeID, name)
	}
	if v.Type() != cty.Number {
		return nil, fmt.Errorf("node %q: input %q is %s, want number", inv.NodeID, name, v.Type().FriendlyName())
	}
	return v.AsBigFloat(), nil
}

// Register registers the unit types with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "sum",
		New:      func() unit.Unit { return &sumUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "a", Type: cty.Number, IsDependency: true},
			{Name: "b", Type: cty.Number, IsDependency: true},
		},
		Outputs: []graph.SocketSpec{
			{Name: "sum", Type: cty.Number},
		},
	})
	r.Register(&registry.Entry{
		UnitType: "accumulate",
		New:      func() unit.Unit { return &accumulateUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "seed", Type: cty.Number},
			{Name: "increment", Type: cty.Number, DoNotWait: true},
		},
		Outputs: []graph.SocketSpec{
			{Name: "total", Type: cty.Number},
		},
	})
}
