// Package collect provides units that fan values into and out of array
// sockets: 'string_array' emits a configured list across an array socket,
// 'flatten' gathers an array socket back into one list value, and
// 'passthrough' forwards a single value with optional suppression.
package collect

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

// stringArrayUnit spreads config items over the 'items' array socket, one
// element per slot. Items listed in skip_indices are suppressed, leaving
// their slot untouched downstream.
type stringArrayUnit struct {
	items []cty.Value
	skip  map[int]bool
}

func (u *stringArrayUnit) Load(ctx context.Context, b *unit.Binding) error {
	v, ok := b.ConfigValue("items")
	if !ok || !v.CanIterateElements() {
		return fmt.Errorf("node %q: string_array requires an 'items' list", b.NodeID)
	}
	for _, el := range v.AsValueSlice() {
		u.items = append(u.items, el)
	}

	u.skip = make(map[int]bool)
	if sk, ok := b.ConfigValue("skip_indices"); ok && sk.CanIterateElements() {
		for _, el := range sk.AsValueSlice() {
			i, _ := el.AsBigFloat().Int64()
			u.skip[int(i)] = true
		}
	}
	return nil
}

func (u *stringArrayUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	elems := make([]unit.Output, len(u.items))
	for i, item := range u.items {
		if u.skip[i] {
			elems[i] = unit.Skip
			continue
		}
		elems[i] = unit.Val(item)
	}
	return &unit.Result{Outputs: []unit.Output{unit.Arr(elems...)}}, nil
}

// flattenUnit collects every slot of its 'items' array socket into a single
// tuple value. Load lets the flow reconfigure the socket's waiting behavior,
// so the same unit covers eager and lazy aggregation.
type flattenUnit struct{}

func (u *flattenUnit) Load(ctx context.Context, b *unit.Binding) error {
	in := b.Input("items")
	if in == nil {
		return fmt.Errorf("node %q: flatten is missing its 'items' socket", b.NodeID)
	}
	in.DoNotWait = b.ConfigBool("do_not_wait", in.DoNotWait)
	in.IsDependency = b.ConfigBool("is_dependency", in.IsDependency)
	return nil
}

func (u *flattenUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	items, ok := inv.Arg("items")
	if !ok {
		return &unit.Result{Outputs: []unit.Output{unit.Val(cty.EmptyTupleVal)}}, nil
	}
	return &unit.Result{Outputs: []unit.Output{unit.Val(items)}}, nil
}

// passthroughUnit forwards 'value' unchanged. With skip = true it suppresses
// its output instead, firing nothing downstream.
type passthroughUnit struct {
	skip bool
}

func (u *passthroughUnit) Load(ctx context.Context, b *unit.Binding) error {
	u.skip = b.ConfigBool("skip", false)
	return nil
}

func (u *passthroughUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	if u.skip {
		return &unit.Result{Outputs: []unit.Output{unit.Skip}}, nil
	}
	v, ok := inv.Arg("value")
	if !ok {
		v = inv.Seed
	}
	return &unit.Result{Outputs: []unit.Output{unit.Val(v)}}, nil
}

// Register registers the unit types with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "string_array",
		New:      func() unit.Unit { return &stringArrayUnit{} },
		Outputs: []graph.SocketSpec{
			{Name: "items", Type: cty.String, IsArray: true},
		},
	})
	r.Register(&registry.Entry{
		UnitType: "flatten",
		New:      func() unit.Unit { return &flattenUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "items", Type: cty.DynamicPseudoType, IsArray: true},
		},
		Outputs: []graph.SocketSpec{
			{Name: "list", Type: cty.DynamicPseudoType},
		},
	})
	r.Register(&registry.Entry{
		UnitType: "passthrough",
		New:      func() unit.Unit { return &passthroughUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
	})
}
