// Package printer provides the 'print' unit.
package printer

import (
	"context"
	"fmt"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/notify"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// printUnit renders its input on stdout and the messaging side channel, then
// forwards it unchanged so flows can chain through it.
type printUnit struct {
	label string
}

func (u *printUnit) Load(ctx context.Context, b *unit.Binding) error {
	u.label = b.ConfigString("label", b.NodeID)
	return nil
}

func (u *printUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	v, ok := inv.Arg("value")
	if !ok {
		v = inv.Seed
	}
	rendered := render(v)

	fmt.Printf("      %s = %s\n", u.label, rendered)
	inv.Notify(ctx, notify.LevelInfo, fmt.Sprintf("%s = %s", u.label, rendered))

	return &unit.Result{Outputs: []unit.Output{unit.Val(v)}}, nil
}

func render(v cty.Value) string {
	if v == cty.NilVal || v.IsNull() {
		return "(null)"
	}
	out, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(out)
}

// Register registers the unit type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "print",
		New:      func() unit.Unit { return &printUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
	})
}
