package registry

import (
	"context"
	"fmt"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/graph"
)

// ValidateDefinition checks a loaded flow definition against the registered
// unit types: every node's unit type must exist, every connection source
// must resolve to a declared output slot, and every connection destination
// to a declared input slot. Violations are configuration errors, fatal
// before any run starts.
//
// Validation uses the static socket specs. Load may later toggle behavior
// flags per run, but it cannot invent sockets, so slot resolution decided
// here stays correct.
func (r *Registry) ValidateDefinition(ctx context.Context, def *graph.Definition) error {
	logger := ctxlog.FromContext(ctx)

	for _, n := range def.Nodes() {
		if _, ok := r.entries[n.UnitType]; !ok {
			return fmt.Errorf("node %q: unknown unit type %q", n.ID, n.UnitType)
		}
	}

	for _, c := range def.Connections() {
		fromNode, _ := def.Node(c.From.Node)
		if _, _, err := graph.ResolveSlot(r.entries[fromNode.UnitType].Outputs, c.From.Socket); err != nil {
			return fmt.Errorf("connection %s -> %s: source: %w", c.From, c.To, err)
		}
		toNode, _ := def.Node(c.To.Node)
		if _, _, err := graph.ResolveSlot(r.entries[toNode.UnitType].Inputs, c.To.Socket); err != nil {
			return fmt.Errorf("connection %s -> %s: destination: %w", c.From, c.To, err)
		}
	}

	logger.Debug("Flow definition validated against registry.", "nodes", len(def.Nodes()), "connections", len(def.Connections()))
	return nil
}
