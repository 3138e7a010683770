package scheduler

import (
	"context"
	"fmt"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// propagate delivers a finished node's outputs downstream. Values are
// grouped by destination node and each destination receives exactly one
// trigger carrying its full batch: firing per-connection would let one
// upstream node race a downstream node's re-arm logic when it feeds two of
// its sockets. Destinations are triggered as independent concurrent tasks.
func (s *Scheduler) propagate(ctx context.Context, run *Run, nodeID string, outs []unit.Output) {
	logger := ctxlog.FromContext(ctx).With("nodeID", nodeID)
	b := run.rc.Binding(nodeID)

	batches := make(map[string]map[string]cty.Value)
	add := func(slot string, v cty.Value) {
		for _, tgt := range s.def.TargetsOf(nodeID, slot) {
			if batches[tgt.Node] == nil {
				batches[tgt.Node] = make(map[string]cty.Value)
			}
			batches[tgt.Node][tgt.Socket] = v
		}
	}

	for i, out := range outs {
		spec := b.Outputs[i]
		if out.IsSkip() {
			continue
		}
		if spec.IsArray {
			if !out.IsArray() {
				run.fail(nodeID, fmt.Errorf("output socket %q is an array socket but the unit returned a single value", spec.Name))
				return
			}
			for j, el := range out.Elems() {
				if el.IsSkip() {
					continue
				}
				add(graph.SlotName(spec.Name, j), el.Value())
			}
			continue
		}
		if out.IsArray() {
			run.fail(nodeID, fmt.Errorf("output socket %q is not an array socket but the unit returned an element sequence", spec.Name))
			return
		}
		add(spec.Name, out.Value())
	}

	if len(batches) == 0 {
		return
	}
	logger.Debug("Propagating outputs.", "destinations", len(batches))
	for dst, batch := range batches {
		s.spawnTrigger(ctx, run, dst, batch)
	}
}
