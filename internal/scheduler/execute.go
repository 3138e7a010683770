package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// execute invokes the node's unit with aggregated arguments, records the
// result, and propagates outputs downstream. The caller has already won the
// WAITING -> EXECUTING transition.
func (s *Scheduler) execute(ctx context.Context, run *Run, nodeID string, raw map[string]cty.Value) {
	logger := ctxlog.FromContext(ctx).With("nodeID", nodeID)
	rc := run.rc
	b := rc.Binding(nodeID)

	args, err := assembleArgs(b, raw)
	if err != nil {
		run.fail(nodeID, err)
		return
	}

	inv := &unit.Invocation{
		RunID:    rc.RunID(),
		NodeID:   nodeID,
		Args:     args,
		Memory:   rc.Memory(nodeID),
		Events:   s.events,
		Notifier: s.notifier,
	}
	if nodeID == rc.StartNode() {
		inv.Seed = rc.Seed()
	}

	logger.Debug("Executing node.", "unitType", b.UnitType)
	res, err := rc.Unit(nodeID).Execute(ctx, inv)
	if err != nil {
		if ctx.Err() != nil {
			// The run was cancelled while the unit was suspended; the unit
			// bailing out with the context error is not a failure.
			return
		}
		run.fail(nodeID, err)
		return
	}
	if ctx.Err() != nil {
		// Cancelled while the unit was suspended; its late result must not
		// mutate run state.
		return
	}
	if res == nil {
		res = &unit.Result{}
	}
	if len(res.Outputs) > len(b.Outputs) {
		run.fail(nodeID, fmt.Errorf("unit produced %d outputs, declares %d sockets", len(res.Outputs), len(b.Outputs)))
		return
	}

	outputs := make(map[string]unit.Output, len(res.Outputs))
	for i, out := range res.Outputs {
		outputs[b.Outputs[i].Name] = out
	}
	rc.Finish(nodeID, outputs, res.StateUpdate)
	logger.Debug("Node execution finished.", "outputs", len(res.Outputs))

	s.propagate(ctx, run, nodeID, res.Outputs)
}

// assembleArgs flattens the cached slot values into the argument map handed
// to Execute. Connected slots of an array socket are collected in index
// order into a single tuple under the base name; scalars pass through
// unchanged.
func assembleArgs(b *unit.Binding, raw map[string]cty.Value) (map[string]cty.Value, error) {
	type element struct {
		index int
		value cty.Value
	}
	args := make(map[string]cty.Value, len(raw))
	arrays := make(map[string][]element)

	for slot, v := range raw {
		spec, index, err := graph.ResolveSlot(b.Inputs, slot)
		if err != nil {
			// The wait list only ever contains validated slots; an unknown
			// slot at execution time is an internal-consistency failure.
			return nil, fmt.Errorf("assembling arguments: %w", err)
		}
		if spec.IsArray && index >= 0 {
			arrays[spec.Name] = append(arrays[spec.Name], element{index: index, value: v})
			continue
		}
		args[slot] = v
	}

	for base, elems := range arrays {
		sort.Slice(elems, func(i, j int) bool { return elems[i].index < elems[j].index })
		values := make([]cty.Value, len(elems))
		for i, el := range elems {
			values[i] = el.value
		}
		args[base] = cty.TupleVal(values)
	}
	return args, nil
}
