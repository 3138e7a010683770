package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/runstate"
	"github.com/zclconf/go-cty/cty"
)

// trigger is the single entry point of the node state machine. It arms
// PENDING nodes, re-arms DONE nodes carrying fresh data, applies the input
// batch, and executes the node once its wait set empties. Concurrent
// triggers on the same node are safe: only one of them wins the transition
// to EXECUTING.
func (s *Scheduler) trigger(ctx context.Context, run *Run, nodeID string, batch map[string]cty.Value) {
	logger := ctxlog.FromContext(ctx).With("nodeID", nodeID)
	rc := run.rc

	switch rc.State(nodeID) {
	case runstate.Pending:
		wait, err := s.staticWait(rc, nodeID)
		if err != nil {
			run.fail(nodeID, err)
			return
		}
		if rc.Begin(nodeID, wait) {
			logger.Debug("Node armed.", "waitingOn", wait)
			s.pull(ctx, run, nodeID, wait, batch)
		}
	case runstate.Done:
		if len(batch) == 0 {
			// A pull reached an already-resolved node; its outputs are
			// cached and nothing needs to re-run.
			return
		}
		wait, err := s.rearmWait(rc, nodeID)
		if err != nil {
			run.fail(nodeID, err)
			return
		}
		if rc.Rearm(nodeID, wait) {
			logger.Debug("Node re-armed.", "waitingOn", wait)
			s.pull(ctx, run, nodeID, wait, batch)
		}
	}

	if len(batch) > 0 {
		dropped, _ := rc.Deliver(nodeID, batch)
		if dropped {
			logger.Debug("Node is executing, dropping late input batch.", "slots", slotNames(batch))
			return
		}
	}

	if args, ok := rc.TryExecute(nodeID); ok {
		s.execute(ctx, run, nodeID, args)
	}
}

// staticWait computes the wait set from the node's current socket flags: all
// connected input slots except doNotWait ones. doNotWait strictly overrides
// isDependency, so a socket flagged both is neither waited on nor pulled.
func (s *Scheduler) staticWait(rc *runstate.RunContext, nodeID string) ([]string, error) {
	b := rc.Binding(nodeID)
	var wait []string
	for _, slot := range s.def.ConnectedInputs(nodeID) {
		spec, _, err := graph.ResolveSlot(b.Inputs, slot)
		if err != nil {
			return nil, fmt.Errorf("resolving input slot: %w", err)
		}
		if spec.DoNotWait {
			continue
		}
		wait = append(wait, slot)
	}
	return wait, nil
}

// rearmWait recomputes the wait set for a re-trigger. A wait-configuration
// update installed by a prior execution replaces the static flags: its base
// names expand to the node's connected slots. Bases with no connected slot
// contribute nothing.
func (s *Scheduler) rearmWait(rc *runstate.RunContext, nodeID string) ([]string, error) {
	override, ok := rc.WaitOverride(nodeID)
	if !ok {
		return s.staticWait(rc, nodeID)
	}
	b := rc.Binding(nodeID)
	bases := make(map[string]struct{}, len(override))
	for _, name := range override {
		bases[name] = struct{}{}
	}
	var wait []string
	for _, slot := range s.def.ConnectedInputs(nodeID) {
		spec, _, err := graph.ResolveSlot(b.Inputs, slot)
		if err != nil {
			return nil, fmt.Errorf("resolving input slot: %w", err)
		}
		if _, ok := bases[spec.Name]; ok {
			wait = append(wait, slot)
		}
	}
	return wait, nil
}

// pull recursively triggers the upstream sources of dependency-flagged slots
// in the wait set, except slots the current batch is about to satisfy.
// Sources feeding several dependency slots of the node get one trigger, not
// one per slot. Slots fed by an already-resolved source are re-satisfied from
// its cached output: a re-armed node must not deadlock waiting on upstream
// work that will never re-run.
func (s *Scheduler) pull(ctx context.Context, run *Run, nodeID string, wait []string, batch map[string]cty.Value) {
	b := run.rc.Binding(nodeID)
	sources := make(map[string]struct{})
	var cached map[string]cty.Value
	for _, slot := range wait {
		if _, ok := batch[slot]; ok {
			continue
		}
		spec, _, err := graph.ResolveSlot(b.Inputs, slot)
		if err != nil || !spec.IsDependency || spec.DoNotWait {
			continue
		}
		src, ok := s.def.SourceOf(nodeID, slot)
		if !ok {
			continue
		}
		if v, ok := s.cachedOutput(run, src); ok {
			if cached == nil {
				cached = make(map[string]cty.Value)
			}
			cached[slot] = v
			continue
		}
		sources[src.Node] = struct{}{}
	}
	for src := range sources {
		s.spawnTrigger(ctx, run, src, nil)
	}
	if len(cached) > 0 {
		s.spawnTrigger(ctx, run, nodeID, cached)
	}
}

// cachedOutput reads the value a DONE source already produced for one of its
// output slots. Suppressed outputs and sources that have not finished yet
// report no value; those go through a regular upstream trigger instead.
func (s *Scheduler) cachedOutput(run *Run, src graph.Endpoint) (cty.Value, bool) {
	if run.rc.State(src.Node) != runstate.Done {
		return cty.NilVal, false
	}
	spec, index, err := graph.ResolveSlot(run.rc.Binding(src.Node).Outputs, src.Socket)
	if err != nil {
		return cty.NilVal, false
	}
	out, ok := run.rc.Output(src.Node, spec.Name)
	if !ok || out.IsSkip() {
		return cty.NilVal, false
	}
	if spec.IsArray && index >= 0 {
		elems := out.Elems()
		if index >= len(elems) || elems[index].IsSkip() {
			return cty.NilVal, false
		}
		return elems[index].Value(), true
	}
	return out.Value(), true
}

func slotNames(batch map[string]cty.Value) []string {
	names := make([]string, 0, len(batch))
	for slot := range batch {
		names = append(names, slot)
	}
	sort.Strings(names)
	return names
}
