package runstate

import (
	"sync"
	"sync/atomic"

	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// RunContext is the state store for one execution run. All mutating methods
// are individually atomic; the transition to Executing (TryExecute) is the
// single point deciding execution, so concurrent triggers can interleave the
// other operations freely without double-running a node.
type RunContext struct {
	runID     string
	startNode string
	seed      cty.Value

	mu sync.Mutex
	// states holds each triggered node's lifecycle state. Untriggered nodes
	// are implicitly Pending.
	states map[string]State
	// inputs caches received values per concrete slot name.
	inputs map[string]map[string]cty.Value
	// waiting is the set of slots still required before execution.
	waiting map[string]map[string]struct{}
	// waitOverride records a unit's state update, replacing how the wait
	// set is recomputed on every later re-arm. Keys absent = static flags.
	waitOverride map[string][]string
	// outputs caches the last produced outputs per slot name.
	outputs map[string]map[string]unit.Output

	memory   map[string]*unit.Memory
	bindings map[string]*unit.Binding
	units    map[string]unit.Unit

	tasks   sync.WaitGroup
	pending atomic.Int64
}

// New creates the state store for one run.
func New(runID, startNode string, seed cty.Value) *RunContext {
	return &RunContext{
		runID:        runID,
		startNode:    startNode,
		seed:         seed,
		states:       make(map[string]State),
		inputs:       make(map[string]map[string]cty.Value),
		waiting:      make(map[string]map[string]struct{}),
		waitOverride: make(map[string][]string),
		outputs:      make(map[string]map[string]unit.Output),
		memory:       make(map[string]*unit.Memory),
		bindings:     make(map[string]*unit.Binding),
		units:        make(map[string]unit.Unit),
	}
}

// RunID returns the run's identifier.
func (rc *RunContext) RunID() string { return rc.runID }

// StartNode returns the node the run was started from.
func (rc *RunContext) StartNode() string { return rc.startNode }

// Seed returns the run's initial payload, cty.NilVal when absent.
func (rc *RunContext) Seed() cty.Value { return rc.seed }

// AddNode registers a node's unit instance and per-run binding.
func (rc *RunContext) AddNode(u unit.Unit, b *unit.Binding) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.units[b.NodeID] = u
	rc.bindings[b.NodeID] = b
	rc.memory[b.NodeID] = unit.NewMemory()
}

// Unit returns the node's unit instance.
func (rc *RunContext) Unit(id string) unit.Unit {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.units[id]
}

// Binding returns the node's per-run binding.
func (rc *RunContext) Binding(id string) *unit.Binding {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.bindings[id]
}

// Memory returns the node's run-scoped scratch memory.
func (rc *RunContext) Memory(id string) *unit.Memory {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.memory[id]
}

// State returns the node's current lifecycle state.
func (rc *RunContext) State(id string) State {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.states[id]
}

// Begin transitions a Pending node to Waiting with the given wait set. It
// reports false when the node already left Pending, in which case the caller
// must not seed anything.
func (rc *RunContext) Begin(id string, wait []string) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.states[id] != Pending {
		return false
	}
	rc.states[id] = Waiting
	rc.waiting[id] = toSet(wait)
	if rc.inputs[id] == nil {
		rc.inputs[id] = make(map[string]cty.Value)
	}
	return true
}

// Rearm transitions a Done node back to Waiting with a recomputed wait set,
// clearing cached inputs only for the slots now being waited on; values for
// slots outside the new wait set survive. The caller is responsible for
// re-satisfying cleared slots, whether from fresh pushes or from cached
// upstream outputs. Reports false when the node is not Done.
func (rc *RunContext) Rearm(id string, wait []string) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.states[id] != Done {
		return false
	}
	rc.states[id] = Waiting
	rc.waiting[id] = toSet(wait)
	for slot := range rc.waiting[id] {
		delete(rc.inputs[id], slot)
	}
	return true
}

// Deliver stores a batch of slot values and satisfies the matching wait-set
// entries. Batches hitting an Executing node are dropped whole; late pushes
// are discarded rather than buffered. The first return reports the drop; the
// second reports whether the wait set is now empty.
func (rc *RunContext) Deliver(id string, batch map[string]cty.Value) (dropped, ready bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.states[id] == Executing {
		return true, false
	}
	if rc.inputs[id] == nil {
		rc.inputs[id] = make(map[string]cty.Value)
	}
	for slot, v := range batch {
		rc.inputs[id][slot] = v
		delete(rc.waiting[id], slot)
	}
	return false, rc.states[id] == Waiting && len(rc.waiting[id]) == 0
}

// TryExecute transitions a Waiting node with an empty wait set to Executing
// and returns a snapshot of its cached inputs. Exactly one concurrent caller
// can win this transition per execution cycle.
func (rc *RunContext) TryExecute(id string) (map[string]cty.Value, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.states[id] != Waiting || len(rc.waiting[id]) != 0 {
		return nil, false
	}
	rc.states[id] = Executing
	snapshot := make(map[string]cty.Value, len(rc.inputs[id]))
	for slot, v := range rc.inputs[id] {
		snapshot[slot] = v
	}
	return snapshot, true
}

// Finish transitions an Executing node to Done, caching its outputs and
// recording an optional wait-configuration update for future re-arms.
func (rc *RunContext) Finish(id string, outputs map[string]unit.Output, update *unit.StateUpdate) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.states[id] = Done
	rc.outputs[id] = outputs
	if update != nil {
		rc.waitOverride[id] = append([]string(nil), update.WaitFor...)
	}
}

// WaitOverride returns the node's replacement wait configuration, if a prior
// execution installed one.
func (rc *RunContext) WaitOverride(id string) ([]string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	w, ok := rc.waitOverride[id]
	return w, ok
}

// Input returns the cached value for one concrete input slot.
func (rc *RunContext) Input(id, slot string) (cty.Value, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	v, ok := rc.inputs[id][slot]
	return v, ok
}

// Output returns the cached output for one concrete output slot.
func (rc *RunContext) Output(id, slot string) (unit.Output, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	o, ok := rc.outputs[id][slot]
	return o, ok
}

// States returns a snapshot of every triggered node's state.
func (rc *RunContext) States() map[string]State {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make(map[string]State, len(rc.states))
	for id, s := range rc.states {
		out[id] = s
	}
	return out
}

// TrackTask records one outstanding concurrent task and returns its
// completion callback.
func (rc *RunContext) TrackTask() func() {
	rc.tasks.Add(1)
	rc.pending.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			rc.pending.Add(-1)
			rc.tasks.Done()
		})
	}
}

// ActiveTasks returns the number of currently outstanding tasks.
func (rc *RunContext) ActiveTasks() int {
	return int(rc.pending.Load())
}

// WaitIdle blocks until every tracked task has settled.
func (rc *RunContext) WaitIdle() {
	rc.tasks.Wait()
}

func toSet(slots []string) map[string]struct{} {
	set := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		set[s] = struct{}{}
	}
	return set
}
