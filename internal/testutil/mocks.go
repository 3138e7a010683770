package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// ProbeModule registers the 'probe' unit: a pass-through sink that records
// every value it receives, keyed by node ID. One ProbeModule instance is
// shared across all probe nodes in a flow.
type ProbeModule struct {
	mu       sync.Mutex
	received map[string][]cty.Value
}

// NewProbeModule creates an empty probe recorder.
func NewProbeModule() *ProbeModule {
	return &ProbeModule{received: make(map[string][]cty.Value)}
}

// Received returns the values a probe node has seen, in arrival order.
func (m *ProbeModule) Received(nodeID string) []cty.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]cty.Value(nil), m.received[nodeID]...)
}

// Executions returns how many times a probe node fired.
func (m *ProbeModule) Executions(nodeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received[nodeID])
}

type probeUnit struct {
	m *ProbeModule
}

func (u *probeUnit) Load(ctx context.Context, b *unit.Binding) error { return nil }

func (u *probeUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	v, ok := inv.Arg("value")
	if !ok {
		v = inv.Seed
	}
	u.m.mu.Lock()
	u.m.received[inv.NodeID] = append(u.m.received[inv.NodeID], v)
	u.m.mu.Unlock()
	return &unit.Result{Outputs: []unit.Output{unit.Val(v)}}, nil
}

// Register implements registry.Module.
func (m *ProbeModule) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "probe",
		New:      func() unit.Unit { return &probeUnit{m: m} },
		Inputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
	})
}

// ExecutionRecord captures when one sleeper execution ran.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two executions were in flight at the same time.
func (r ExecutionRecord) Overlaps(other ExecutionRecord) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// SleeperModule registers the 'sleeper' unit, which blocks for a fixed
// duration and records its execution window. It is the tool for asserting
// that independent branches really run concurrently.
type SleeperModule struct {
	mu    sync.Mutex
	sleep time.Duration
	times map[string]ExecutionRecord
}

// NewSleeperModule creates a sleeper module with the given busy duration.
func NewSleeperModule(sleep time.Duration) *SleeperModule {
	return &SleeperModule{sleep: sleep, times: make(map[string]ExecutionRecord)}
}

// Record returns the execution window of one sleeper node.
func (m *SleeperModule) Record(nodeID string) (ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.times[nodeID]
	return rec, ok
}

type sleeperUnit struct {
	m *SleeperModule
}

func (u *sleeperUnit) Load(ctx context.Context, b *unit.Binding) error { return nil }

func (u *sleeperUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	start := time.Now()
	timer := time.NewTimer(u.m.sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	u.m.mu.Lock()
	u.m.times[inv.NodeID] = ExecutionRecord{Start: start, End: time.Now()}
	u.m.mu.Unlock()

	v, _ := inv.Arg("value")
	return &unit.Result{Outputs: []unit.Output{unit.Val(v)}}, nil
}

// Register implements registry.Module.
func (m *SleeperModule) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "sleeper",
		New:      func() unit.Unit { return &sleeperUnit{m: m} },
		Inputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "value", Type: cty.DynamicPseudoType},
		},
	})
}
