package unit

import (
	"context"

	"github.com/fluxwire/fluxwire/internal/events"
	"github.com/fluxwire/fluxwire/internal/notify"
	"github.com/zclconf/go-cty/cty"
)

// Invocation carries everything a unit may touch while executing: the
// aggregated arguments, its run-scoped scratch memory, the seed payload when
// this node started the run, and the shared side channels.
type Invocation struct {
	RunID  string
	NodeID string

	// Args maps base socket names to values. Array sockets arrive as a
	// single cty tuple, already ordered by slot index.
	Args map[string]cty.Value

	// Seed is the run's initial payload. It is cty.NilVal except on the
	// node the run started from.
	Seed cty.Value

	Memory   *Memory
	Events   *events.Manager
	Notifier notify.Notifier
}

// Arg returns the argument for the given base socket name, if present.
func (inv *Invocation) Arg(name string) (cty.Value, bool) {
	v, ok := inv.Args[name]
	return v, ok
}

// Notify emits a notice on the messaging side channel, stamped with the
// invocation's run and node.
func (inv *Invocation) Notify(ctx context.Context, level notify.Level, message string) {
	if inv.Notifier == nil {
		return
	}
	inv.Notifier.Notify(ctx, notify.Notice{
		Level:   level,
		RunID:   inv.RunID,
		NodeID:  inv.NodeID,
		Message: message,
	})
}

// StateUpdate permanently replaces a node's wait configuration for all
// subsequent triggers within the same run. WaitFor names base sockets; the
// scheduler expands array sockets to their connected slots.
type StateUpdate struct {
	WaitFor []string
}

// Result is what Execute hands back: ordered outputs matching the binding's
// declared output sockets, plus an optional wait-set update.
type Result struct {
	Outputs     []Output
	StateUpdate *StateUpdate
}

// Unit is the contract every processing unit implements. Load runs once per
// run before the first execution and may reshape the node's own socket
// configuration through the binding. Execute may block; long-running units
// must observe ctx cancellation at their suspension points.
type Unit interface {
	Load(ctx context.Context, b *Binding) error
	Execute(ctx context.Context, inv *Invocation) (*Result, error)
}

// TriggerFunc starts a new run rooted at the listening node, seeding it with
// payload. Safe to call from any goroutine; the callback hands off into the
// scheduler's dispatch queue and never runs scheduler internals inline.
type TriggerFunc func(payload cty.Value)

// EventSource extends Unit for event-sourced units that own an external
// listening mechanism (timers, sockets, polling). StartListening must invoke
// the trigger exactly once per logical event; StopListening tears the
// mechanism down and must be idempotent.
type EventSource interface {
	Unit
	StartListening(ctx context.Context, trigger TriggerFunc) error
	StopListening(ctx context.Context) error
}
