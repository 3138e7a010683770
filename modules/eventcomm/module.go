// Package eventcomm provides the cross-run event communication units:
// 'send_event' fires payloads at subscribed listeners, 'receive_event' roots
// a new run per delivered event, 'await_event' sends and then blocks for
// correlated responses, and 'return_event' answers an awaiting sender.
package eventcomm

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxwire/fluxwire/internal/events"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/notify"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package. All four
// unit types share one correlation manager so events and their responses
// cross run boundaries.
type Module struct {
	ev *events.Manager
}

// New builds the module around the given correlation manager.
func New(ev *events.Manager) *Module {
	return &Module{ev: ev}
}

// eventIDs reads the target event IDs from config: either a single
// 'event_id' string or an 'event_ids' list.
func eventIDs(b *unit.Binding) ([]string, error) {
	if v, ok := b.ConfigValue("event_ids"); ok && v.CanIterateElements() {
		var ids []string
		for _, el := range v.AsValueSlice() {
			ids = append(ids, el.AsString())
		}
		return ids, nil
	}
	if id := b.ConfigString("event_id", ""); id != "" {
		return []string{id}, nil
	}
	return nil, fmt.Errorf("node %q: requires 'event_id' or 'event_ids'", b.NodeID)
}

func payloadsFrom(inv *unit.Invocation) []cty.Value {
	data, ok := inv.Arg("data")
	if !ok {
		return nil
	}
	return []cty.Value{data}
}

type sendEventUnit struct {
	ids []string
}

func (u *sendEventUnit) Load(ctx context.Context, b *unit.Binding) error {
	ids, err := eventIDs(b)
	u.ids = ids
	return err
}

func (u *sendEventUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	sent := inv.Events.Send(ctx, u.ids, payloadsFrom(inv))
	return &unit.Result{Outputs: []unit.Output{unit.Val(cty.NumberIntVal(int64(sent)))}}, nil
}

// awaitEventUnit sends like send_event but then blocks until the expected
// number of responses arrives or the timeout passes. On timeout it still
// returns whatever partial responses were collected, plus a diagnostic.
type awaitEventUnit struct {
	ids     []string
	timeout time.Duration
	expect  int64
}

func (u *awaitEventUnit) Load(ctx context.Context, b *unit.Binding) error {
	ids, err := eventIDs(b)
	if err != nil {
		return err
	}
	u.ids = ids

	raw := b.ConfigString("timeout", "30s")
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("node %q: invalid timeout %q: %w", b.NodeID, raw, err)
	}
	u.timeout = timeout
	u.expect = b.ConfigInt("expect", 0)
	return nil
}

func (u *awaitEventUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	awaitID, sent := inv.Events.SendAwait(ctx, u.ids, payloadsFrom(inv))
	if sent == 0 {
		return &unit.Result{Outputs: []unit.Output{
			unit.Val(cty.EmptyTupleVal),
			unit.Val(cty.False),
			unit.Skip,
		}}, nil
	}

	expect := int(u.expect)
	if expect <= 0 || expect > sent {
		expect = sent
	}
	res := inv.Events.AwaitResponses(ctx, awaitID, expect, u.timeout)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	responses := cty.EmptyTupleVal
	if len(res.Responses) > 0 {
		responses = cty.TupleVal(res.Responses)
	}

	outs := []unit.Output{unit.Val(responses), unit.Val(cty.BoolVal(res.TimedOut)), unit.Skip}
	if res.TimedOut {
		diag := res.Diagnostic()
		outs[2] = unit.Val(cty.StringVal(diag))
		inv.Notify(ctx, notify.LevelSticky, diag)
	}
	return &unit.Result{Outputs: outs}, nil
}

// receiveEventUnit subscribes to one event ID and roots a fresh run per
// delivered envelope. The envelope rides in as the run seed and is unpacked
// into the unit's outputs.
type receiveEventUnit struct {
	ev      *events.Manager
	eventID string
}

func (u *receiveEventUnit) Load(ctx context.Context, b *unit.Binding) error {
	id := b.ConfigString("event_id", "")
	if id == "" {
		return fmt.Errorf("node %q: receive_event requires an 'event_id'", b.NodeID)
	}
	u.eventID = id
	return nil
}

func (u *receiveEventUnit) StartListening(ctx context.Context, trigger unit.TriggerFunc) error {
	return u.ev.Subscribe(u.eventID, func(ctx context.Context, env events.Envelope) {
		data := env.Data
		if data == cty.NilVal {
			data = cty.NullVal(cty.DynamicPseudoType)
		}
		trigger(cty.ObjectVal(map[string]cty.Value{
			"data":     data,
			"event_id": cty.StringVal(env.EventID),
			"await_id": cty.StringVal(env.AwaitID),
		}))
	})
}

func (u *receiveEventUnit) StopListening(ctx context.Context) error {
	u.ev.Unsubscribe(u.eventID)
	return nil
}

func (u *receiveEventUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	env := inv.Seed
	if env == cty.NilVal || !env.Type().IsObjectType() {
		return nil, fmt.Errorf("node %q: receive_event must root an event-triggered run", inv.NodeID)
	}

	awaitOut := unit.Skip
	if env.Type().HasAttribute("await_id") {
		if id := env.GetAttr("await_id"); id.AsString() != "" {
			awaitOut = unit.Val(id)
		}
	}
	return &unit.Result{Outputs: []unit.Output{
		unit.Val(env.GetAttr("data")),
		unit.Val(env.GetAttr("event_id")),
		awaitOut,
	}}, nil
}

// returnEventUnit answers an awaiting sender. With no await ID wired in, the
// event was fire-and-forget and the unit emits nothing.
type returnEventUnit struct{}

func (u *returnEventUnit) Load(ctx context.Context, b *unit.Binding) error { return nil }

func (u *returnEventUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	awaitID, ok := inv.Arg("await_id")
	if !ok || awaitID.IsNull() || awaitID.AsString() == "" {
		return &unit.Result{Outputs: []unit.Output{unit.Skip}}, nil
	}

	data, ok := inv.Arg("data")
	if !ok {
		data = cty.NullVal(cty.DynamicPseudoType)
	}
	delivered := inv.Events.Respond(awaitID.AsString(), data)
	if !delivered {
		inv.Notify(ctx, notify.LevelDebug, fmt.Sprintf("no awaiting sender for %q", awaitID.AsString()))
	}
	return &unit.Result{Outputs: []unit.Output{unit.Val(cty.BoolVal(delivered))}}, nil
}

// Register registers the unit types with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "send_event",
		New:      func() unit.Unit { return &sendEventUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "data", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "sent", Type: cty.Number},
		},
	})
	r.Register(&registry.Entry{
		UnitType: "await_event",
		New:      func() unit.Unit { return &awaitEventUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "data", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "responses", Type: cty.DynamicPseudoType},
			{Name: "timed_out", Type: cty.Bool},
			{Name: "diagnostic", Type: cty.String},
		},
	})
	r.Register(&registry.Entry{
		UnitType: "receive_event",
		New:      func() unit.Unit { return &receiveEventUnit{ev: m.ev} },
		Outputs: []graph.SocketSpec{
			{Name: "data", Type: cty.DynamicPseudoType},
			{Name: "event_id", Type: cty.String},
			{Name: "await_id", Type: cty.String},
		},
	})
	r.Register(&registry.Entry{
		UnitType: "return_event",
		New:      func() unit.Unit { return &returnEventUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "await_id", Type: cty.String},
			{Name: "data", Type: cty.DynamicPseudoType},
		},
		Outputs: []graph.SocketSpec{
			{Name: "delivered", Type: cty.Bool},
		},
	})
}
