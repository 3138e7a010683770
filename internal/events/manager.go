package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
)

// Envelope is the payload delivered to a listener. AwaitID is empty unless
// the sender expects responses; listeners thread it through their run so a
// downstream node can answer via Respond.
type Envelope struct {
	EventID string
	AwaitID string
	Data    cty.Value
}

// ListenerFunc handles one delivered envelope. Implementations must not
// block; the expected pattern is a handoff into the scheduler's dispatch
// queue that starts a new run.
type ListenerFunc func(ctx context.Context, env Envelope)

// Manager routes events and correlates await responses. Safe for concurrent
// use from any number of runs.
type Manager struct {
	mu        sync.Mutex
	listeners map[string]ListenerFunc
	responses map[string][]cty.Value
	waiters   map[string]*waiter
}

type waiter struct {
	expect int
	done   chan struct{}
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{
		listeners: make(map[string]ListenerFunc),
		responses: make(map[string][]cty.Value),
		waiters:   make(map[string]*waiter),
	}
}

// Subscribe registers fn under the given event ID. A second subscription on
// the same ID is a configuration error.
func (m *Manager) Subscribe(eventID string, fn ListenerFunc) error {
	if eventID == "" {
		return fmt.Errorf("event ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listeners[eventID]; ok {
		return fmt.Errorf("listener already registered for event ID %q", eventID)
	}
	m.listeners[eventID] = fn
	return nil
}

// Unsubscribe removes the listener for the given event ID, if any.
func (m *Manager) Unsubscribe(eventID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, eventID)
}

// Send delivers payloads to the listeners registered under ids and returns
// how many deliveries happened. A single payload broadcasts to every ID;
// multiple payloads are zipped to IDs by index, and whichever side is longer
// leaves its remainder unpaired.
func (m *Manager) Send(ctx context.Context, ids []string, payloads []cty.Value) int {
	return m.deliver(ctx, ids, payloads, "")
}

// SendAwait is Send plus response correlation: it allocates a fresh await ID,
// opens a response buffer for it, and stamps every envelope with the ID.
// The buffer is opened before any listener can run, so responses arriving
// before AwaitResponses is called are still collected.
func (m *Manager) SendAwait(ctx context.Context, ids []string, payloads []cty.Value) (awaitID string, sent int) {
	awaitID = "await-" + uuid.NewString()
	m.mu.Lock()
	m.responses[awaitID] = nil
	m.mu.Unlock()
	sent = m.deliver(ctx, ids, payloads, awaitID)
	if sent == 0 {
		m.mu.Lock()
		delete(m.responses, awaitID)
		m.mu.Unlock()
	}
	return awaitID, sent
}

// deliver snapshots matching listeners under the lock, then invokes them
// outside it so a listener can re-enter the Manager.
func (m *Manager) deliver(ctx context.Context, ids []string, payloads []cty.Value, awaitID string) int {
	logger := ctxlog.FromContext(ctx)

	type delivery struct {
		fn  ListenerFunc
		env Envelope
	}
	var deliveries []delivery

	m.mu.Lock()
	for i, id := range ids {
		fn, ok := m.listeners[id]
		if !ok {
			logger.Warn("No listener registered for event, dropping.", "eventID", id)
			continue
		}
		data, ok := payloadFor(payloads, i)
		if !ok {
			// Zipped send ran out of payloads; the remaining IDs stay unpaired.
			continue
		}
		deliveries = append(deliveries, delivery{fn: fn, env: Envelope{
			EventID: id,
			AwaitID: awaitID,
			Data:    data,
		}})
	}
	m.mu.Unlock()

	for _, d := range deliveries {
		d.fn(ctx, d.env)
	}
	return len(deliveries)
}

// payloadFor implements the broadcast-or-zip pairing rule.
func payloadFor(payloads []cty.Value, i int) (cty.Value, bool) {
	switch {
	case len(payloads) == 0:
		return cty.NullVal(cty.DynamicPseudoType), true
	case len(payloads) == 1:
		return payloads[0], true
	case i < len(payloads):
		return payloads[i], true
	default:
		return cty.NilVal, false
	}
}
