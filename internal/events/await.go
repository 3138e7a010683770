package events

import (
	"context"
	"fmt"
	"time"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// AwaitResult is the outcome of collecting responses for one await ID.
// TimedOut results still carry every response that arrived in time.
type AwaitResult struct {
	Responses []cty.Value
	Expected  int
	Received  int
	TimedOut  bool
}

// Diagnostic describes the collection outcome for the messaging side channel.
func (r AwaitResult) Diagnostic() string {
	if r.TimedOut {
		return fmt.Sprintf("await timed out: collected %d of %d responses", r.Received, r.Expected)
	}
	return fmt.Sprintf("await collected %d of %d responses", r.Received, r.Expected)
}

// Respond delivers one response for the given await ID. It reports false when
// the ID is unknown, meaning no SendAwait opened it or its waiter already
// finished and discarded the buffer.
func (m *Manager) Respond(awaitID string, v cty.Value) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.responses[awaitID]; !ok {
		return false
	}
	m.responses[awaitID] = append(m.responses[awaitID], v)
	if w, ok := m.waiters[awaitID]; ok && len(m.responses[awaitID]) >= w.expect {
		close(w.done)
		delete(m.waiters, awaitID)
	}
	return true
}

// AwaitResponses blocks until expect responses have arrived for awaitID or
// the timeout elapses, whichever comes first. Already-buffered responses are
// counted before the waiter subscribes, so responses racing ahead of the
// waiter are never lost. The await ID is closed on return; late responses
// are dropped.
func (m *Manager) AwaitResponses(ctx context.Context, awaitID string, expect int, timeout time.Duration) AwaitResult {
	logger := ctxlog.FromContext(ctx).With("awaitID", awaitID)

	m.mu.Lock()
	if len(m.responses[awaitID]) >= expect {
		result := m.finishLocked(awaitID, expect, false)
		m.mu.Unlock()
		return result
	}
	w := &waiter{expect: expect, done: make(chan struct{})}
	m.waiters[awaitID] = w
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	timedOut := false
	select {
	case <-w.done:
	case <-timer.C:
		timedOut = true
	case <-ctx.Done():
		timedOut = true
	}

	m.mu.Lock()
	delete(m.waiters, awaitID)
	result := m.finishLocked(awaitID, expect, timedOut)
	m.mu.Unlock()

	if timedOut {
		logger.Warn("Await finished without full response set.", "expected", result.Expected, "received", result.Received)
	}
	return result
}

// finishLocked drains and closes the response buffer for awaitID.
func (m *Manager) finishLocked(awaitID string, expect int, timedOut bool) AwaitResult {
	responses := m.responses[awaitID]
	delete(m.responses, awaitID)
	return AwaitResult{
		Responses: responses,
		Expected:  expect,
		Received:  len(responses),
		// The timer can lose the race against the final response; a full
		// buffer is never a timeout.
		TimedOut: timedOut && len(responses) < expect,
	}
}
