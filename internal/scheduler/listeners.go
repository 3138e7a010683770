package scheduler

import (
	"context"
	"fmt"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// activeListener is one event-sourced node with a live listening mechanism.
// Listener instances are long-lived and separate from the per-run instances
// created by RunWorkflow; they hold no run state.
type activeListener struct {
	nodeID string
	source unit.EventSource
}

// StartListeners instantiates every event-sourced node in the flow and
// starts its external listening mechanism. Each delivered event enqueues a
// new run rooted at the listening node, seeded with the event payload; the
// trigger callback may be invoked from any goroutine.
func (s *Scheduler) StartListeners(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	for _, spec := range s.def.Nodes() {
		u, b, err := s.registry.NewBinding(spec)
		if err != nil {
			return err
		}
		source, ok := u.(unit.EventSource)
		if !ok {
			continue
		}
		if err := u.Load(ctx, b); err != nil {
			return fmt.Errorf("loading listener node %q: %w", spec.ID, err)
		}

		nodeID := spec.ID
		trigger := func(payload cty.Value) {
			s.enqueueRun(ctx, nodeID, payload)
		}
		if err := source.StartListening(ctx, trigger); err != nil {
			s.StopListeners(ctx)
			return fmt.Errorf("starting listener for node %q: %w", spec.ID, err)
		}
		logger.Info("Listener active.", "nodeID", spec.ID, "unitType", spec.UnitType)

		s.mu.Lock()
		s.listeners = append(s.listeners, &activeListener{nodeID: nodeID, source: source})
		s.mu.Unlock()
	}
	return nil
}

// StopListeners tears down every active listening mechanism. Safe to call
// repeatedly.
func (s *Scheduler) StopListeners(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	s.mu.Lock()
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, l := range listeners {
		if err := l.source.StopListening(ctx); err != nil {
			logger.Warn("Listener failed to stop cleanly.", "nodeID", l.nodeID, "error", err)
		} else {
			logger.Debug("Listener stopped.", "nodeID", l.nodeID)
		}
	}
}
