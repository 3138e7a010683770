package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/events"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/notify"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/runstate"
	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
)

// startRequest asks the dispatcher to begin a new run. Event listeners
// enqueue these from their own goroutines instead of entering the scheduler
// directly.
type startRequest struct {
	startNode string
	payload   cty.Value
}

// Scheduler orchestrates runs over one flow definition.
type Scheduler struct {
	registry *registry.Registry
	def      *graph.Definition
	events   *events.Manager
	notifier notify.Notifier

	dispatch chan startRequest

	mu        sync.Mutex
	runs      map[string]*Run
	listeners []*activeListener
}

// New creates a Scheduler for the given definition. Call Start before
// launching runs so the dispatcher services event-triggered requests.
func New(reg *registry.Registry, def *graph.Definition, ev *events.Manager, notifier notify.Notifier) *Scheduler {
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}
	return &Scheduler{
		registry: reg,
		def:      def,
		events:   ev,
		notifier: notifier,
		dispatch: make(chan startRequest, 64),
		runs:     make(map[string]*Run),
	}
}

// Events returns the cross-run correlation manager.
func (s *Scheduler) Events() *events.Manager { return s.events }

// Start launches the dispatch loop. Runs started from events inherit ctx:
// cancelling it stops the dispatcher and every run it has launched.
func (s *Scheduler) Start(ctx context.Context) {
	go s.dispatchLoop(ctx)
}

func (s *Scheduler) dispatchLoop(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Debug("Dispatcher stopped.")
			return
		case req := <-s.dispatch:
			runID := "event-" + uuid.NewString()
			if _, err := s.RunWorkflow(ctx, runID, req.startNode, req.payload); err != nil {
				logger.Error("Failed to start event-triggered run.", "startNode", req.startNode, "error", err)
			}
		}
	}
}

// enqueueRun hands a new-run request to the dispatcher. It never blocks the
// calling goroutine; when the queue is full the event is dropped with a
// warning, matching the no-buffering stance taken for late input batches.
func (s *Scheduler) enqueueRun(ctx context.Context, startNode string, payload cty.Value) {
	select {
	case s.dispatch <- startRequest{startNode: startNode, payload: payload}:
	default:
		ctxlog.FromContext(ctx).Warn("Dispatch queue full, dropping event trigger.", "startNode", startNode)
	}
}

// RunWorkflow starts a run rooted at startNode, instantiating and loading a
// fresh unit per node. The returned handle resolves when the run reaches a
// terminal state. seed may be cty.NilVal.
func (s *Scheduler) RunWorkflow(ctx context.Context, runID, startNode string, seed cty.Value) (*Run, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	if _, ok := s.def.Node(startNode); !ok {
		return nil, fmt.Errorf("start node %q not found in flow", startNode)
	}

	logger := ctxlog.FromContext(ctx).With("runID", runID, "startNode", startNode)
	runCtx, cancel := context.WithCancel(ctx)
	runCtx = ctxlog.WithLogger(runCtx, logger)

	rc := runstate.New(runID, startNode, seed)
	run := &Run{
		id:     runID,
		rc:     rc,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	for _, spec := range s.def.Nodes() {
		u, b, err := s.registry.NewBinding(spec)
		if err != nil {
			cancel()
			return nil, err
		}
		if err := u.Load(runCtx, b); err != nil {
			cancel()
			return nil, fmt.Errorf("loading node %q: %w", spec.ID, err)
		}
		rc.AddNode(u, b)
	}
	logger.Debug("All nodes loaded.", "count", len(s.def.Nodes()))

	s.mu.Lock()
	if _, ok := s.runs[runID]; ok {
		s.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("run %q already active", runID)
	}
	s.runs[runID] = run
	s.mu.Unlock()

	s.notifier.Notify(runCtx, notify.Notice{Level: notify.LevelInfo, RunID: runID, Message: "run started"})
	s.spawnTrigger(runCtx, run, startNode, nil)
	go s.finalize(runCtx, run)

	return run, nil
}

// Cancel stops the identified run. Unknown or already-finished runs report
// an error.
func (s *Scheduler) Cancel(runID string) error {
	s.mu.Lock()
	run, ok := s.runs[runID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no active run %q", runID)
	}
	run.Stop()
	return nil
}

// Run returns the handle of an active run.
func (s *Scheduler) Run(runID string) (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	return run, ok
}

// finalize waits for the run's tasks to settle, then emits exactly one
// terminal notification and resolves the handle.
func (s *Scheduler) finalize(ctx context.Context, run *Run) {
	run.rc.WaitIdle()

	s.mu.Lock()
	delete(s.runs, run.id)
	s.mu.Unlock()

	logger := ctxlog.FromContext(ctx)
	switch {
	case run.failed():
		logger.Error("Run failed.", "error", run.Err())
		s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelError, RunID: run.id, Message: fmt.Sprintf("run failed: %v", run.Err())})
	case ctx.Err() != nil:
		logger.Info("Run stopped.")
		s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelInfo, RunID: run.id, Message: "run stopped"})
	default:
		logger.Info("Run finished.")
		s.notifier.Notify(ctx, notify.Notice{Level: notify.LevelInfo, RunID: run.id, Message: "run finished"})
	}

	run.cancel()
	close(run.done)
}

// spawnTrigger schedules one trigger as an independent concurrent task
// tracked on the run. A panicking unit fails the run rather than the
// process.
func (s *Scheduler) spawnTrigger(ctx context.Context, run *Run, nodeID string, batch map[string]cty.Value) {
	done := run.rc.TrackTask()
	go func() {
		defer done()
		defer func() {
			if r := recover(); r != nil {
				run.fail(nodeID, fmt.Errorf("panic: %v", r))
			}
		}()
		if ctx.Err() != nil {
			return
		}
		s.trigger(ctx, run, nodeID, batch)
	}()
}
