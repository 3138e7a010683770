package scheduler

import (
	"fmt"
	"sync"

	"github.com/fluxwire/fluxwire/internal/runstate"
)

// Run is the handle for one workflow execution. It resolves (Done closes)
// once every task spawned for the run has settled.
type Run struct {
	id     string
	rc     *runstate.RunContext
	cancel func()
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// ID returns the run's identifier.
func (r *Run) ID() string { return r.id }

// State returns the run's state store. Exposed for inspection; mutating it
// outside the scheduler is a programming error.
func (r *Run) State() *runstate.RunContext { return r.rc }

// Done is closed when the run reaches its terminal state: completed, failed,
// or stopped.
func (r *Run) Done() <-chan struct{} { return r.done }

// Err returns the run's failure, nil for completed and stopped runs. Only
// meaningful after Done is closed.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Stop cancels the run cooperatively: no further state transitions happen,
// every outstanding task is cancelled, and the terminal "stopped"
// notification fires exactly once when the tasks have drained.
func (r *Run) Stop() {
	r.cancel()
}

// fail records the first failure and aborts the run. Unit execution failure
// aborts the whole run, not just the failing branch; the run error always
// names the node that caused it.
func (r *Run) fail(nodeID string, err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = fmt.Errorf("node %q: %w", nodeID, err)
	}
	r.mu.Unlock()
	r.cancel()
}

// failed reports whether the run has recorded a failure.
func (r *Run) failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err != nil
}
