// Package runstate holds the per-run execution record: each node's
// lifecycle state, cached inputs and outputs, the live wait set, scratch
// memory, and the run's outstanding task count. A RunContext is exclusively
// owned by the run that created it; the scheduler composes its operations
// but no state is ever shared between concurrent runs.
package runstate
