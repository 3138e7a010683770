// Package scheduler is the execution engine. It drives each run's node
// state machine (PENDING, WAITING, EXECUTING, DONE) from an arbitrary start
// node, resolving pull dependencies recursively, delivering push batches
// grouped per destination node, and propagating outputs concurrently. There
// is no static topological order; the graph unfolds from whichever node a
// run starts at.
//
// Each run owns its RunContext exclusively. The only cross-run structure the
// scheduler touches is the events.Manager, and event listeners hand new-run
// requests back through a dispatch queue rather than calling into the
// scheduler from their own goroutines.
package scheduler
