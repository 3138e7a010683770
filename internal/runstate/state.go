package runstate

// State is a node's lifecycle state within one run.
type State int32

const (
	// Pending nodes have never been triggered.
	Pending State = iota
	// Waiting nodes have a seeded wait set and collect input values.
	Waiting
	// Executing nodes are inside their unit's Execute call. Input batches
	// arriving now are dropped, not buffered.
	Executing
	// Done nodes have finished at least one execution; a fresh trigger
	// re-arms them from their current wait configuration.
	Done
)

// String returns the uppercase state name.
func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Waiting:
		return "WAITING"
	case Executing:
		return "EXECUTING"
	case Done:
		return "DONE"
	}
	return "UNKNOWN"
}
