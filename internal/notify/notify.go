// Package notify is the out-of-band messaging side channel. Units and the
// scheduler emit categorized notices to an observer; the default observer
// writes them to the run's logger. Notices are informational only and never
// affect scheduling decisions.
package notify

import (
	"context"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Level categorizes a notice.
type Level int

const (
	LevelInfo Level = iota
	LevelDebug
	LevelError
	// LevelSticky marks notices an observer should keep visible until
	// replaced, e.g. a display surface in a frontend.
	LevelSticky
)

// String returns the lowercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelError:
		return "error"
	case LevelSticky:
		return "sticky"
	}
	return "unknown"
}

// Notice is one out-of-band message from a unit or the engine.
type Notice struct {
	Level   Level
	RunID   string
	NodeID  string
	Message string
	Data    cty.Value
}

// Notifier receives notices. Implementations must be safe for concurrent use;
// notices arrive from arbitrarily many run goroutines.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier forwards every notice to the context logger.
type LogNotifier struct{}

// NewLogNotifier returns the default Notifier backed by slog.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify implements Notifier.
func (ln *LogNotifier) Notify(ctx context.Context, n Notice) {
	logger := ctxlog.FromContext(ctx).With("runID", n.RunID, "nodeID", n.NodeID)
	switch n.Level {
	case LevelDebug:
		logger.Debug(n.Message)
	case LevelError:
		logger.Error(n.Message)
	default:
		logger.Info(n.Message, "category", n.Level.String())
	}
}
