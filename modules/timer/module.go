// Package timer provides the 'interval' event source: it starts a new run on
// a fixed cadence, seeding each run with the tick count.
package timer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// intervalUnit ticks in its own goroutine between StartListening and
// StopListening. Within a run it simply forwards the seed it was started
// with.
type intervalUnit struct {
	every time.Duration
	limit int64

	mu   sync.Mutex
	stop context.CancelFunc
	done chan struct{}
}

func (u *intervalUnit) Load(ctx context.Context, b *unit.Binding) error {
	raw := b.ConfigString("every", "")
	if raw == "" {
		return fmt.Errorf("node %q: interval requires an 'every' duration", b.NodeID)
	}
	every, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("node %q: invalid 'every' duration %q: %w", b.NodeID, raw, err)
	}
	u.every = every
	u.limit = b.ConfigInt("limit", 0)
	return nil
}

func (u *intervalUnit) StartListening(ctx context.Context, trigger unit.TriggerFunc) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stop != nil {
		return fmt.Errorf("interval already listening")
	}

	tickCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	u.stop = cancel
	u.done = make(chan struct{})
	logger := ctxlog.FromContext(ctx)

	go func() {
		defer close(u.done)
		ticker := time.NewTicker(u.every)
		defer ticker.Stop()

		var n int64
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				n++
				trigger(cty.ObjectVal(map[string]cty.Value{
					"tick": cty.NumberIntVal(n),
				}))
				if u.limit > 0 && n >= u.limit {
					logger.Debug("Interval reached its tick limit.", "limit", u.limit)
					return
				}
			}
		}
	}()
	return nil
}

func (u *intervalUnit) StopListening(ctx context.Context) error {
	u.mu.Lock()
	stop, done := u.stop, u.done
	u.stop, u.done = nil, nil
	u.mu.Unlock()

	if stop == nil {
		return nil
	}
	stop()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (u *intervalUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	return &unit.Result{Outputs: []unit.Output{unit.Val(inv.Seed)}}, nil
}

// Register registers the unit type with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Entry{
		UnitType: "interval",
		New:      func() unit.Unit { return &intervalUnit{} },
		Outputs: []graph.SocketSpec{
			{Name: "event", Type: cty.DynamicPseudoType},
		},
	})
}
