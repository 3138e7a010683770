// Package testutil provides a shared harness and mock unit modules for
// exercising flows end to end inside tests.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/events"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/hclflow"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/scheduler"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// Harness wires a registry, an inline flow, and a scheduler into a ready
// test fixture. The scheduler's base context is cancelled on test cleanup.
type Harness struct {
	T        *testing.T
	Ctx      context.Context
	Registry *registry.Registry
	Def      *graph.Definition
	Events   *events.Manager
	Sched    *scheduler.Scheduler
	Notices  *NoticeRecorder

	logBuf *bytes.Buffer
}

// NewHarness parses flowSrc, validates it against the given modules, and
// starts a scheduler over it.
func NewHarness(t *testing.T, flowSrc string, modules ...registry.Module) *Harness {
	t.Helper()
	return NewHarnessWithManager(t, flowSrc, events.NewManager(), modules...)
}

// NewHarnessWithManager is NewHarness with a caller-supplied correlation
// manager, for tests whose modules must share it with the scheduler.
func NewHarnessWithManager(t *testing.T, flowSrc string, ev *events.Manager, modules ...registry.Module) *Harness {
	t.Helper()

	logBuf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx, cancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))
	t.Cleanup(cancel)

	reg := registry.New()
	for _, mod := range modules {
		mod.Register(reg)
	}

	def, err := hclflow.NewLoader().LoadSource(ctx, t.Name()+".hcl", []byte(flowSrc))
	require.NoError(t, err, "flow source must parse")
	require.NoError(t, reg.ValidateDefinition(ctx, def), "flow must validate")

	notices := NewNoticeRecorder()
	sched := scheduler.New(reg, def, ev, notices)
	sched.Start(ctx)

	return &Harness{
		T:        t,
		Ctx:      ctx,
		Registry: reg,
		Def:      def,
		Events:   ev,
		Sched:    sched,
		Notices:  notices,
		logBuf:   logBuf,
	}
}

// Run starts a run at startNode and blocks until it terminates.
func (h *Harness) Run(startNode string, seed cty.Value) *scheduler.Run {
	h.T.Helper()
	run, err := h.Sched.RunWorkflow(h.Ctx, "", startNode, seed)
	require.NoError(h.T, err)
	h.WaitDone(run)
	return run
}

// WaitDone blocks until the run terminates, failing the test after a grace
// period instead of hanging forever.
func (h *Harness) WaitDone(run *scheduler.Run) {
	h.T.Helper()
	select {
	case <-run.Done():
	case <-time.After(10 * time.Second):
		h.T.Fatalf("run %s did not terminate", run.ID())
	}
}

// LogOutput returns everything the harness logger captured so far.
func (h *Harness) LogOutput() string {
	return h.logBuf.String()
}
