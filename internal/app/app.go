package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
	"github.com/fluxwire/fluxwire/internal/events"
	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/hclflow"
	"github.com/fluxwire/fluxwire/internal/notify"
	"github.com/fluxwire/fluxwire/internal/registry"
	"github.com/fluxwire/fluxwire/internal/scheduler"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	def      *graph.Definition
	events   *events.Manager
	sched    *scheduler.Scheduler
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, registry, and
// scheduler. Configuration problems are fatal startup errors and panic.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	ev := events.NewManager()

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules(ev)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All unit modules registered.", "count", len(modules))

	loader := hclflow.NewLoader()
	def, err := loader.Load(ctx, cfg.FlowPath)
	if err != nil {
		// A failure to load the flow is a fatal startup error.
		panic(fmt.Errorf("failed to load flow: %w", err))
	}
	logger.Debug("Flow loaded.", "nodes", len(def.Nodes()))

	if err := reg.ValidateDefinition(ctx, def); err != nil {
		panic(fmt.Errorf("flow validation failed: %w", err))
	}
	logger.Debug("Flow validation passed.")

	sched := scheduler.New(reg, def, ev, notify.NewLogNotifier())

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		def:      def,
		events:   ev,
		sched:    sched,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Scheduler returns the application's scheduler. This is primarily for testing.
func (a *App) Scheduler() *scheduler.Scheduler {
	return a.sched
}
