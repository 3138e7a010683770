package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fluxwire/fluxwire/internal/ctxlog"
)

// Run executes the main application logic based on the provided configuration.
// With a start node it performs a one-shot run and returns its outcome; with
// Listen it additionally keeps servicing event-triggered runs until the
// process is interrupted.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if cfg.Listen {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
	}

	schedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.sched.Start(schedCtx)

	if err := a.sched.StartListeners(schedCtx); err != nil {
		return fmt.Errorf("starting event listeners: %w", err)
	}
	defer a.sched.StopListeners(context.WithoutCancel(ctx))

	if cfg.StartNode != "" {
		seed, err := parseSeed(cfg.Seed)
		if err != nil {
			return fmt.Errorf("parsing seed payload: %w", err)
		}

		runCtx := schedCtx
		if cfg.Timeout > 0 {
			var timeoutCancel context.CancelFunc
			runCtx, timeoutCancel = context.WithTimeout(schedCtx, cfg.Timeout)
			defer timeoutCancel()
		}

		a.logger.Info("🚀 Starting run.", "startNode", cfg.StartNode)
		run, err := a.sched.RunWorkflow(runCtx, "", cfg.StartNode, seed)
		if err != nil {
			return fmt.Errorf("starting run: %w", err)
		}
		<-run.Done()
		if err := run.Err(); err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		a.logger.Info("🏁 Run finished.")
	}

	if cfg.Listen {
		a.logger.Info("Listening for events. Interrupt to stop.")
		<-ctx.Done()
		a.logger.Info("Shutting down.")
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
