package app

import (
	"fmt"
	"time"
)

// Config holds everything an App instance needs to run.
type Config struct {
	// FlowPath points at a single .hcl flow file or a directory of them.
	FlowPath string

	// StartNode is the node a one-shot run begins at. Empty means no
	// one-shot run; the app then requires Listen.
	StartNode string

	// Seed is the raw seed payload for the one-shot run. Parsed as JSON
	// when possible, otherwise carried as a plain string.
	Seed string

	// Listen keeps the app alive servicing event-triggered runs until
	// interrupted.
	Listen bool

	// Timeout bounds the one-shot run. Zero means no deadline.
	Timeout time.Duration

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.FlowPath == "" {
		return nil, fmt.Errorf("flow path is required")
	}
	if cfg.StartNode == "" && !cfg.Listen {
		return nil, fmt.Errorf("either a start node or listen mode is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative")
	}
	return &cfg, nil
}
