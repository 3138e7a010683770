// Package app wires the flow loader, the unit registry, and the scheduler
// into a runnable application with an isolated logger.
package app
