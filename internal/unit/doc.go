// Package unit defines the contract between the engine and processing
// units: the Unit and EventSource interfaces, the tagged Output type with
// its Skip variant, execution results with optional wait-set updates, and
// the per-run binding a unit may reshape during Load.
package unit
