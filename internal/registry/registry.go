package registry

import (
	"fmt"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/unit"
)

// Module is the interface all unit modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Entry declares one unit type: its factory and socket specs. The specs are
// the static defaults; each run works on copies that the unit's Load may
// reshape.
type Entry struct {
	UnitType string
	New      func() unit.Unit
	Inputs   []graph.SocketSpec
	Outputs  []graph.SocketSpec
}

// Registry holds all registered unit types for one application instance.
type Registry struct {
	entries map[string]*Entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register adds an entry. Registering the same unit type twice is a
// programmer error and panics during startup.
func (r *Registry) Register(e *Entry) {
	if e.UnitType == "" || e.New == nil {
		panic(fmt.Sprintf("registry: invalid entry %+v", e))
	}
	if _, ok := r.entries[e.UnitType]; ok {
		panic(fmt.Sprintf("registry: duplicate unit type %q", e.UnitType))
	}
	r.entries[e.UnitType] = e
}

// Lookup returns the entry for a unit type.
func (r *Registry) Lookup(unitType string) (*Entry, bool) {
	e, ok := r.entries[unitType]
	return e, ok
}

// NewBinding instantiates the unit for a node spec together with its per-run
// binding. The binding's socket slices are fresh copies of the declared
// specs so Load-time mutation stays scoped to one run.
func (r *Registry) NewBinding(spec *graph.NodeSpec) (unit.Unit, *unit.Binding, error) {
	e, ok := r.entries[spec.UnitType]
	if !ok {
		return nil, nil, fmt.Errorf("unknown unit type %q for node %q", spec.UnitType, spec.ID)
	}
	b := &unit.Binding{
		NodeID:   spec.ID,
		UnitType: spec.UnitType,
		Config:   spec.Config,
		Inputs:   append([]graph.SocketSpec(nil), e.Inputs...),
		Outputs:  append([]graph.SocketSpec(nil), e.Outputs...),
	}
	return e.New(), b, nil
}
