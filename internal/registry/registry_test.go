package registry

import (
	"context"
	"testing"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

type nopUnit struct{}

func (nopUnit) Load(ctx context.Context, b *unit.Binding) error { return nil }
func (nopUnit) Execute(ctx context.Context, inv *unit.Invocation) (*unit.Result, error) {
	return &unit.Result{}, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	r.Register(&Entry{
		UnitType: "source",
		New:      func() unit.Unit { return nopUnit{} },
		Outputs: []graph.SocketSpec{
			{Name: "out", Type: cty.String},
			{Name: "many", Type: cty.String, IsArray: true},
		},
	})
	r.Register(&Entry{
		UnitType: "sink",
		New:      func() unit.Unit { return nopUnit{} },
		Inputs: []graph.SocketSpec{
			{Name: "in", Type: cty.String},
		},
	})
	return r
}

func TestRegister(t *testing.T) {
	r := newTestRegistry(t)

	t.Run("lookup", func(t *testing.T) {
		e, ok := r.Lookup("source")
		require.True(t, ok)
		assert.Equal(t, "source", e.UnitType)

		_, ok = r.Lookup("ghost")
		assert.False(t, ok)
	})

	t.Run("duplicate type panics", func(t *testing.T) {
		assert.Panics(t, func() {
			r.Register(&Entry{UnitType: "source", New: func() unit.Unit { return nopUnit{} }})
		})
	})

	t.Run("entry without factory panics", func(t *testing.T) {
		assert.Panics(t, func() {
			r.Register(&Entry{UnitType: "broken"})
		})
	})
}

func TestNewBinding(t *testing.T) {
	r := newTestRegistry(t)
	spec := &graph.NodeSpec{ID: "n1", UnitType: "sink", Config: map[string]cty.Value{"k": cty.True}}

	u, b, err := r.NewBinding(spec)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "n1", b.NodeID)
	assert.Equal(t, "sink", b.UnitType)
	assert.True(t, b.ConfigBool("k", false))

	// The binding owns spec copies: mutating one run's flags must not leak
	// into the next run's binding.
	b.Input("in").DoNotWait = true
	_, b2, err := r.NewBinding(spec)
	require.NoError(t, err)
	assert.False(t, b2.Input("in").DoNotWait)

	t.Run("unknown unit type", func(t *testing.T) {
		_, _, err := r.NewBinding(&graph.NodeSpec{ID: "x", UnitType: "ghost"})
		assert.ErrorContains(t, err, "unknown unit type")
	})
}

func TestValidateDefinition(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	def := func(t *testing.T, conns ...graph.Connection) *graph.Definition {
		t.Helper()
		d, err := graph.NewDefinition([]*graph.NodeSpec{
			{ID: "a", UnitType: "source"},
			{ID: "b", UnitType: "sink"},
		}, conns)
		require.NoError(t, err)
		return d
	}

	ep := func(s string) graph.Endpoint {
		e, err := graph.ParseEndpoint(s)
		require.NoError(t, err)
		return e
	}

	t.Run("valid", func(t *testing.T) {
		err := r.ValidateDefinition(ctx, def(t, graph.Connection{From: ep("a.out"), To: ep("b.in")}))
		assert.NoError(t, err)
	})

	t.Run("array output slots resolve", func(t *testing.T) {
		err := r.ValidateDefinition(ctx, def(t, graph.Connection{From: ep("a.many_4"), To: ep("b.in")}))
		assert.NoError(t, err)
	})

	t.Run("unknown unit type", func(t *testing.T) {
		d, err := graph.NewDefinition([]*graph.NodeSpec{{ID: "x", UnitType: "ghost"}}, nil)
		require.NoError(t, err)
		assert.ErrorContains(t, r.ValidateDefinition(ctx, d), "unknown unit type")
	})

	t.Run("unknown source socket", func(t *testing.T) {
		err := r.ValidateDefinition(ctx, def(t, graph.Connection{From: ep("a.nope"), To: ep("b.in")}))
		assert.ErrorContains(t, err, "source")
	})

	t.Run("array socket without index", func(t *testing.T) {
		err := r.ValidateDefinition(ctx, def(t, graph.Connection{From: ep("a.many"), To: ep("b.in")}))
		assert.ErrorContains(t, err, "indexed slot")
	})

	t.Run("unknown destination socket", func(t *testing.T) {
		err := r.ValidateDefinition(ctx, def(t, graph.Connection{From: ep("a.out"), To: ep("b.nope")}))
		assert.ErrorContains(t, err, "destination")
	})
}
