package collect

import (
	"context"
	"testing"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestStringArray(t *testing.T) {
	ctx := context.Background()

	t.Run("spreads items with skips", func(t *testing.T) {
		u := &stringArrayUnit{}
		require.NoError(t, u.Load(ctx, &unit.Binding{
			NodeID: "src",
			Config: map[string]cty.Value{
				"items":        cty.TupleVal([]cty.Value{cty.StringVal("x"), cty.StringVal("y"), cty.StringVal("z")}),
				"skip_indices": cty.TupleVal([]cty.Value{cty.NumberIntVal(1)}),
			},
		}))

		res, err := u.Execute(ctx, &unit.Invocation{NodeID: "src"})
		require.NoError(t, err)
		require.Len(t, res.Outputs, 1)
		require.True(t, res.Outputs[0].IsArray())

		elems := res.Outputs[0].Elems()
		require.Len(t, elems, 3)
		assert.True(t, cty.StringVal("x").RawEquals(elems[0].Value()))
		assert.True(t, elems[1].IsSkip())
		assert.True(t, cty.StringVal("z").RawEquals(elems[2].Value()))
	})

	t.Run("requires items", func(t *testing.T) {
		u := &stringArrayUnit{}
		err := u.Load(ctx, &unit.Binding{NodeID: "src"})
		assert.ErrorContains(t, err, "items")
	})
}

func TestFlatten(t *testing.T) {
	ctx := context.Background()

	newBinding := func(config map[string]cty.Value) *unit.Binding {
		return &unit.Binding{
			NodeID: "gather",
			Config: config,
			Inputs: []graph.SocketSpec{
				{Name: "items", Type: cty.DynamicPseudoType, IsArray: true},
			},
		}
	}

	t.Run("load toggles socket flags from config", func(t *testing.T) {
		u := &flattenUnit{}
		b := newBinding(map[string]cty.Value{
			"do_not_wait":   cty.True,
			"is_dependency": cty.True,
		})
		require.NoError(t, u.Load(ctx, b))
		assert.True(t, b.Input("items").DoNotWait)
		assert.True(t, b.Input("items").IsDependency)
	})

	t.Run("flags default to the declared spec", func(t *testing.T) {
		u := &flattenUnit{}
		b := newBinding(nil)
		require.NoError(t, u.Load(ctx, b))
		assert.False(t, b.Input("items").DoNotWait)
		assert.False(t, b.Input("items").IsDependency)
	})

	t.Run("forwards the aggregated tuple", func(t *testing.T) {
		u := &flattenUnit{}
		in := cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")})
		res, err := u.Execute(ctx, &unit.Invocation{
			NodeID: "gather",
			Args:   map[string]cty.Value{"items": in},
		})
		require.NoError(t, err)
		assert.True(t, in.RawEquals(res.Outputs[0].Value()))
	})

	t.Run("no input yields empty tuple", func(t *testing.T) {
		u := &flattenUnit{}
		res, err := u.Execute(ctx, &unit.Invocation{NodeID: "gather"})
		require.NoError(t, err)
		assert.True(t, cty.EmptyTupleVal.RawEquals(res.Outputs[0].Value()))
	})
}

func TestPassthrough(t *testing.T) {
	ctx := context.Background()

	t.Run("forwards value", func(t *testing.T) {
		u := &passthroughUnit{}
		require.NoError(t, u.Load(ctx, &unit.Binding{NodeID: "p"}))
		res, err := u.Execute(ctx, &unit.Invocation{
			NodeID: "p",
			Args:   map[string]cty.Value{"value": cty.StringVal("v")},
		})
		require.NoError(t, err)
		assert.True(t, cty.StringVal("v").RawEquals(res.Outputs[0].Value()))
	})

	t.Run("skip suppresses output", func(t *testing.T) {
		u := &passthroughUnit{}
		require.NoError(t, u.Load(ctx, &unit.Binding{
			NodeID: "p",
			Config: map[string]cty.Value{"skip": cty.True},
		}))
		res, err := u.Execute(ctx, &unit.Invocation{
			NodeID: "p",
			Args:   map[string]cty.Value{"value": cty.StringVal("v")},
		})
		require.NoError(t, err)
		assert.True(t, res.Outputs[0].IsSkip())
	})
}
