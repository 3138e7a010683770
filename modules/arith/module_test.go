package arith

import (
	"context"
	"testing"

	"github.com/fluxwire/fluxwire/internal/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestSum(t *testing.T) {
	u := &sumUnit{}
	ctx := context.Background()

	t.Run("adds operands", func(t *testing.T) {
		res, err := u.Execute(ctx, &unit.Invocation{
			NodeID: "total",
			Args: map[string]cty.Value{
				"a": cty.NumberIntVal(5),
				"b": cty.NumberIntVal(3),
			},
		})
		require.NoError(t, err)
		require.Len(t, res.Outputs, 1)
		assert.True(t, cty.NumberIntVal(8).RawEquals(res.Outputs[0].Value()))
	})

	t.Run("missing operand", func(t *testing.T) {
		_, err := u.Execute(ctx, &unit.Invocation{
			NodeID: "total",
			Args:   map[string]cty.Value{"a": cty.NumberIntVal(5)},
		})
		assert.ErrorContains(t, err, `missing numeric input "b"`)
	})

	t.Run("non-number operand", func(t *testing.T) {
		_, err := u.Execute(ctx, &unit.Invocation{
			NodeID: "total",
			Args: map[string]cty.Value{
				"a": cty.StringVal("five"),
				"b": cty.NumberIntVal(3),
			},
		})
		assert.ErrorContains(t, err, "want number")
	})
}

func TestAccumulate(t *testing.T) {
	u := &accumulateUnit{}
	ctx := context.Background()
	mem := unit.NewMemory()

	// First firing establishes the total from the seed and installs the
	// increment-only wait configuration.
	res, err := u.Execute(ctx, &unit.Invocation{
		NodeID: "acc",
		Args:   map[string]cty.Value{"seed": cty.NumberIntVal(10)},
		Memory: mem,
	})
	require.NoError(t, err)
	assert.True(t, cty.NumberIntVal(10).RawEquals(res.Outputs[0].Value()))
	require.NotNil(t, res.StateUpdate)
	assert.Equal(t, []string{"increment"}, res.StateUpdate.WaitFor)

	// Later firings only need the increment.
	res, err = u.Execute(ctx, &unit.Invocation{
		NodeID: "acc",
		Args:   map[string]cty.Value{"increment": cty.NumberIntVal(5)},
		Memory: mem,
	})
	require.NoError(t, err)
	assert.True(t, cty.NumberIntVal(15).RawEquals(res.Outputs[0].Value()))
	assert.Nil(t, res.StateUpdate)

	// A different run's memory starts from its own seed.
	res, err = u.Execute(ctx, &unit.Invocation{
		NodeID: "acc",
		Args:   map[string]cty.Value{"seed": cty.NumberIntVal(100)},
		Memory: unit.NewMemory(),
	})
	require.NoError(t, err)
	assert.True(t, cty.NumberIntVal(100).RawEquals(res.Outputs[0].Value()))
}
