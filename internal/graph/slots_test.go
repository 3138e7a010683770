package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestSplitSlot(t *testing.T) {
	tests := []struct {
		slot  string
		base  string
		index int
	}{
		{"value", "value", -1},
		{"items_0", "items", 0},
		{"items_12", "items", 12},
		{"multi_word_3", "multi_word", 3},
		{"trailing_", "trailing_", -1},
		{"_0", "_0", -1},
		{"items_-1", "items_-1", -1},
		{"items_x", "items_x", -1},
	}
	for _, tt := range tests {
		t.Run(tt.slot, func(t *testing.T) {
			base, index := SplitSlot(tt.slot)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestSlotName(t *testing.T) {
	assert.Equal(t, "items_0", SlotName("items", 0))
	assert.Equal(t, "items_7", SlotName("items", 7))
}

func TestResolveSlot(t *testing.T) {
	specs := []SocketSpec{
		{Name: "value", Type: cty.String},
		{Name: "items", Type: cty.String, IsArray: true},
		{Name: "retry_2", Type: cty.Number},
	}

	t.Run("scalar by exact name", func(t *testing.T) {
		spec, index, err := ResolveSlot(specs, "value")
		require.NoError(t, err)
		assert.Equal(t, "value", spec.Name)
		assert.Equal(t, -1, index)
	})

	t.Run("array by indexed slot", func(t *testing.T) {
		spec, index, err := ResolveSlot(specs, "items_3")
		require.NoError(t, err)
		assert.Equal(t, "items", spec.Name)
		assert.Equal(t, 3, index)
	})

	t.Run("exact name wins over suffix interpretation", func(t *testing.T) {
		spec, index, err := ResolveSlot(specs, "retry_2")
		require.NoError(t, err)
		assert.Equal(t, "retry_2", spec.Name)
		assert.Equal(t, -1, index)
	})

	t.Run("array addressed without index", func(t *testing.T) {
		_, _, err := ResolveSlot(specs, "items")
		assert.ErrorContains(t, err, "must be addressed by indexed slot")
	})

	t.Run("indexing a scalar socket", func(t *testing.T) {
		_, _, err := ResolveSlot(specs, "value_0")
		assert.ErrorContains(t, err, "is not an array socket")
	})

	t.Run("unknown socket", func(t *testing.T) {
		_, _, err := ResolveSlot(specs, "nope")
		assert.ErrorContains(t, err, "unknown socket")
	})
}

func TestParseEndpoint(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		ep, err := ParseEndpoint("node.socket")
		require.NoError(t, err)
		assert.Equal(t, Endpoint{Node: "node", Socket: "socket"}, ep)
	})

	t.Run("socket may contain dots", func(t *testing.T) {
		ep, err := ParseEndpoint("node.a.b")
		require.NoError(t, err)
		assert.Equal(t, Endpoint{Node: "node", Socket: "a.b"}, ep)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := ParseEndpoint("nodeonly")
		assert.Error(t, err)
	})
}
