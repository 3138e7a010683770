package hclflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fluxwire/fluxwire/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const sampleFlow = `
unit "constant" "five" {
  config {
    value = 5
  }
}

unit "sum" "total" {}

connect {
  from = "five.value"
  to   = "total.a"
}
`

func TestLoadSource(t *testing.T) {
	ctx := context.Background()

	t.Run("valid flow", func(t *testing.T) {
		def, err := NewLoader().LoadSource(ctx, "flow.hcl", []byte(sampleFlow))
		require.NoError(t, err)

		five, ok := def.Node("five")
		require.True(t, ok)
		assert.Equal(t, "constant", five.UnitType)
		require.Contains(t, five.Config, "value")
		assert.True(t, cty.NumberIntVal(5).RawEquals(five.Config["value"]))

		total, ok := def.Node("total")
		require.True(t, ok)
		assert.Equal(t, "sum", total.UnitType)
		assert.Empty(t, total.Config)

		src, ok := def.SourceOf("total", "a")
		require.True(t, ok)
		assert.Equal(t, graph.Endpoint{Node: "five", Socket: "value"}, src)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := NewLoader().LoadSource(ctx, "broken.hcl", []byte(`unit "x" {`))
		assert.Error(t, err)
	})

	t.Run("connect requires from and to", func(t *testing.T) {
		_, err := NewLoader().LoadSource(ctx, "flow.hcl", []byte(`
			unit "constant" "a" {}
			connect {
			  from = "a.value"
			}
		`))
		assert.Error(t, err)
	})

	t.Run("connect endpoints must be node.socket strings", func(t *testing.T) {
		_, err := NewLoader().LoadSource(ctx, "flow.hcl", []byte(`
			unit "constant" "a" {}
			connect {
			  from = "a.value"
			  to   = "nodot"
			}
		`))
		assert.ErrorContains(t, err, "invalid endpoint")
	})

	t.Run("connection to undeclared node", func(t *testing.T) {
		_, err := NewLoader().LoadSource(ctx, "flow.hcl", []byte(`
			unit "constant" "a" {}
			connect {
			  from = "a.value"
			  to   = "ghost.in"
			}
		`))
		assert.ErrorContains(t, err, "unknown destination node")
	})
}

func TestLoadFromDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes.hcl"), []byte(`
		unit "constant" "five" {
		  config { value = 5 }
		}
		unit "sum" "total" {}
	`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wiring.hcl"), []byte(`
		connect {
		  from = "five.value"
		  to   = "total.a"
		}
	`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	t.Run("directory merges all flow files", func(t *testing.T) {
		def, err := NewLoader().Load(ctx, dir)
		require.NoError(t, err)
		assert.Len(t, def.Nodes(), 2)
		assert.Len(t, def.Connections(), 1)
	})

	t.Run("single file root", func(t *testing.T) {
		def, err := NewLoader().Load(ctx, filepath.Join(dir, "nodes.hcl"))
		require.NoError(t, err)
		assert.Len(t, def.Nodes(), 2)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := NewLoader().Load(ctx, t.TempDir())
		assert.ErrorContains(t, err, "no .hcl files found")
	})

	t.Run("non-flow file root", func(t *testing.T) {
		_, err := NewLoader().Load(ctx, filepath.Join(dir, "notes.txt"))
		assert.Error(t, err)
	})
}
