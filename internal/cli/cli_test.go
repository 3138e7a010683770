package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("full flag set", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{
			"--flow", "flows/demo.hcl",
			"--start", "entry",
			"--seed", `{"n": 1}`,
			"--timeout", "30s",
			"--log-format", "text",
			"--log-level", "debug",
		}, &out)
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "flows/demo.hcl", cfg.FlowPath)
		assert.Equal(t, "entry", cfg.StartNode)
		assert.Equal(t, `{"n": 1}`, cfg.Seed)
		assert.Equal(t, 30*time.Second, cfg.Timeout)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("positional flow path", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"--start", "entry", "flows/"}, &out)
		require.NoError(t, err)
		require.False(t, exit)
		assert.Equal(t, "flows/", cfg.FlowPath)
	})

	t.Run("listen mode without start node", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"--listen", "flows/"}, &out)
		require.NoError(t, err)
		require.False(t, exit)
		assert.True(t, cfg.Listen)
		assert.Empty(t, cfg.StartNode)
	})

	t.Run("no flow path prints usage and exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse(nil, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("neither start node nor listen", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"flows/"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid log format", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"--start", "a", "--log-format", "xml", "flows/"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Contains(t, exitErr.Message, "log-format")
	})

	t.Run("invalid log level", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"--start", "a", "--log-level", "loud", "flows/"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Contains(t, exitErr.Message, "log-level")
	})

	t.Run("unknown flag", func(t *testing.T) {
		var out bytes.Buffer
		_, _, err := Parse([]string{"--bogus"}, &out)
		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})
}
