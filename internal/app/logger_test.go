package app

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("level filters records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger("warn", "text", &buf)

		logger.Info("quiet")
		assert.Empty(t, buf.String())

		logger.Warn("loud")
		assert.Contains(t, buf.String(), "loud")
	})

	t.Run("level parsing is case-insensitive", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger("DEBUG", "text", &buf)

		logger.Debug("visible")
		assert.Contains(t, buf.String(), "visible")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger("chatty", "text", &buf)

		logger.Debug("hidden")
		assert.Empty(t, buf.String())

		logger.Info("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("json format emits json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger("info", "json", &buf)

		logger.Info("hello")
		out := buf.String()
		require.NotEmpty(t, out)
		assert.Equal(t, byte('{'), out[0])
		assert.Contains(t, out, `"msg":"hello"`)
	})
}
