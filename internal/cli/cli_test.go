package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		options, exit, err := Parse(nil, &bytes.Buffer{})
		require.NoError(t, err)
		assert.False(t, exit)
		assert.Equal(t, &Options{
			EnvFile:   ".env",
			LogFormat: "text",
			LogLevel:  "info",
			CellSize:  24,
		}, options)
	})

	t.Run("flags", func(t *testing.T) {
		options, _, err := Parse([]string{
			"-config", "grid.hcl", "-log-format", "JSON", "-log-level", "debug",
			"-png", "out.png", "-cell-size", "8", "-instant", "-walls", "1,1;2,2",
		}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "grid.hcl", options.ConfigPath)
		assert.Equal(t, "json", options.LogFormat)
		assert.Equal(t, "debug", options.LogLevel)
		assert.Equal(t, "out.png", options.PNGPath)
		assert.Equal(t, 8, options.CellSize)
		assert.True(t, options.Instant)
		assert.Equal(t, "1,1;2,2", options.Walls)
	})

	t.Run("positional config path", func(t *testing.T) {
		options, _, err := Parse([]string{"-instant", "maze.yaml"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "maze.yaml", options.ConfigPath)
	})

	t.Run("help exits cleanly", func(t *testing.T) {
		var out bytes.Buffer
		options, exit, err := Parse([]string{"-h"}, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, options)
		assert.Contains(t, out.String(), "Usage:")
	})

	invalid := map[string][]string{
		"unknown flag":   {"-diagonal"},
		"log format":     {"-log-format", "xml"},
		"log level":      {"-log-level", "trace"},
		"cell size":      {"-cell-size", "0"},
		"cell size type": {"-cell-size", "big"},
	}
	for name, args := range invalid {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(args, &bytes.Buffer{})
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := (&Options{LogFormat: "json", LogLevel: "warn"}).NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "row", 3)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"row":3`)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}
