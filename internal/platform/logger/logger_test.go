// Package logger_test contains tests for the logger package
package logger_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/prodshot-api/internal/config"
	"github.com/phrazzld/prodshot-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreDefault(t *testing.T) {
	t.Helper()
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })
}

func TestSetupWithWriter_Levels(t *testing.T) {
	tests := []struct {
		level       string
		debugLogged bool
		infoLogged  bool
		warnLogged  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"WARN", false, false, true},
		{"error", false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			restoreDefault(t)

			buf := &logger.TestLogBuffer{}
			log := logger.SetupWithWriter(config.ServerConfig{LogLevel: tc.level}, buf)
			require.NotNil(t, log)
			assert.Same(t, log, slog.Default(), "Setup installs the default logger")

			log.Debug("debug message")
			log.Info("info message")
			log.Warn("warn message")

			assert.Equal(t, tc.debugLogged, strings.Contains(buf.String(), "debug message"))
			assert.Equal(t, tc.infoLogged, strings.Contains(buf.String(), "info message"))
			assert.Equal(t, tc.warnLogged, strings.Contains(buf.String(), "warn message"))
		})
	}
}

func TestSetupWithWriter_InvalidLevel(t *testing.T) {
	restoreDefault(t)

	buf := &logger.TestLogBuffer{}
	log := logger.SetupWithWriter(config.ServerConfig{LogLevel: "verbose"}, buf)
	log.Info("still logging")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "verbose", entries[0]["configured_level"])
	assert.Equal(t, "still logging", entries[1]["msg"])
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, ok := logger.ParseLevel(" Debug ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, level)

	level, ok = logger.ParseLevel("fatal")
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	_, log := logger.NewTestLogger(t)
	_, fallback := logger.NewTestLogger(t)

	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.NotNil(t, logger.FromContextOrDefault(context.Background(), nil))

	ctx := logger.WithLogger(context.Background(), log)
	assert.Same(t, log, logger.FromContext(ctx))
	assert.Same(t, log, logger.FromContextOrDefault(ctx, fallback))
}
