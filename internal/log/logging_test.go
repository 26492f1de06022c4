package log_test

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in       string
		expected slog.Level
	}{
		{"trace", log.LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, log.ParseLevel(tc.in))
		})
	}
}

func TestNewSplitsErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := log.New(slog.LevelInfo, &out, &errOut)

	logger.Debug("hidden")
	logger.Info("generated", "file", "a.h")
	logger.Error("failed")

	assert.Contains(t, out.String(), "generated")
	assert.NotContains(t, out.String(), "hidden")
	assert.NotContains(t, out.String(), "failed")
	assert.Contains(t, errOut.String(), "failed")
	assert.NotContains(t, errOut.String(), "generated")
}

func TestTraceLevelName(t *testing.T) {
	var out bytes.Buffer
	logger := log.New(log.LevelTrace, &out, &bytes.Buffer{})
	logger.Log(t.Context(), log.LevelTrace, "wrote")
	assert.Contains(t, out.String(), "level=TRACE")
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firehose.log")
	logger, closers, err := log.SetupLogger("debug", path)
	require.NoError(t, err)
	require.Len(t, closers, 1)
	logger.Debug("to file")
	require.NoError(t, closers[0].Close())
	assert.FileExists(t, path)
}
