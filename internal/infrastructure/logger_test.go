package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/config"
)

func lastJSONLine(t *testing.T, content []byte) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")
	var console bytes.Buffer
	stdout = &console

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "both",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("test message", "key", "value")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	entry := lastJSONLine(t, content)
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "INFO", entry["level"])

	assert.Contains(t, console.String(), "test message", "both writes to stdout too")
	assert.Same(t, logger, GetLogger())
}

func TestInitializeLogger_TextFormat(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var console bytes.Buffer
	stdout = &console

	logger, err := InitializeLogger(config.LoggingConfig{Level: "info", Format: "text", Output: "console"})
	require.NoError(t, err)

	logger.Info("plain")
	assert.Contains(t, console.String(), "msg=plain")
}

func TestTraceIDInjection(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "test.log")
	_, err := InitializeLogger(config.LoggingConfig{Level: "debug", Format: "json", Output: "file", FilePath: logFile})
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "test-trace-123")
	LoggerFromContext(ctx).InfoContext(ctx, "test with trace")
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "test-trace-123", lastJSONLine(t, content)["trace_id"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		debugged bool
		warned   bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warning", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			ResetLoggerForTesting()
			defer ResetLoggerForTesting()

			var console bytes.Buffer
			stdout = &console
			logger, err := InitializeLogger(config.LoggingConfig{Level: tt.level, Output: "console"})
			require.NoError(t, err)

			logger.Debug("debug line")
			logger.Warn("warn line")

			assert.Equal(t, tt.debugged, strings.Contains(console.String(), "debug line"))
			assert.Equal(t, tt.warned, strings.Contains(console.String(), "warn line"))
		})
	}
}

func TestInitializeLogger_UnwritablePath(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := InitializeLogger(config.LoggingConfig{Output: "file", FilePath: filepath.Join(blocker, "app.log")})
	assert.Error(t, err)
}

func TestEnsureTraceID(t *testing.T) {
	ctx := EnsureTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.NotEmpty(t, traceID)

	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)), "existing trace ID is kept")
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	WithComponent(logger, "stock_normalizer").Info("test message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "stock_normalizer", entry["component"])
}

func TestLoggerFromContext_PlainHandler(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	var buf bytes.Buffer
	globalLogger = slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithTraceID(context.Background(), "abc")
	LoggerFromContext(ctx).Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc", entry["trace_id"])
}
