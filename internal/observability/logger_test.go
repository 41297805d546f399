// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/otto-cli/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newBufferSink gives each test its own console destination.
func newBufferSink(t *testing.T) (*bytes.Buffer, zapcore.WriteSyncer) {
	t.Helper()
	var buf bytes.Buffer
	return &buf, zapcore.AddSync(&buf)
}

func TestInitialize(t *testing.T) {
	t.Run("console output is colorized and named", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		buf, sink := newBufferSink(t)

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "otto",
			Colors:      config.ColorConfig{Info: "green"},
		}, sink)
		GetLogger().Named("action_executor").Info("Dispatching click.")
		Sync()

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "Dispatching click.")
		assert.Contains(t, output, "otto.action_executor.")
		assert.Contains(t, output, colorGreen)
		assert.Contains(t, output, colorReset)
	})

	t.Run("unknown color names fall back to plain level text", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		buf, sink := newBufferSink(t)

		Initialize(config.LoggerConfig{
			Level:  "info",
			Format: "console",
			Colors: config.ColorConfig{Warn: "chartreuse"},
		}, sink)
		GetLogger().Warn("Settle wait interrupted.")
		Sync()

		assert.Contains(t, buf.String(), "WARN")
		assert.NotContains(t, buf.String(), colorReset)
	})

	t.Run("json output", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		buf, sink := newBufferSink(t)

		Initialize(config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "JSONTest",
		}, sink)
		GetLogger().Warn("Window not found.", zap.String("title_pattern", "notepad"))
		Sync()

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "JSONTest", entry["logger"])
		assert.Equal(t, "Window not found.", entry["msg"])
		assert.Equal(t, "notepad", entry["title_pattern"])
	})

	t.Run("log file receives json lines", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		_, sink := newBufferSink(t)
		logPath := filepath.Join(t.TempDir(), "otto.log")

		Initialize(config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: logPath,
			MaxSize: 1,
		}, sink)
		GetLogger().Error("Failed to press key.")
		Sync()

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"Failed to press key."`)
	})

	t.Run("only the first call takes effect", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		buf, sink := newBufferSink(t)

		Initialize(config.LoggerConfig{Level: "info", ServiceName: "First"}, sink)
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "Second"}, sink)
		second := GetLogger()

		assert.Same(t, first, second)
		second.Info("test")
		Sync()
		assert.Contains(t, buf.String(), "First")
		assert.NotContains(t, buf.String(), "Second")
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("fallback before initialization", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		require.NotNil(t, GetLogger())
	})

	t.Run("returns the stored logger after initialization", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)
		_, sink := newBufferSink(t)
		Initialize(config.LoggerConfig{Level: "info", ServiceName: "GlobalTest"}, sink)

		assert.Same(t, globalLogger.Load(), GetLogger())
	})
}
