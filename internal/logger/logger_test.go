package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log
	log = New(NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	t.Cleanup(func() { log = prev })
	return &buf
}

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, log)
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name  string
		write func()
		want  string
		level string
	}{
		{"info", func() { Info("checkout created") }, "checkout created", "INFO"},
		{"infof", func() { Infof("credited %d tokens", 100) }, "credited 100 tokens", "INFO"},
		{"warn", func() { Warn("duplicate delivery") }, "duplicate delivery", "WARN"},
		{"error", func() { Error("webhook failed") }, "webhook failed", "ERROR"},
		{"errorf", func() { Errorf("session %s failed", "cs_1") }, "session cs_1 failed", "ERROR"},
		{"debugf", func() { Debugf("raw %s", "payload") }, "raw payload", "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t, slog.LevelDebug)
			tt.write()

			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tt.want, record["msg"])
			assert.Equal(t, tt.level, record["level"])
		})
	}
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)
	Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestStructuredArgs(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)
	Info("HTTP request", "status", 200, "path", "/webhooks/stripe")

	output := buf.String()
	assert.Contains(t, output, `"status":200`)
	assert.Contains(t, output, `"path":"/webhooks/stripe"`)
}

func TestWithError(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)
	WithError(assert.AnError).Info("reconcile failed")

	output := buf.String()
	assert.Contains(t, output, "reconcile failed")
	assert.Contains(t, output, assert.AnError.Error())
}

func TestWithFields(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo)
	WithFields(map[string]interface{}{
		"session_id": "cs_test_1",
		"tokens":     100,
	}).Info("tokens credited")

	output := buf.String()
	assert.Contains(t, output, "tokens credited")
	assert.Contains(t, output, `"session_id":"cs_test_1"`)
	assert.Contains(t, output, `"tokens":100`)
}
