package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"": slog.LevelWarn, "DEBUG": slog.LevelDebug, "info": slog.LevelInfo, "warning": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestConsoleDefaultsToWarn(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Stderr: &buf})
	require.NoError(t, err)
	l.Info("agent.turn_start")
	l.Warn("agent.unexpected_message", "role", "user")
	out := buf.String()
	assert.NotContains(t, out, "agent.turn_start")
	assert.Contains(t, out, "agent.unexpected_message")
	assert.NoError(t, l.Close())
}

func TestFileReceivesJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "databot.log")
	l, err := New(Options{Stderr: &buf, File: path})
	require.NoError(t, err)
	l.With("component", "session").Info("session.load", "rows", 9)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &rec))
	assert.Equal(t, "session.load", rec["msg"])
	assert.Equal(t, "session", rec["component"])
	assert.EqualValues(t, 9, rec["rows"])
	assert.Empty(t, buf.String(), "info is below the console level")
}

func TestWarnReachesConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "databot.log")
	l, err := New(Options{Stderr: &buf, File: path})
	require.NoError(t, err)
	l.With("component", "agent").Warn("agent.max_hops", "hops", 8)
	l.Debug("agent.tool_start")
	require.NoError(t, l.Close())

	assert.Contains(t, buf.String(), "agent.max_hops")
	assert.Contains(t, buf.String(), "component=agent")
	assert.NotContains(t, buf.String(), "agent.tool_start")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1, "debug is below the file level")
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "agent.max_hops", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "agent", rec["component"])
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "****cdef", RedactValue("sk-abcdef"))
	assert.Equal(t, "Bearer ****cdef", RedactValue("Bearer sk-abcdef"))
	assert.Equal(t, "****", RedactValue("abc"))
	assert.Equal(t, "", RedactValue("  "))

	got := RedactAny(map[string]any{
		"api_key": "sk-123456789",
		"model":   "openai/gpt-4o-mini",
		"nested":  []any{map[string]any{"token": "tok-999999"}},
	}).(map[string]any)
	assert.Equal(t, "****6789", got["api_key"])
	assert.Equal(t, "openai/gpt-4o-mini", got["model"])
	assert.Equal(t, "****9999", got["nested"].([]any)[0].(map[string]any)["token"])
}
