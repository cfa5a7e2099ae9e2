package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestZapLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithFormat("json"), WithWriter(&buf), WithRedactedFields("token"))

	logger.WithComponent("catalog").Info("type saved",
		Str("type_id", "t-1"),
		Int("fields", 3),
		Str("token", "secret"))
	logger.Debug("dropped at info level")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "type saved", lines[0]["message"])
	assert.Equal(t, "catalog", lines[0][ComponentKey])
	assert.Equal(t, "t-1", lines[0]["type_id"])
	assert.Equal(t, float64(3), lines[0]["fields"])
	assert.Equal(t, redactedValue, lines[0]["token"])
}

func TestZapLoggerLevelIsShared(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithFormat("json"), WithWriter(&buf))
	child := logger.WithComponent("store")

	logger.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, child.GetLevel())

	child.Debugf("gc ran %d times", 2)
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "gc ran 2 times", lines[0]["message"])
}

func TestZapLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WithFormat("json"), WithWriter(&buf))

	ctx := WithRequestID(context.Background(), "req-42")
	logger.WithContext(ctx).Warn("slow request")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-42", lines[0][RequestIDKey])
}

func TestApplyConfig(t *testing.T) {
	logger, err := ApplyConfig(&Config{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, DebugLevel, logger.GetLevel())

	_, err = ApplyConfig(&Config{Level: "loud"})
	assert.Error(t, err)

	_, err = ApplyConfig(&Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestTestLoggerChildrenShareEntries(t *testing.T) {
	logger := NewTestLogger()
	child := logger.WithComponent("prefill").With(Str("type_id", "t-1"))

	child.Info("template applied")
	child.Debug("hidden")

	assert.True(t, logger.AssertLogged(InfoLevel, "template applied"))
	assert.True(t, logger.AssertLoggedWithField(InfoLevel, "template applied", ComponentKey, "prefill"))
	assert.False(t, logger.AssertLogged(DebugLevel, "hidden"))

	logger.ClearEntries()
	assert.Empty(t, logger.GetEntries())
}

func TestStdLogWriter(t *testing.T) {
	logger := NewTestLogger()
	std := ToStdLogger(logger, WarnLevel)
	std.Println("tls handshake error")

	entries := logger.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, WarnLevel, entries[0].Level)
	assert.Equal(t, "tls handshake error", entries[0].Message)
}
