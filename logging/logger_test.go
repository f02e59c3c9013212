package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"error", LogLevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: LogLevelWarn, Format: "json", Output: &buf})

	l.Info("hidden")
	l.Warn("shown", "agent", "ELAINE")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"agent":"ELAINE"`)
}

func TestWith_AttachesAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := With(New(&Config{Level: LogLevelDebug, Output: &buf}), "component", "orchestrator")
	l.Debug("hello")
	assert.Contains(t, buf.String(), "component=orchestrator")

	assert.Equal(t, NoOpLogger{}, With(NoOpLogger{}, "k", "v"))
}
