package docmerge

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogWarn)

	logger.Debug("debug %d", 1)
	logger.Info("info")
	logger.Warn("warn %s", "here")
	logger.Error("error")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[WARN] warn here")
	assert.Contains(t, lines[1], "[ERROR] error")

	buf.Reset()
	logger.SetLevel(LogOff)
	logger.Error("silenced")
	assert.Empty(t, buf.String())
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(&buf, LogDebug)
	child := base.WithField("merge_id", "abc").WithFields(Fields{"component": "splicer"})

	child.Info("inserted")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(buf.String()), "[INFO] inserted component=splicer merge_id=abc"))

	buf.Reset()
	base.Info("plain")
	assert.NotContains(t, buf.String(), "merge_id", "parent logger keeps its own fields")

	base.SetLevel(LogError)
	buf.Reset()
	child.Info("hidden")
	assert.Empty(t, buf.String(), "derived loggers share the level")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogDebug,
		"INFO":    LogInfo,
		"warn":    LogWarn,
		"error":   LogError,
		"off":     LogOff,
		"unknown": LogInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, parseLogLevel(in))
		})
	}
}
