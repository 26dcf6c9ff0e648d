package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/id-Mask/smart-contracts/pkg/utilities/timeutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   LoggerConfig
		expected zerolog.Level
	}{
		{
			name:     "Default log level when no level specified",
			config:   LoggerConfig{LogLevel: zerolog.NoLevel},
			expected: zerolog.InfoLevel,
		},
		{
			name:     "Debug log level",
			config:   LoggerConfig{LogLevel: zerolog.DebugLevel},
			expected: zerolog.DebugLevel,
		},
		{
			name:     "Error log level",
			config:   LoggerConfig{LogLevel: zerolog.ErrorLevel},
			expected: zerolog.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewFromConfig(tt.config)
			require.NotNil(t, l)
			assert.Equal(t, tt.expected, l.Level())
		})
	}
}

func TestLoggerConfigJsonConvertToDomain(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, LoggerConfigJson{LogLevel: "warn"}.ConvertToDomain().LogLevel)
	assert.Equal(t, zerolog.NoLevel, LoggerConfigJson{LogLevel: "loud"}.ConvertToDomain().LogLevel)
	assert.Equal(t, zerolog.DebugLevel, LoggerConfigJson{LogLevel: "DEBUG"}.ConvertToDomain().LogLevel)

	assert.Equal(t, FormatJSON, LoggerConfigJson{}.ConvertToDomain().Format)
	assert.Equal(t, FormatConsole, LoggerConfigJson{Format: "Console"}.ConvertToDomain().Format)
	assert.Equal(t, FormatJSON, LoggerConfigJson{Format: "xml"}.ConvertToDomain().Format)
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	l := New().WithOutput(&buf).WithField("circuit", "ProofOfAge")

	l.Warn("slow prove")

	assert.Contains(t, buf.String(), `"circuit":"ProofOfAge"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestSinksAreInheritedByChildren(t *testing.T) {
	var first, second int
	l := New().WithOutput(&bytes.Buffer{})
	AddSinkToLoggerInstance(l, func(string, zerolog.Level, timeutil.TimeUTC) { first++ })
	AddSinkToLoggerInstance(l, func(string, zerolog.Level, timeutil.TimeUTC) { second++ })

	l.WithComponent("engine").Info("compiled")
	l.Info("ready")

	assert.Equal(t, 2, first)
	assert.Equal(t, 2, second)
}

func TestLoggerWithLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New().WithOutput(&buf).WithLevel(zerolog.ErrorLevel)

	l.Info("info message")
	l.Error(errors.New("test error"), "error message")

	output := buf.String()
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "error message")
	assert.Contains(t, output, "test error")
}

func TestLoggerWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New().WithOutput(&buf).WithComponent("verifier")

	l.Infof("verified %d proofs", 3)

	assert.Contains(t, buf.String(), `"component":"verifier"`)
	assert.Contains(t, buf.String(), "verified 3 proofs")
}

func TestLoggerSinkRespectsLevel(t *testing.T) {
	var received []string
	l := New().WithOutput(&bytes.Buffer{}).WithLevel(zerolog.WarnLevel)
	AddSinkToLoggerInstance(l, func(msg string, level zerolog.Level, _ timeutil.TimeUTC) {
		received = append(received, level.String()+":"+msg)
	})

	l.Debug("hidden")
	l.Warnf("disk at %d%%", 91)
	l.Error(errors.New("boom"), "failed")

	assert.Equal(t, []string{"warn:disk at 91%", "error:failed"}, received)
}

func TestOrDefaultFallsBackToNop(t *testing.T) {
	explicit := Nop()
	assert.Same(t, explicit, OrDefault(explicit))
	assert.NotNil(t, OrDefault(nil))
}
