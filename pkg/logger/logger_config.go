package logger

import (
	"strings"

	"github.com/rs/zerolog"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

type LoggerConfigJson struct {
	LogLevel string `json:"log_level"`
	Format   string `json:"format"`
}

type LoggerConfig struct {
	LogLevel zerolog.Level
	Format   Format
}

// ConvertToDomain maps unknown level names to NoLevel, which NewFromConfig
// treats as info. Unknown formats fall back to JSON.
func (j LoggerConfigJson) ConvertToDomain() LoggerConfig {
	level, err := zerolog.ParseLevel(strings.ToLower(j.LogLevel))
	if err != nil {
		level = zerolog.NoLevel
	}
	format := FormatJSON
	if Format(strings.ToLower(j.Format)) == FormatConsole {
		format = FormatConsole
	}
	return LoggerConfig{LogLevel: level, Format: format}
}
