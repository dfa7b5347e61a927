package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name    string
		level   LogLevel
		log     func(logger zerolog.Logger)
		message string
	}{
		{
			name:  "debug_level",
			level: LevelDebug,
			log: func(logger zerolog.Logger) {
				logger.Debug().Msg("conditional request sent")
			},
			message: "conditional request sent",
		},
		{
			name:  "info_level",
			level: LevelInfo,
			log: func(logger zerolog.Logger) {
				logger.Info().Msg("definitions fetched")
			},
			message: "definitions fetched",
		},
		{
			name:  "warn_level",
			level: LevelWarn,
			log: func(logger zerolog.Logger) {
				logger.Warn().Msg("store unavailable")
			},
			message: "store unavailable",
		},
		{
			name:  "error_level",
			level: LevelError,
			log: func(logger zerolog.Logger) {
				logger.Error().Msg("stale cache conflict")
			},
			message: "stale cache conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{
				Level:  tt.level,
				Pretty: false,
				Output: buf,
			})

			tt.log(logger)

			if output := buf.String(); !strings.Contains(output, tt.message) {
				t.Errorf("Expected output to contain %q, got %q", tt.message, output)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    LogLevel
		expected zerolog.Level
	}{
		{LevelDebug, zerolog.DebugLevel},
		{LevelInfo, zerolog.InfoLevel},
		{LevelWarn, zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel}, // Alias accepted
		{LevelError, zerolog.ErrorLevel},
		{"DEBUG", zerolog.DebugLevel}, // Case-insensitive
		{"invalid", zerolog.InfoLevel}, // Should default to Info
	}

	for _, tt := range tests {
		t.Run(string(tt.input), func(t *testing.T) {
			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("fetcher")
	logger.Info().Str("etag", `"v1"`).Msg("definitions fetched")

	output := buf.String()
	if !strings.Contains(output, "fetcher") {
		t.Errorf("Expected output to contain component 'fetcher', got %q", output)
	}
	if !strings.Contains(output, "definitions fetched") {
		t.Errorf("Expected output to contain 'definitions fetched', got %q", output)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{
		Level:  LevelWarn,
		Pretty: false,
		Output: buf,
	})

	logger := NewLogger("store")

	// Below warn level, must be filtered
	logger.Debug().Msg("cache hit")
	logger.Info().Msg("entry stored")

	// Warn level and above must appear
	logger.Warn().Msg("redis unreachable")
	logger.Error().Msg("fetch failed")

	output := buf.String()

	for _, absent := range []string{"cache hit", "entry stored"} {
		if strings.Contains(output, absent) {
			t.Errorf("Message %q should be filtered out at Warn level", absent)
		}
	}
	for _, present := range []string{"redis unreachable", "fetch failed"} {
		if !strings.Contains(output, present) {
			t.Errorf("Message %q should be included at Warn level", present)
		}
	}
}
