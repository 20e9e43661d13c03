package config

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"  warn ", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.level); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLoggerConfig_Production(t *testing.T) {
	zc := loggerConfig(LogConfig{Level: "warn"})

	if zc.Encoding != "json" {
		t.Errorf("Encoding = %q, want json", zc.Encoding)
	}
	if zc.InitialFields["service"] != serviceName {
		t.Errorf("service field = %v", zc.InitialFields["service"])
	}
	if zc.EncoderConfig.TimeKey != "timestamp" {
		t.Errorf("TimeKey = %q", zc.EncoderConfig.TimeKey)
	}
	if zc.Level.Level() != zapcore.WarnLevel {
		t.Errorf("Level = %v", zc.Level.Level())
	}
}

func TestLoggerConfig_Debug(t *testing.T) {
	zc := loggerConfig(LogConfig{Level: "debug"})

	if zc.Encoding != "console" {
		t.Errorf("Encoding = %q, want console", zc.Encoding)
	}
	if zc.InitialFields != nil {
		t.Errorf("debug logger must not add service field, got %v", zc.InitialFields)
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "error", ""} {
		logger, err := NewLogger(LogConfig{Level: level})
		if err != nil {
			t.Fatalf("NewLogger(%q) = %v", level, err)
		}
		if !logger.Core().Enabled(zapcore.ErrorLevel) {
			t.Errorf("NewLogger(%q) must log errors", level)
		}
		_ = logger.Sync()
	}
}
