package common

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor/models"
)

func TestNewLoggerFromConfig_FluentAPI(t *testing.T) {
	logger, err := NewLoggerFromConfig(LoggingConfig{Level: "error", Outputs: []string{OutputMemory}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Must not panic
	logger.Info().Str("key", "value").Msg("test message")
	logger.Warn().Int("count", 42).Msg("warning")
	logger.Error().Err(nil).Msg("error message")
	logger.Debug().Bool("ok", true).Msg("debug")
}

func TestNewLoggerFromConfig_FileOutput(t *testing.T) {
	cfg := LoggingConfig{
		Level:      "debug",
		Outputs:    []string{OutputFile},
		FilePath:   filepath.Join(t.TempDir(), "dashboard.log"),
		MaxSizeMB:  1,
		MaxBackups: 1,
	}
	if _, err := NewLoggerFromConfig(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewLoggerFromConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  LoggingConfig
		want string
	}{
		{"unknown level", LoggingConfig{Level: "loud", Outputs: []string{OutputConsole}}, "logging.level"},
		{"no outputs", LoggingConfig{Level: "info"}, "logging.outputs"},
		{"unknown output", LoggingConfig{Level: "info", Outputs: []string{"syslog"}}, "syslog"},
		{"file without path", LoggingConfig{Level: "info", Outputs: []string{OutputFile}, MaxSizeMB: 1}, "file_path"},
		{"file without size", LoggingConfig{Level: "info", Outputs: []string{OutputFile}, FilePath: "x.log"}, "max_size_mb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoggerFromConfig(tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLineWriter_SortsFieldsAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	w := &lineWriter{out: &buf}
	w.WithLevel(log.InfoLevel)

	for _, evt := range []models.LogEvent{
		{Level: log.DebugLevel, Message: "hidden"},
		{Level: log.InfoLevel, Message: "image assigned", Fields: map[string]interface{}{"slot": "realtime", "count": 2}},
	} {
		p, err := json.Marshal(evt)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if _, err := w.Write(p); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug event written below info level: %q", got)
	}
	if !strings.Contains(got, "INFO image assigned count=2 slot=realtime") {
		t.Errorf("expected sorted fields, got %q", got)
	}
}

func TestNewLoggerWithOutput_WritesToProvidedWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)
	logger.Info().Str("slot", "realtime").Msg("image assigned")

	if buf.Len() == 0 {
		t.Error("expected output to provided writer, got empty string")
	}
}

func TestNewSilentLogger_DoesNotWriteToGlobalWriters(t *testing.T) {
	var buf bytes.Buffer
	_ = NewLoggerWithOutput("info", &buf)
	buf.Reset()

	silent := NewSilentLogger()
	silent.Info().Str("leak", "check").Msg("should be discarded")
	silent.Error().Msg("should be discarded")

	if buf.Len() != 0 {
		t.Errorf("silent logger leaked output: %q", buf.String())
	}
}

func TestWithCorrelationId_ReturnsNewLogger(t *testing.T) {
	base := NewSilentLogger()
	scoped := base.WithCorrelationId("req-123")
	if scoped == nil || scoped == base {
		t.Fatal("expected a distinct scoped logger")
	}
	scoped.Info().Msg("scoped message")
}
