// Package common provides shared utilities for the dashboard service.
package common

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
	"github.com/ternarybob/arbor/writers"
)

// Logger wraps arbor.ILogger to provide a consistent interface
type Logger struct {
	arbor.ILogger
}

// Log outputs accepted in the [logging] outputs list.
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputMemory  = "memory"
)

const logTimeFormat = "2006-01-02T15:04:05Z07:00"

var logLevels = []string{"trace", "debug", "info", "warn", "error"}

// LoggingConfig mirrors the [logging] table. Empty fields are rejected rather
// than defaulted; the config package supplies the defaults.
type LoggingConfig struct {
	Level      string
	Outputs    []string
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
}

func (c LoggingConfig) validate() error {
	if !slices.Contains(logLevels, strings.ToLower(c.Level)) {
		return fmt.Errorf("logging.level %q must be one of %s", c.Level, strings.Join(logLevels, ", "))
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("logging.outputs is empty")
	}
	for _, out := range c.Outputs {
		switch out {
		case OutputConsole, OutputMemory:
		case OutputFile:
			if c.FilePath == "" {
				return fmt.Errorf("logging.file_path is required for the file output")
			}
			if c.MaxSizeMB <= 0 || c.MaxBackups < 0 {
				return fmt.Errorf("logging.max_size_mb must be positive and logging.max_backups not negative")
			}
		default:
			return fmt.Errorf("logging.outputs: unknown output %q", out)
		}
	}
	return nil
}

// NewLoggerFromConfig builds an arbor logger with one writer per configured
// output. Unknown outputs or levels are an error.
func NewLoggerFromConfig(cfg LoggingConfig) (*Logger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	l := arbor.NewLogger()
	for _, out := range cfg.Outputs {
		switch out {
		case OutputConsole:
			l = l.WithConsoleWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeConsole,
				Writer:     os.Stderr,
				TimeFormat: logTimeFormat,
			})
		case OutputFile:
			l = l.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   cfg.FilePath,
				MaxSize:    int64(cfg.MaxSizeMB) * 1024 * 1024,
				MaxBackups: cfg.MaxBackups,
				TimeFormat: logTimeFormat,
			})
		case OutputMemory:
			l = l.WithMemoryWriter(models.WriterConfiguration{
				Type: models.LogWriterTypeMemory,
			})
		}
	}

	return &Logger{ILogger: l.WithLevelFromString(strings.ToLower(cfg.Level))}, nil
}

// discardWriter implements writers.IWriter and discards all output.
// Used by NewSilentLogger to prevent dispatch to globally-registered writers.
type discardWriter struct{}

func (w *discardWriter) Write(p []byte) (int, error)           { return len(p), nil }
func (w *discardWriter) WithLevel(_ log.Level) writers.IWriter { return w }
func (w *discardWriter) GetFilePath() string                   { return "" }
func (w *discardWriter) Close() error                          { return nil }

// lineWriter renders arbor's JSON events as "LEVEL message key=value" lines
// with the fields in key order.
type lineWriter struct {
	out   io.Writer
	level log.Level
}

func (w *lineWriter) Write(p []byte) (int, error) {
	var evt models.LogEvent
	if err := json.Unmarshal(p, &evt); err != nil {
		return w.out.Write(p)
	}
	if evt.Level < w.level {
		return len(p), nil
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(evt.Level.String()))
	b.WriteByte(' ')
	b.WriteString(evt.Message)
	for _, k := range slices.Sorted(maps.Keys(evt.Fields)) {
		fmt.Fprintf(&b, " %s=%v", k, evt.Fields[k])
	}
	if evt.Error != "" {
		fmt.Fprintf(&b, " error=%s", evt.Error)
	}
	b.WriteByte('\n')
	if _, err := io.WriteString(w.out, b.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *lineWriter) WithLevel(level log.Level) writers.IWriter {
	w.level = level
	return w
}

func (w *lineWriter) GetFilePath() string { return "" }
func (w *lineWriter) Close() error        { return nil }

// NewLoggerWithOutput creates a logger writing text lines to w.
func NewLoggerWithOutput(level string, w io.Writer) *Logger {
	arbor.RegisterWriter(arbor.WRITER_CONSOLE, &lineWriter{out: w, level: log.TraceLevel})

	arborLogger := arbor.NewLogger().
		WithMemoryWriter(models.WriterConfiguration{
			Type: models.LogWriterTypeMemory,
		}).
		WithLevelFromString(level)

	return &Logger{ILogger: arborLogger}
}

// NewSilentLogger creates a logger that discards all output.
func NewSilentLogger() *Logger {
	arborLogger := arbor.NewLogger().WithWriters([]writers.IWriter{&discardWriter{}})
	return &Logger{ILogger: arborLogger}
}

// WithCorrelationId returns a new Logger with a correlation ID set.
func (l *Logger) WithCorrelationId(id string) *Logger {
	return &Logger{ILogger: l.ILogger.WithCorrelationId(id)}
}
