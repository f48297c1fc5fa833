package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a textual level ("debug", "info", ...) to a LogLevel,
// defaulting to info for unknown values.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug", "DEBUG":
		return LogLevelDebug
	case "warn", "WARN":
		return LogLevelWarn
	case "error", "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface for DialogueMesh.
// This allows users to provide their own logger implementation or use the built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// LoggerConfig configures construction of a StructuredLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
	Agent     string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout}
}

// StructuredLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It is cheap to copy via With* methods.
type StructuredLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	agent     string
	dialogue  string
}

// NewLogger builds a StructuredLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *StructuredLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &StructuredLogger{logger: slog.New(handler), level: cfg.Level, component: cfg.Component, agent: cfg.Agent}
}

// NewStructuredLogger creates a StructuredLogger with the specified level and format.
func NewStructuredLogger(level LogLevel, format string) *StructuredLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	return NewLogger(cfg)
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a copy bound to a component name (engine, registry, scheduler).
func (l *StructuredLogger) WithComponent(component string) *StructuredLogger {
	nl := *l
	nl.component = component
	return &nl
}

// WithAgent returns a copy bound to the local agent address.
func (l *StructuredLogger) WithAgent(agent string) *StructuredLogger {
	nl := *l
	nl.agent = agent
	return &nl
}

// WithDialogue returns a copy bound to a dialogue label.
func (l *StructuredLogger) WithDialogue(label string) *StructuredLogger {
	nl := *l
	nl.dialogue = label
	return &nl
}

func (l *StructuredLogger) attrs() []any {
	var out []any
	if l.component != "" {
		out = append(out, "component", l.component)
	}
	if l.agent != "" {
		out = append(out, "agent", l.agent)
	}
	if l.dialogue != "" {
		out = append(out, "dialogue", l.dialogue)
	}
	return out
}

// Debug logs at debug level.
func (l *StructuredLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, append(l.attrs(), args...)...)
}

// Info logs at info level.
func (l *StructuredLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, append(l.attrs(), args...)...)
}

// Warn logs at warn level.
func (l *StructuredLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, append(l.attrs(), args...)...)
}

// Error logs at error level.
func (l *StructuredLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, append(l.attrs(), args...)...)
}

// LogMessageRejected records a validation failure for an inbound message.
// The rejection is isolated to the single message; the agent keeps running.
func (l *StructuredLogger) LogMessageRejected(performative string, err error) {
	l.Warn("inbound message rejected",
		"performative", performative,
		"error", err.Error(),
		"error_type", fmt.Sprintf("%T", err),
	)
}

// LogSchedulerCycle records aggregate scheduler state after a tick.
func (l *StructuredLogger) LogSchedulerCycle(waiting int, inFlight bool, elapsed time.Duration) {
	l.Debug("scheduler cycle",
		"waiting", waiting,
		"in_flight", inFlight,
		"elapsed", elapsed,
	)
}
