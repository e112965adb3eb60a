// Package logging defines the structured logging contract used by
// providers, the admin handler and the settings use case.
package logging

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/damianoneill/go-appconfig/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_logger.go -package=mocks github.com/damianoneill/go-appconfig/pkg/domain/logging Logger,LeveledLogger,RuntimeConfigurable,Factory

// Level represents logging severity levels.
type Level string

const (
	// DebugLevel logs debug or trace information
	DebugLevel Level = "debug"

	// InfoLevel logs general information about program execution
	InfoLevel Level = "info"

	// WarnLevel logs potentially harmful situations
	WarnLevel Level = "warn"

	// ErrorLevel logs error conditions
	ErrorLevel Level = "error"
)

// ParseLevel maps a case insensitive name to a Level.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case DebugLevel, InfoLevel, WarnLevel, ErrorLevel:
		return l, nil
	case "warning":
		return WarnLevel, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// Fields represents structured logging key-value pairs.
type Fields map[string]any

// LoggerOptions holds configuration for logger implementations.
type LoggerOptions struct {
	// Level sets the minimum logging level
	Level Level

	// ServiceName identifies the service in log output
	ServiceName string

	// Fields contains default fields added to all log entries
	Fields Fields

	// OutputPaths lists sinks, "stderr" when empty
	OutputPaths []string
}

// Option is a function that modifies LoggerOptions
type Option = options.Option[LoggerOptions]

// DefaultOptions returns the default logger options
func DefaultOptions() LoggerOptions {
	return LoggerOptions{
		Level:       InfoLevel,
		OutputPaths: []string{"stderr"},
	}
}

// WithLevel sets the minimum logging level.
func WithLevel(level Level) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		o.Level = level
		return nil
	})
}

// WithServiceName sets the service name included in all log entries.
func WithServiceName(name string) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		o.ServiceName = name
		return nil
	})
}

// WithFields sets default fields included in all log entries.
func WithFields(fields Fields) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		o.Fields = fields
		return nil
	})
}

// WithOutputPaths sets the log sinks, e.g. "stdout" or a file path.
func WithOutputPaths(paths ...string) Option {
	return options.OptionFunc[LoggerOptions](func(o *LoggerOptions) error {
		if len(paths) == 0 {
			return fmt.Errorf("at least one output path is required")
		}
		o.OutputPaths = paths
		return nil
	})
}

// Logger defines the core logging interface. Each method accepts optional
// structured fields.
type Logger interface {
	// Debug logs a message at debug level
	Debug(msg string, fields ...Fields)

	// Info logs a message at info level
	Info(msg string, fields ...Fields)

	// Warn logs a message at warn level
	Warn(msg string, fields ...Fields)

	// Error logs a message at error level
	Error(msg string, fields ...Fields)

	// With returns a new Logger with additional default fields
	With(fields Fields) Logger

	// WithContext returns a new Logger carrying trace identifiers from ctx
	WithContext(ctx context.Context) Logger
}

// LeveledLogger extends Logger with level management capabilities.
type LeveledLogger interface {
	Logger

	// SetLevel changes the minimum logging level
	SetLevel(level Level)

	// GetLevel returns the current minimum logging level
	GetLevel() Level
}

// RuntimeConfigurable represents a logger whose level can be changed
// through an HTTP endpoint.
type RuntimeConfigurable interface {
	GetConfigHandler() http.Handler
}

// Factory creates new logger instances
type Factory interface {
	NewLogger(opts ...Option) (LeveledLogger, error)
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return nop{}
}

type nop struct{}

func (nop) Debug(string, ...Fields) {}
func (nop) Info(string, ...Fields) {}
func (nop) Warn(string, ...Fields) {}
func (nop) Error(string, ...Fields) {}
func (n nop) With(Fields) Logger { return n }
func (n nop) WithContext(context.Context) Logger { return n }

// OrNop returns l, or a no-op Logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return nop{}
	}
	return l
}

// Merge flattens variadic field sets into one map. Later keys win.
func Merge(fields []Fields) Fields {
	switch len(fields) {
	case 0:
		return nil
	case 1:
		return fields[0]
	}
	out := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}
