package logging

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	domainlog "github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
)

type ZapLogger struct {
	logger *zap.Logger
	atom   zap.AtomicLevel
}

var (
	_ domainlog.LeveledLogger       = (*ZapLogger)(nil)
	_ domainlog.RuntimeConfigurable = (*ZapLogger)(nil)
	_ domainlog.Factory             = (*Factory)(nil)
)

type ZapOptions struct {
	domainlog.LoggerOptions
	Development bool
}

type ZapOption = options.Option[ZapOptions]

// WithDevelopment enables development mode: console encoding and stack
// traces on warnings.
func WithDevelopment(enabled bool) ZapOption {
	return options.OptionFunc[ZapOptions](func(o *ZapOptions) error {
		o.Development = enabled
		return nil
	})
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) NewLogger(opts ...domainlog.Option) (domainlog.LeveledLogger, error) {
	return f.NewLoggerWithOptions(opts, nil)
}

// NewLoggerWithOptions creates a logger with both domain and Zap options
func (f *Factory) NewLoggerWithOptions(dopts []domainlog.Option, zopts []ZapOption) (domainlog.LeveledLogger, error) {
	o := ZapOptions{LoggerOptions: domainlog.DefaultOptions()}

	if err := options.Apply(&o.LoggerOptions, dopts...); err != nil {
		return nil, fmt.Errorf("applying domain options: %w", err)
	}
	if err := options.Apply(&o, zopts...); err != nil {
		return nil, fmt.Errorf("applying zap options: %w", err)
	}

	return f.createLogger(o)
}

func (f *Factory) createLogger(zopts ZapOptions) (*ZapLogger, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	outputs := zopts.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(convertToZapLevel(zopts.Level)),
		Development:       zopts.Development,
		DisableStacktrace: !zopts.Development,
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
	}
	if zopts.Development {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.AddCaller(),
	)
	if err != nil {
		return nil, fmt.Errorf("building zap logger: %w", err)
	}

	if zopts.ServiceName != "" {
		logger = logger.With(zap.String("service", zopts.ServiceName))
	}

	if len(zopts.Fields) > 0 {
		logger = logger.With(convertFields(zopts.Fields)...)
	}

	return &ZapLogger{logger: logger, atom: config.Level}, nil
}

// Wrap adapts an existing zap logger. Its level is controlled by the
// logger's own core, so SetLevel only filters at or above that level.
func Wrap(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{
		logger: logger.WithOptions(zap.AddCallerSkip(1)),
		atom:   zap.NewAtomicLevelAt(zapcore.DebugLevel),
	}
}

func (l *ZapLogger) Info(msg string, fields ...domainlog.Fields) {
	l.log(zapcore.InfoLevel, msg, fields)
}

func (l *ZapLogger) Error(msg string, fields ...domainlog.Fields) {
	l.log(zapcore.ErrorLevel, msg, fields)
}

func (l *ZapLogger) Debug(msg string, fields ...domainlog.Fields) {
	l.log(zapcore.DebugLevel, msg, fields)
}

func (l *ZapLogger) Warn(msg string, fields ...domainlog.Fields) {
	l.log(zapcore.WarnLevel, msg, fields)
}

func (l *ZapLogger) log(level zapcore.Level, msg string, fields []domainlog.Fields) {
	if !l.atom.Enabled(level) {
		return
	}
	if ce := l.logger.Check(level, msg); ce != nil {
		ce.Write(convertFields(domainlog.Merge(fields))...)
	}
}

func (l *ZapLogger) With(fields domainlog.Fields) domainlog.Logger {
	return &ZapLogger{
		logger: l.logger.With(convertFields(fields)...),
		atom:   l.atom,
	}
}

func (l *ZapLogger) WithContext(ctx context.Context) domainlog.Logger {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return l
	}
	spanCtx := span.SpanContext()
	if !spanCtx.HasTraceID() {
		return l
	}
	logger := l.logger.With(
		zap.String("trace_id", spanCtx.TraceID().String()),
		zap.String("span_id", spanCtx.SpanID().String()),
	)
	if spanCtx.IsSampled() {
		logger = logger.With(zap.Bool("sampled", true))
	}
	return &ZapLogger{logger: logger, atom: l.atom}
}

func (l *ZapLogger) SetLevel(level domainlog.Level) {
	l.atom.SetLevel(convertToZapLevel(level))
}

func (l *ZapLogger) GetLevel() domainlog.Level {
	switch l.atom.Level() {
	case zapcore.DebugLevel:
		return domainlog.DebugLevel
	case zapcore.WarnLevel:
		return domainlog.WarnLevel
	case zapcore.ErrorLevel:
		return domainlog.ErrorLevel
	default:
		return domainlog.InfoLevel
	}
}

// GetConfigHandler serves the zap level endpoint: GET reports the level,
// PUT {"level":"debug"} changes it.
func (l *ZapLogger) GetConfigHandler() http.Handler {
	return l.atom
}

// Sync flushes buffered entries
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

func convertToZapLevel(level domainlog.Level) zapcore.Level {
	switch level {
	case domainlog.DebugLevel:
		return zapcore.DebugLevel
	case domainlog.InfoLevel:
		return zapcore.InfoLevel
	case domainlog.WarnLevel:
		return zapcore.WarnLevel
	case domainlog.ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func convertFields(fields domainlog.Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			zapFields = append(zapFields, zap.NamedError(k, err))
			continue
		}
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}
