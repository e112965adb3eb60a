package provider

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/metrics"
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

const tracerName = "github.com/damianoneill/go-appconfig/pkg/adapter/provider"

// Error classes reported as the result of a failed operation
const (
	ResultUnavailable     = "unavailable"
	ResultMalformed       = "malformed"
	ResultUnsupported     = "unsupported"
	ResultInvalidProperty = "invalid_property"
)

// InstrumentOptions configures Instrument
type InstrumentOptions struct {
	// Name labels metrics and spans, the provider kind by default
	Name string

	// Collector receives operation metrics
	Collector metrics.Collector

	// TracerProvider creates the operation spans
	TracerProvider trace.TracerProvider

	// Logger receives one debug entry per operation and warnings on failure
	Logger logging.Logger
}

// InstrumentOption modifies InstrumentOptions
type InstrumentOption = options.Option[InstrumentOptions]

// WithName sets the provider label
func WithName(name string) InstrumentOption {
	return options.OptionFunc[InstrumentOptions](func(o *InstrumentOptions) error {
		o.Name = name
		return nil
	})
}

// WithCollector sets the metrics collector
func WithCollector(c metrics.Collector) InstrumentOption {
	return options.OptionFunc[InstrumentOptions](func(o *InstrumentOptions) error {
		o.Collector = c
		return nil
	})
}

// WithTracerProvider sets where spans are created
func WithTracerProvider(tp trace.TracerProvider) InstrumentOption {
	return options.OptionFunc[InstrumentOptions](func(o *InstrumentOptions) error {
		o.TracerProvider = tp
		return nil
	})
}

// WithInstrumentLogger sets the operation logger
func WithInstrumentLogger(l logging.Logger) InstrumentOption {
	return options.OptionFunc[InstrumentOptions](func(o *InstrumentOptions) error {
		o.Logger = l
		return nil
	})
}

// Instrumented decorates a Provider with logging, metrics and tracing.
type Instrumented struct {
	settings.Provider

	name      string
	collector metrics.Collector
	tracer    trace.Tracer
	logger    logging.Logger
}

var (
	_ settings.Provider = (*Instrumented)(nil)
	_ settings.Watcher  = (*Instrumented)(nil)
)

type selfHealReporter interface {
	setSelfHealHook(fn func(keys int))
}

// Instrument wraps p. Without options the wrapper only logs to a no-op
// logger, so it can be applied unconditionally.
func Instrument(p settings.Provider, opts ...InstrumentOption) (*Instrumented, error) {
	o, err := options.Build(InstrumentOptions{}, opts...)
	if err != nil {
		return nil, err
	}
	if o.Name == "" {
		o.Name = kindOf(p)
	}
	if o.Collector == nil {
		o.Collector = metrics.Nop{}
	}
	if o.TracerProvider == nil {
		o.TracerProvider = noop.NewTracerProvider()
	}

	i := &Instrumented{
		Provider:  p,
		name:      o.Name,
		collector: o.Collector,
		tracer:    o.TracerProvider.Tracer(tracerName),
		logger:    logging.OrNop(o.Logger).With(logging.Fields{"provider": o.Name}),
	}
	if r, ok := p.(selfHealReporter); ok {
		r.setSelfHealHook(func(keys int) {
			i.collector.CollectSelfHeal(i.name, keys)
		})
	}
	return i, nil
}

// Unwrap returns the decorated provider
func (i *Instrumented) Unwrap() settings.Provider {
	return i.Provider
}

func (i *Instrumented) Read(target any) error {
	return i.observe("read", func() error { return i.Provider.Read(target) })
}

func (i *Instrumented) Write(source any) error {
	return i.observe("write", func() error { return i.Provider.Write(source) })
}

func (i *Instrumented) ReadString(data string, target any) error {
	return i.observe("read_string", func() error { return i.Provider.ReadString(data, target) })
}

func (i *Instrumented) WriteString(source any) (string, error) {
	var out string
	err := i.observe("write_string", func() error {
		var err error
		out, err = i.Provider.WriteString(source)
		return err
	})
	return out, err
}

func (i *Instrumented) Encrypt(target any) error {
	return i.observe("encrypt", func() error { return i.Provider.Encrypt(target) })
}

func (i *Instrumented) Decrypt(target any) error {
	return i.observe("decrypt", func() error { return i.Provider.Decrypt(target) })
}

// Watch delegates to the decorated provider when it is a Watcher.
func (i *Instrumented) Watch(ctx context.Context, onChange func()) error {
	w, ok := i.Provider.(settings.Watcher)
	if !ok {
		return settings.NewStoreError("watch", "", settings.ErrUnsupportedOperation, nil)
	}
	return w.Watch(ctx, onChange)
}

func (i *Instrumented) observe(op string, fn func() error) error {
	_, span := i.tracer.Start(context.Background(), "appconfig."+op,
		trace.WithAttributes(
			attribute.String("appconfig.provider", i.name),
			attribute.String("appconfig.section", i.Options().Section),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn()
	duration := time.Since(start)

	result := resultOf(err)
	i.collector.CollectOperation(i.name, op, result, duration.Seconds())
	span.SetAttributes(attribute.String("appconfig.result", result))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.logger.Warn("settings operation failed", logging.Fields{
			"operation": op,
			"result":    result,
			"error":     err,
		})
		return err
	}
	i.logger.Debug("settings operation completed", logging.Fields{
		"operation": op,
		"duration":  duration.String(),
	})
	return nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, settings.ErrStoreUnavailable):
		return ResultUnavailable
	case errors.Is(err, settings.ErrMalformedStore):
		return ResultMalformed
	case errors.Is(err, settings.ErrUnsupportedOperation):
		return ResultUnsupported
	case errors.Is(err, settings.ErrInvalidEncryptionProperty):
		return ResultInvalidProperty
	default:
		return metrics.ResultError
	}
}

func kindOf(p settings.Provider) string {
	switch p.(type) {
	case *ConfigFileProvider:
		return string(settings.ConfigFileKind)
	case *XMLFileProvider:
		return string(settings.XMLFileKind)
	case *StringProvider:
		return string(settings.StringKind)
	default:
		return "custom"
	}
}
