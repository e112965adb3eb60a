// Package tracing defines the tracing configuration used to put settings
// operations and admin requests on OpenTelemetry traces.
package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/damianoneill/go-appconfig/pkg/domain/options"
)

// Provider owns the tracer provider that settings spans are recorded on.
type Provider interface {
	// Shutdown flushes pending spans and stops the exporter. ctx bounds
	// the flush.
	Shutdown(ctx context.Context) error

	// IsEnabled reports whether spans are exported
	IsEnabled() bool

	// TracerProvider returns the provider spans are created from. A
	// disabled Provider returns a no-op implementation.
	TracerProvider() trace.TracerProvider
}

// ExporterType selects how spans leave the process.
type ExporterType string

const (
	// HTTPExporter sends spans with OTLP over HTTP
	HTTPExporter ExporterType = "http"

	// GRPCExporter sends spans with OTLP over gRPC
	GRPCExporter ExporterType = "grpc"

	// NoopExporter records nothing
	NoopExporter ExporterType = "noop"
)

// Propagation formats understood by the admin router. Callers reloading
// settings over HTTP can carry their trace into the settings spans.
const (
	PropagatorTraceContext = "tracecontext"
	PropagatorBaggage      = "baggage"
)

// Options configures the tracer provider.
type Options struct {
	// ServiceName and ServiceVersion become the resource attributes of
	// every settings span
	ServiceName    string
	ServiceVersion string

	// CollectorEndpoint is the OTLP collector, host:port. The exporter
	// default applies when empty.
	CollectorEndpoint string

	// ExporterType defaults to HTTPExporter
	ExporterType ExporterType

	// Headers are sent with every export, typically credentials
	Headers map[string]string

	// Insecure turns off TLS towards the collector
	Insecure bool

	// PropagatorTypes lists the propagation formats, trace context and
	// baggage when empty
	PropagatorTypes []string

	// SamplingRate is the fraction of root traces kept, 1.0 by default.
	// Sampled parents are always followed.
	SamplingRate float64
}

// Option is a function that modifies Options
type Option = options.Option[Options]

// DefaultOptions returns the defaults providers start from
func DefaultOptions() Options {
	return Options{
		ExporterType: HTTPExporter,
		SamplingRate: 1.0,
	}
}

// Factory creates configured Provider instances
type Factory interface {
	NewProvider(opts ...Option) (Provider, error)

	// HTTPMiddleware starts a server span named operation for each request
	HTTPMiddleware(operation string) func(http.Handler) http.Handler
}

func WithServiceName(name string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.ServiceName = name
		return nil
	})
}

func WithServiceVersion(version string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.ServiceVersion = version
		return nil
	})
}

// WithCollectorEndpoint sets the OTLP collector address
func WithCollectorEndpoint(endpoint string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.CollectorEndpoint = endpoint
		return nil
	})
}

func WithExporterType(exporterType ExporterType) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.ExporterType = exporterType
		return nil
	})
}

// WithHeaders sets headers sent with every export
func WithHeaders(headers map[string]string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Headers = headers
		return nil
	})
}

func WithInsecure(insecure bool) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Insecure = insecure
		return nil
	})
}

// WithPropagatorTypes sets the propagation formats. Unknown names are
// rejected.
func WithPropagatorTypes(types []string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		for _, t := range types {
			if t != PropagatorTraceContext && t != PropagatorBaggage {
				return fmt.Errorf("unsupported propagator %q", t)
			}
		}
		o.PropagatorTypes = types
		return nil
	})
}

// WithSamplingRate sets the fraction of root traces kept, between 0.0 and
// 1.0
func WithSamplingRate(rate float64) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if rate < 0.0 || rate > 1.0 {
			return fmt.Errorf("sampling rate must be between 0.0 and 1.0")
		}
		o.SamplingRate = rate
		return nil
	})
}

// WithDefaultPropagators selects W3C trace context and baggage
func WithDefaultPropagators() Option {
	return WithPropagatorTypes([]string{
		PropagatorTraceContext,
		PropagatorBaggage,
	})
}
