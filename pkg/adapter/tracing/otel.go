// Package tracing provides an OpenTelemetry implementation of the tracing domain interfaces
package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/damianoneill/go-appconfig/pkg/domain/options"
	"github.com/damianoneill/go-appconfig/pkg/domain/tracing"
)

var (
	_ tracing.Provider = (*Provider)(nil)
	_ tracing.Factory  = (*Factory)(nil)
)

// Provider implements the domain Provider interface using OpenTelemetry
type Provider struct {
	provider *sdktrace.TracerProvider
	enabled  bool
}

// Factory creates OpenTelemetry-based Provider instances
type Factory struct {
	// exporter replaces the OTLP exporter when set
	exporter sdktrace.SpanExporter
	// syncExport exports each span as it ends instead of batching
	syncExport bool
}

// NewFactory creates a new OpenTelemetry factory
func NewFactory() *Factory {
	return &Factory{}
}

// NewFactoryWithExporter creates a factory whose providers send spans to
// exporter synchronously, e.g. a tracetest.InMemoryExporter.
func NewFactoryWithExporter(exporter sdktrace.SpanExporter) *Factory {
	return &Factory{exporter: exporter, syncExport: true}
}

// NewProvider implements Factory.NewProvider
func (f *Factory) NewProvider(opts ...tracing.Option) (tracing.Provider, error) {
	o, err := options.Build(tracing.DefaultOptions(), opts...)
	if err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	if o.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	if o.ExporterType == tracing.NoopExporter {
		return &Provider{enabled: false}, nil
	}

	exporter := f.exporter
	if exporter == nil {
		exporter, err = f.createExporter(context.Background(), &o)
		if err != nil {
			return nil, fmt.Errorf("creating exporter: %w", err)
		}
	}

	res, err := f.createResource(&o)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	if f.syncExport {
		processor = sdktrace.NewSimpleSpanProcessor(exporter)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(processor),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(f.createSampler(&o)),
	)

	otel.SetTracerProvider(tp)
	f.setupPropagators(&o)

	return &Provider{provider: tp, enabled: true}, nil
}

// HTTPMiddleware creates an http.Handler that adds tracing
func (f *Factory) HTTPMiddleware(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation)
	}
}

// Shutdown implements Provider.Shutdown
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled || p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// IsEnabled implements Provider.IsEnabled
func (p *Provider) IsEnabled() bool {
	return p.enabled
}

// TracerProvider implements Provider.TracerProvider
func (p *Provider) TracerProvider() trace.TracerProvider {
	if !p.enabled || p.provider == nil {
		return noop.NewTracerProvider()
	}
	return p.provider
}

// createExporter creates an OTLP exporter based on the configuration
func (f *Factory) createExporter(ctx context.Context, opts *tracing.Options) (sdktrace.SpanExporter, error) {
	switch opts.ExporterType {
	case tracing.HTTPExporter:
		var httpOpts []otlptracehttp.Option
		if opts.CollectorEndpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(opts.CollectorEndpoint))
		}
		if opts.Insecure {
			httpOpts = append(httpOpts, otlptracehttp.WithInsecure())
		}
		if len(opts.Headers) > 0 {
			httpOpts = append(httpOpts, otlptracehttp.WithHeaders(opts.Headers))
		}
		return otlptracehttp.New(ctx, httpOpts...)

	case tracing.GRPCExporter:
		var grpcOpts []otlptracegrpc.Option
		if opts.CollectorEndpoint != "" {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(opts.CollectorEndpoint))
		}
		if opts.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		if len(opts.Headers) > 0 {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithHeaders(opts.Headers))
		}
		return otlptracegrpc.New(ctx, grpcOpts...)

	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", opts.ExporterType)
	}
}

// createResource creates a resource with service information
func (f *Factory) createResource(opts *tracing.Options) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
	)
}

// createSampler creates a sampler based on the configuration
func (f *Factory) createSampler(opts *tracing.Options) sdktrace.Sampler {
	if opts.SamplingRate >= 1.0 {
		return sdktrace.AlwaysSample()
	}
	if opts.SamplingRate <= 0.0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SamplingRate))
}

// setupPropagators configures the global propagators
func (f *Factory) setupPropagators(opts *tracing.Options) {
	types := opts.PropagatorTypes
	if len(types) == 0 {
		types = []string{tracing.PropagatorTraceContext, tracing.PropagatorBaggage}
	}

	propagators := make([]propagation.TextMapPropagator, 0, len(types))
	for _, pType := range types {
		switch pType {
		case tracing.PropagatorTraceContext:
			propagators = append(propagators, propagation.TraceContext{})
		case tracing.PropagatorBaggage:
			propagators = append(propagators, propagation.Baggage{})
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagators...))
}
