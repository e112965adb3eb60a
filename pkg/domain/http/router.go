// Package http defines the admin router that exposes a running
// application's settings: health probes, a masked view of the current
// values, reload, runtime log level and metrics.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/metrics"
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
	"github.com/damianoneill/go-appconfig/pkg/domain/tracing"
)

// Router is a chi.Router carrying the admin routes. Applications may
// mount their own routes on it.
type Router interface {
	chi.Router
}

// SettingsSource is the view of a settings object the admin routes use.
type SettingsSource interface {
	// Masked returns the current values keyed by property name with
	// encrypted and sensitive values masked
	Masked() map[string]any

	// Reload reads the settings from their store again
	Reload() error

	// ErrorMessage returns the last store failure, empty when healthy
	ErrorMessage() string
}

// RouterOptions configures the admin router.
type RouterOptions struct {
	// ServiceName identifies the service in logs, metrics and traces.
	ServiceName string

	// ServiceVersion is added as a metrics label.
	ServiceVersion string

	// Logger enables request logging.
	Logger logging.Logger

	// TracingProvider enables request tracing.
	TracingProvider tracing.Provider

	// MetricsFactory enables request metrics and the /metrics endpoint.
	MetricsFactory metrics.Factory

	// ProbeHandlers back the /internal probe endpoints.
	ProbeHandlers *ProbeHandlers

	// Settings enables the /internal/settings endpoints. When set and no
	// custom probes are given, readiness reports its store errors.
	Settings SettingsSource

	// LevelHandler is mounted at /internal/logging, see
	// logging.RuntimeConfigurable.
	LevelHandler http.Handler

	// ExcludeFromLogging lists paths that are not logged or measured.
	// A trailing or segment "*" matches any segment, e.g. "/internal/*".
	ExcludeFromLogging []string

	// ExcludeFromTracing lists paths that are not traced.
	ExcludeFromTracing []string
}

// Option is a function that modifies RouterOptions
type Option = options.Option[RouterOptions]

// WithService sets the service name and version.
func WithService(name, version string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.ServiceName = name
		o.ServiceVersion = version
		return nil
	})
}

// WithLogger sets the request logger
func WithLogger(logger logging.Logger) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.Logger = logger
		return nil
	})
}

// WithTracingProvider sets the tracing provider
func WithTracingProvider(provider tracing.Provider) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.TracingProvider = provider
		return nil
	})
}

// WithMetricsFactory sets the factory the request collector is created from
func WithMetricsFactory(factory metrics.Factory) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.MetricsFactory = factory
		return nil
	})
}

// WithProbeHandlers replaces the probe checks
func WithProbeHandlers(handlers *ProbeHandlers) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.ProbeHandlers = handlers
		return nil
	})
}

// WithSettings exposes a settings object on the admin routes
func WithSettings(source SettingsSource) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.Settings = source
		return nil
	})
}

// WithLevelHandler mounts a runtime log level handler
func WithLevelHandler(h http.Handler) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.LevelHandler = h
		return nil
	})
}

// WithObservabilityExclusions sets the logging and tracing exclusions
// together.
func WithObservabilityExclusions(loggingPaths []string, tracingPaths []string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.ExcludeFromLogging = loggingPaths
		o.ExcludeFromTracing = tracingPaths
		return nil
	})
}

// WithLoggingExclusions sets paths excluded from request logging and
// metrics.
func WithLoggingExclusions(paths []string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.ExcludeFromLogging = paths
		return nil
	})
}

// WithTracingExclusions sets paths excluded from tracing.
func WithTracingExclusions(paths []string) Option {
	return options.OptionFunc[RouterOptions](func(o *RouterOptions) error {
		o.ExcludeFromTracing = paths
		return nil
	})
}

// Factory creates admin routers
type Factory interface {
	NewRouter(opts ...Option) (Router, error)
}
