// Package metrics defines how settings operations and the admin endpoint
// are measured.
package metrics

import (
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_metrics.go -package=mocks github.com/damianoneill/go-appconfig/pkg/domain/metrics Collector,Factory

// Operation results
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Collector records metrics for provider operations and admin requests
type Collector interface {
	// CollectOperation records a completed provider operation. result is
	// ResultSuccess or a short error class such as "unavailable".
	CollectOperation(provider, operation, result string, duration float64)

	// CollectSelfHeal records that a read wrote back missing keys
	CollectSelfHeal(provider string, keys int)

	// CollectRequestMetrics records a completed admin HTTP request
	CollectRequestMetrics(method, path string, status int, duration float64)

	// Close unregisters the collector's metrics
	Close() error
}

// Options configures the behavior of a metrics collector
type Options struct {
	// ServiceName identifies the service in the metrics
	ServiceName string

	// Buckets defines custom histogram buckets for latency metrics
	// If empty, default buckets will be used
	Buckets []float64

	// Labels are additional fixed labels to add to all metrics
	Labels map[string]string

	// Namespace prefixes metric names, "appconfig" by default
	Namespace string

	// Subsystem is an optional name added after the metrics namespace
	// For example: namespace_subsystem_metric_name
	Subsystem string
}

// Option is a function that modifies Options
type Option = options.Option[Options]

// DefaultOptions returns the default metrics options
func DefaultOptions() Options {
	return Options{
		ServiceName: "unknown",
		Namespace:   "appconfig",
	}
}

// WithServiceName sets the service name that will be included
// in all metrics labels for identification.
func WithServiceName(name string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.ServiceName = name
		return nil
	})
}

// WithBuckets sets custom histogram buckets for latency metrics.
// The buckets should be in ascending order.
func WithBuckets(buckets []float64) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Buckets = buckets
		return nil
	})
}

// WithLabels sets additional labels that will be included
// in all metrics from this collector.
func WithLabels(labels map[string]string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Labels = labels
		return nil
	})
}

// WithNamespace sets the metric name prefix
func WithNamespace(namespace string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Namespace = namespace
		return nil
	})
}

// WithSubsystem sets an optional subsystem name that will be included
// in metric names between the namespace and metric name.
func WithSubsystem(subsystem string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Subsystem = subsystem
		return nil
	})
}

// Factory creates new metrics collector instances
type Factory interface {
	// NewCollector creates a new metrics collector with the given options
	NewCollector(opts ...Option) (Collector, error)
}

// Nop is a Collector that records nothing
type Nop struct{}

func (Nop) CollectOperation(string, string, string, float64) {}
func (Nop) CollectSelfHeal(string, int) {}
func (Nop) CollectRequestMetrics(string, string, int, float64) {}
func (Nop) Close() error { return nil }
