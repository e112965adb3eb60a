package metrics

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/damianoneill/go-appconfig/pkg/domain/metrics"
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
)

var (
	_ metrics.Factory   = (*PrometheusFactory)(nil)
	_ metrics.Collector = (*prometheusCollector)(nil)
)

type prometheusCollector struct {
	operationDuration *prometheus.HistogramVec
	operationsTotal   *prometheus.CounterVec
	selfHealKeys      *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	requestsTotal     *prometheus.CounterVec
	reg               prometheus.Registerer
	mu                sync.RWMutex
	closed            bool
}

// NewMetricsFactory returns a factory registering with the default
// Prometheus registerer.
func NewMetricsFactory() metrics.Factory {
	return &PrometheusFactory{}
}

// PrometheusFactory creates collectors. A nil Registerer means
// prometheus.DefaultRegisterer.
type PrometheusFactory struct {
	Registerer prometheus.Registerer
}

// NewPrometheusFactory returns a factory registering with reg
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	return &PrometheusFactory{Registerer: reg}
}

func (f *PrometheusFactory) NewCollector(opts ...metrics.Option) (metrics.Collector, error) {
	o, err := options.Build(metrics.DefaultOptions(), opts...)
	if err != nil {
		return nil, fmt.Errorf("applying option: %w", err)
	}

	if o.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}

	labels := prometheus.Labels{
		"service": o.ServiceName,
	}
	for k, v := range o.Labels {
		labels[k] = v
	}

	buckets := o.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return nil, fmt.Errorf("buckets must be in increasing order: %v", buckets)
		}
	}

	reg := f.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &prometheusCollector{
		reg: reg,
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   o.Namespace,
				Subsystem:   o.Subsystem,
				Name:        "operation_duration_seconds",
				Help:        "Settings provider operation duration in seconds",
				Buckets:     buckets,
				ConstLabels: labels,
			},
			[]string{"provider", "operation"},
		),
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   o.Namespace,
				Subsystem:   o.Subsystem,
				Name:        "operations_total",
				Help:        "Total number of settings provider operations by result",
				ConstLabels: labels,
			},
			[]string{"provider", "operation", "result"},
		),
		selfHealKeys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   o.Namespace,
				Subsystem:   o.Subsystem,
				Name:        "self_heal_keys_total",
				Help:        "Total number of missing keys written back after a read",
				ConstLabels: labels,
			},
			[]string{"provider"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   o.Namespace,
				Subsystem:   o.Subsystem,
				Name:        "http_request_duration_seconds",
				Help:        "Admin HTTP request duration in seconds",
				Buckets:     buckets,
				ConstLabels: labels,
			},
			[]string{"method", "path", "status"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   o.Namespace,
				Subsystem:   o.Subsystem,
				Name:        "http_requests_total",
				Help:        "Total number of admin HTTP requests",
				ConstLabels: labels,
			},
			[]string{"method", "path", "status"},
		),
	}

	collectors := c.collectors()
	for i, collector := range collectors {
		if err := c.reg.Register(collector); err != nil {
			for _, col := range collectors[:i] {
				c.reg.Unregister(col)
			}
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}

	return c, nil
}

func (c *prometheusCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.operationDuration,
		c.operationsTotal,
		c.selfHealKeys,
		c.requestDuration,
		c.requestsTotal,
	}
}

func (c *prometheusCollector) CollectOperation(provider, operation, result string, duration float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.operationDuration.WithLabelValues(provider, operation).Observe(duration)
	c.operationsTotal.WithLabelValues(provider, operation, result).Inc()
}

func (c *prometheusCollector) CollectSelfHeal(provider string, keys int) {
	if keys <= 0 {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.selfHealKeys.WithLabelValues(provider).Add(float64(keys))
}

func (c *prometheusCollector) CollectRequestMetrics(method, path string, status int, duration float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}

	c.requestDuration.With(labels).Observe(duration)
	c.requestsTotal.With(labels).Inc()
}

func (c *prometheusCollector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	for _, col := range c.collectors() {
		c.reg.Unregister(col)
	}
	return nil
}
