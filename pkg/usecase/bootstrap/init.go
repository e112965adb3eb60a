package bootstrap

import (
	"fmt"

	"github.com/damianoneill/go-appconfig/pkg/adapter/provider"
	domainhttp "github.com/damianoneill/go-appconfig/pkg/domain/http"
	domainlog "github.com/damianoneill/go-appconfig/pkg/domain/logging"
	domainmetrics "github.com/damianoneill/go-appconfig/pkg/domain/metrics"
	domaintracing "github.com/damianoneill/go-appconfig/pkg/domain/tracing"
	"github.com/damianoneill/go-appconfig/pkg/usecase/appconfig"
)

func (s *Service) initLogger(opts Options) error {
	fields := domainlog.Fields{"version": opts.Version}
	for k, v := range opts.LogFields {
		fields[k] = v
	}
	logger, err := s.deps.LoggerFactory.NewLogger(
		domainlog.WithLevel(opts.LogLevel),
		domainlog.WithServiceName(opts.ServiceName),
		domainlog.WithFields(fields),
	)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	s.logger = logger
	return nil
}

func (s *Service) initTracing(opts Options) error {
	if opts.TracingEndpoint == "" || s.deps.TracerFactory == nil {
		return nil
	}

	tracingOpts := []domaintracing.Option{
		domaintracing.WithServiceName(opts.ServiceName),
		domaintracing.WithServiceVersion(opts.Version),
		domaintracing.WithCollectorEndpoint(opts.TracingEndpoint),
		domaintracing.WithExporterType(opts.TracingExporter),
		domaintracing.WithInsecure(true),
		domaintracing.WithSamplingRate(opts.TracingSampleRate),
	}
	if len(opts.TracingPropagators) > 0 {
		tracingOpts = append(tracingOpts, domaintracing.WithPropagatorTypes(opts.TracingPropagators))
	} else {
		tracingOpts = append(tracingOpts, domaintracing.WithDefaultPropagators())
	}

	tp, err := s.deps.TracerFactory.NewProvider(tracingOpts...)
	if err != nil {
		return fmt.Errorf("creating tracer: %w", err)
	}
	s.tracer = tp
	return nil
}

func (s *Service) initMetrics(opts Options) error {
	if s.deps.MetricsFactory == nil {
		return nil
	}
	collector, err := s.deps.MetricsFactory.NewCollector(
		domainmetrics.WithServiceName(opts.ServiceName),
		domainmetrics.WithLabels(map[string]string{
			"version": opts.Version,
		}),
	)
	if err != nil {
		return fmt.Errorf("creating metrics collector: %w", err)
	}
	s.metrics = collector
	return nil
}

// initSettings binds the settings to an instrumented provider. A store
// failure on the initial read is logged and left to the readiness probe;
// anything that prevents initialization is returned.
func (s *Service) initSettings(opts Options) error {
	instrument := []provider.InstrumentOption{
		provider.WithInstrumentLogger(s.logger),
	}
	if s.metrics != nil {
		instrument = append(instrument, provider.WithCollector(s.metrics))
	}
	if s.tracer != nil {
		instrument = append(instrument, provider.WithTracerProvider(s.tracer.TracerProvider()))
	}

	settingsOpts := append([]appconfig.Option{
		appconfig.WithLogger(s.logger),
		appconfig.WithInstrumentation(instrument...),
	}, opts.SettingsOptions...)

	err := s.settings.Initialize(s.settings, settingsOpts...)
	if !s.settings.Initialized() {
		return fmt.Errorf("initializing settings: %w", err)
	}
	if err != nil {
		s.logger.Warn("Settings read failed, continuing with defaults", domainlog.Fields{
			"error": err.Error(),
		})
	}
	return nil
}

func (s *Service) initRouter(opts Options) error {
	source := s.settings.Source(opts.MaskStrategy)
	probeHandlers := opts.ProbeHandlers
	if probeHandlers == nil {
		probeHandlers = s.createProbeHandlers(opts, source)
	}

	routerOpts := []domainhttp.Option{
		domainhttp.WithService(opts.ServiceName, opts.Version),
		domainhttp.WithLogger(s.logger),
		domainhttp.WithProbeHandlers(probeHandlers),
		domainhttp.WithSettings(source),
		domainhttp.WithObservabilityExclusions(opts.ExcludeFromLogging, opts.ExcludeFromTracing),
	}

	if s.metrics != nil {
		routerOpts = append(routerOpts, domainhttp.WithMetricsFactory(sharedCollector{s.metrics}))
	}

	if s.tracer != nil {
		routerOpts = append(routerOpts, domainhttp.WithTracingProvider(s.tracer))
	}

	if configurable, ok := s.logger.(domainlog.RuntimeConfigurable); ok {
		routerOpts = append(routerOpts, domainhttp.WithLevelHandler(configurable.GetConfigHandler()))
		s.logger.Info("Registered logger config endpoint", domainlog.Fields{
			"path": "/internal/logging",
		})
	}

	router, err := s.deps.RouterFactory.NewRouter(routerOpts...)
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}
	s.router = router
	return nil
}

// sharedCollector hands the service collector to the router so provider
// and request metrics are registered once.
type sharedCollector struct {
	collector domainmetrics.Collector
}

func (f sharedCollector) NewCollector(...domainmetrics.Option) (domainmetrics.Collector, error) {
	return f.collector, nil
}
