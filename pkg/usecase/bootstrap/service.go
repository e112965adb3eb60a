package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	domainhttp "github.com/damianoneill/go-appconfig/pkg/domain/http"
	domainlog "github.com/damianoneill/go-appconfig/pkg/domain/logging"
	domainmetrics "github.com/damianoneill/go-appconfig/pkg/domain/metrics"
	domaintracing "github.com/damianoneill/go-appconfig/pkg/domain/tracing"
)

// ServerHooks provides hooks for testing server lifecycle
type ServerHooks struct {
	ListenAndServe func() error                // Optional hook for testing server startup
	Shutdown       func(context.Context) error // Optional hook for testing server shutdown
}

// Service runs the admin endpoint for one settings object: probes that
// follow the settings' store health, the masked settings view, reload,
// the runtime log level and metrics.
type Service struct {
	logger    domainlog.Logger
	settings  Settings
	router    domainhttp.Router
	tracer    domaintracing.Provider
	metrics   domainmetrics.Collector
	startTime time.Time
	server    *http.Server
	deps      Dependencies
	hooks     *ServerHooks // Optional test hooks
	opts      Options

	stopWatch context.CancelFunc
	watchDone chan struct{}
	mu        sync.Mutex
}

// NewService initializes settings, which must be a pointer to a struct
// embedding appconfig.Configuration, and builds the admin router around it.
func NewService(settings Settings, opts Options, deps Dependencies, hooks *ServerHooks) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("invalid options: settings are required")
	}
	if err := validateOptions(&opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if err := validateDependencies(deps); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	svc := &Service{
		settings:  settings,
		deps:      deps,
		startTime: time.Now(),
		hooks:     hooks,
		opts:      opts,
	}

	if err := svc.initLogger(opts); err != nil {
		return nil, err
	}

	if err := svc.initTracing(opts); err != nil {
		return nil, err
	}

	if err := svc.initMetrics(opts); err != nil {
		return nil, err
	}

	if err := svc.initSettings(opts); err != nil {
		return nil, err
	}

	if err := svc.initRouter(opts); err != nil {
		return nil, err
	}

	return svc, nil
}

// createServer creates a new HTTP server with the given configuration
func (s *Service) createServer(cfg ServerOptions) *http.Server {
	return &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderSize,
	}
}

// Start watches the settings store when enabled and serves the admin
// router until Shutdown.
func (s *Service) Start() error {
	server := s.createServer(s.opts.Server)
	if s.opts.Server.PreStart != nil {
		if err := s.opts.Server.PreStart(server); err != nil {
			return fmt.Errorf("pre-start hook: %w", err)
		}
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	if s.opts.WatchSettings {
		s.startWatch()
	}

	s.logger.Info("Starting server", domainlog.Fields{
		"address": server.Addr,
		"tls":     s.opts.Server.TLSCertFile != "",
	})

	listenAndServe := server.ListenAndServe
	if s.opts.Server.TLSCertFile != "" {
		listenAndServe = func() error {
			return server.ListenAndServeTLS(s.opts.Server.TLSCertFile, s.opts.Server.TLSKeyFile)
		}
	}
	// Use test hook if provided, otherwise use standard ListenAndServe
	if s.hooks != nil && s.hooks.ListenAndServe != nil {
		listenAndServe = s.hooks.ListenAndServe
	}

	if err := listenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

func (s *Service) startWatch() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.stopWatch = cancel
	s.watchDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		err := s.settings.Watch(ctx, func(err error) {
			if err == nil {
				s.logger.Info("Settings changed on disk and were reloaded")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("Settings watch stopped", domainlog.Fields{
				"error": err.Error(),
			})
		}
	}()
}

// Shutdown gracefully stops the service
func (s *Service) Shutdown(ctx context.Context) error {
	s.logger.Info("Starting graceful shutdown")

	// Create timeout context using configured shutdown timeout
	ctx, cancel := context.WithTimeout(ctx, s.opts.Server.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	server, stopWatch, watchDone := s.server, s.stopWatch, s.watchDone
	s.mu.Unlock()

	if stopWatch != nil {
		stopWatch()
		select {
		case <-watchDone:
		case <-ctx.Done():
		}
	}

	// Use test hook if provided, otherwise use standard Shutdown
	var shutdown func(context.Context) error
	if server != nil {
		shutdown = server.Shutdown
	}
	if s.hooks != nil && s.hooks.Shutdown != nil {
		shutdown = s.hooks.Shutdown
	}

	if shutdown != nil {
		if err := shutdown(ctx); err != nil {
			s.logger.Error("Shutdown error", domainlog.Fields{
				"error": err.Error(),
			})
			return fmt.Errorf("server shutdown: %w", err)
		}
	}

	if closer, ok := s.router.(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(ctx); err != nil {
			s.logger.Error("Router close error", domainlog.Fields{
				"error": err.Error(),
			})
			return fmt.Errorf("router close: %w", err)
		}
	}

	if s.tracer != nil {
		if err := s.tracer.Shutdown(ctx); err != nil {
			s.logger.Error("Tracer shutdown error", domainlog.Fields{
				"error": err.Error(),
			})
			return fmt.Errorf("tracer shutdown: %w", err)
		}
	}

	s.logger.Info("Server stopped")
	return nil
}

// Router returns the service's router
func (s *Service) Router() domainhttp.Router {
	return s.router
}

// Settings returns the service's settings
func (s *Service) Settings() Settings {
	return s.settings
}

// Logger returns the service's logger
func (s *Service) Logger() domainlog.Logger {
	return s.logger
}

// validateOptions ensures all required options are set and defaults are applied
func validateOptions(opts *Options) error {
	if opts.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	if (opts.Server.TLSCertFile == "") != (opts.Server.TLSKeyFile == "") {
		return fmt.Errorf("TLS requires both a certificate and a key file")
	}

	// Set defaults
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.LogLevel == "" {
		opts.LogLevel = domainlog.InfoLevel
	}
	if opts.Server.ShutdownTimeout == 0 {
		opts.Server.ShutdownTimeout = 15 * time.Second
	}
	if opts.Server.ReadTimeout == 0 {
		opts.Server.ReadTimeout = 15 * time.Second
	}
	if opts.Server.WriteTimeout == 0 {
		opts.Server.WriteTimeout = 15 * time.Second
	}
	if opts.Server.IdleTimeout == 0 {
		opts.Server.IdleTimeout = 60 * time.Second
	}
	if opts.Server.Port == 0 {
		opts.Server.Port = 8080
	}
	if opts.TracingExporter == "" {
		opts.TracingExporter = domaintracing.GRPCExporter
	}
	if opts.TracingSampleRate == 0 {
		opts.TracingSampleRate = 1.0
	}
	if opts.ExcludeFromLogging == nil {
		opts.ExcludeFromLogging = []string{"/internal/health", "/internal/ready", "/internal/startup", "/metrics"}
	}
	if opts.ExcludeFromTracing == nil {
		opts.ExcludeFromTracing = []string{"/internal/*", "/metrics"}
	}

	return nil
}

func validateDependencies(deps Dependencies) error {
	if deps.LoggerFactory == nil {
		return fmt.Errorf("logger factory is required")
	}
	if deps.RouterFactory == nil {
		return fmt.Errorf("router factory is required")
	}
	return nil
}

// createProbeHandlers creates probe handlers for Kubernetes health checks.
// Readiness fails while the settings store reports an error.
func (s *Service) createProbeHandlers(opts Options, source domainhttp.SettingsSource) *domainhttp.ProbeHandlers {
	settingsReady := domainhttp.SettingsReadiness(source)
	return &domainhttp.ProbeHandlers{
		LivenessCheck: func() domainhttp.ProbeResponse {
			return domainhttp.NewProbeResponse(domainhttp.StatusOK, map[string]any{
				"version": opts.Version,
				"uptime":  time.Since(s.startTime).String(),
			})
		},
		ReadinessCheck: func() domainhttp.ProbeResponse {
			resp := settingsReady()
			if resp.Details == nil {
				resp.Details = map[string]any{}
			}
			resp.Details["startup_time"] = s.startTime.Format(time.RFC3339)
			return resp
		},
		StartupCheck: func() domainhttp.ProbeResponse {
			return domainhttp.NewProbeResponse(domainhttp.StatusOK, nil)
		},
	}
}
