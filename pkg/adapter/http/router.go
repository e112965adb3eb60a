// Package http provides a Chi-based implementation of the admin router.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domainhttp "github.com/damianoneill/go-appconfig/pkg/domain/http"
	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/metrics"
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
)

// Router implements the domain Router interface using Chi
type Router struct {
	chi.Router
	opts    domainhttp.RouterOptions
	metrics metrics.Collector
}

var _ domainhttp.Factory = (*Factory)(nil)

// Factory creates Chi-based router instances
type Factory struct{}

// NewFactory creates a new Chi router factory
func NewFactory() *Factory {
	return &Factory{}
}

// NewRouter implements the domain Factory interface
func (f *Factory) NewRouter(opts ...domainhttp.Option) (domainhttp.Router, error) {
	o, err := options.Build(domainhttp.RouterOptions{}, opts...)
	if err != nil {
		return nil, fmt.Errorf("applying router option: %w", err)
	}
	if o.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}
	if o.ProbeHandlers == nil {
		if o.Settings != nil {
			o.ProbeHandlers = domainhttp.SettingsProbeHandlers(o.Settings)
		} else {
			o.ProbeHandlers = domainhttp.DefaultProbeHandlers()
		}
	}

	var collector metrics.Collector
	if o.MetricsFactory != nil {
		collector, err = o.MetricsFactory.NewCollector(
			metrics.WithServiceName(o.ServiceName),
			metrics.WithLabels(map[string]string{
				"version": o.ServiceVersion,
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("creating metrics collector: %w", err)
		}
	}

	return newRouter(o, collector), nil
}

func newRouter(opts domainhttp.RouterOptions, collector metrics.Collector) *Router {
	r := &Router{
		Router:  chi.NewRouter(),
		opts:    opts,
		metrics: collector,
	}
	r.configureMiddleware()
	r.configureRoutes()
	return r
}

// configureMiddleware installs middleware outermost first: request
// plumbing, tracing so the span covers logging and metrics, then those.
func (r *Router) configureMiddleware() {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Timeout(30*time.Second),
	)
	if r.opts.TracingProvider != nil {
		r.Use(r.tracingMiddleware())
	}
	if r.opts.Logger != nil {
		r.Use(r.loggingMiddleware())
	}
	if r.metrics != nil {
		r.Use(r.metricsMiddleware())
	}
}

func (r *Router) configureRoutes() {
	internal := chi.NewRouter()

	internal.Get("/health", r.probeHandler(r.opts.ProbeHandlers.LivenessCheck))
	internal.Get("/ready", r.probeHandler(r.opts.ProbeHandlers.ReadinessCheck))
	internal.Get("/startup", r.probeHandler(r.opts.ProbeHandlers.StartupCheck))

	if r.opts.Settings != nil {
		internal.Get("/settings", r.settingsHandler)
		internal.Post("/settings/reload", r.reloadHandler)
	}
	if r.opts.LevelHandler != nil {
		internal.Handle("/logging", r.opts.LevelHandler)
	}

	r.Mount("/internal", internal)

	if r.metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
}

func (r *Router) probeHandler(check domainhttp.ProbeCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		resp := check()
		status := http.StatusOK
		if resp.Status != domainhttp.StatusOK {
			status = http.StatusServiceUnavailable
		}
		r.writeJSON(w, req, status, resp)
	}
}

func (r *Router) settingsHandler(w http.ResponseWriter, req *http.Request) {
	body := map[string]any{
		"settings": r.opts.Settings.Masked(),
	}
	if msg := r.opts.Settings.ErrorMessage(); msg != "" {
		body["error"] = msg
	}
	r.writeJSON(w, req, http.StatusOK, body)
}

func (r *Router) reloadHandler(w http.ResponseWriter, req *http.Request) {
	if err := r.opts.Settings.Reload(); err != nil {
		r.writeJSON(w, req, http.StatusInternalServerError, map[string]any{
			"status": domainhttp.StatusFailed,
			"error":  err.Error(),
		})
		return
	}
	r.writeJSON(w, req, http.StatusOK, map[string]any{
		"status":   domainhttp.StatusOK,
		"settings": r.opts.Settings.Masked(),
	})
}

func (r *Router) writeJSON(w http.ResponseWriter, req *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && r.opts.Logger != nil {
		r.opts.Logger.WithContext(req.Context()).Error("failed to write response", logging.Fields{
			"path":  req.URL.Path,
			"error": err,
		})
	}
}

func (r *Router) loggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if matches(req.URL.Path, r.opts.ExcludeFromLogging) {
				next.ServeHTTP(w, req)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)

			defer func() {
				r.opts.Logger.WithContext(req.Context()).Info("HTTP Request", logging.Fields{
					"method":     req.Method,
					"path":       req.URL.Path,
					"status":     ww.Status(),
					"duration":   time.Since(start).String(),
					"size":       ww.BytesWritten(),
					"request_id": middleware.GetReqID(req.Context()),
				})
			}()

			next.ServeHTTP(ww, req)
		})
	}
}

func (r *Router) tracingMiddleware() func(http.Handler) http.Handler {
	service := r.opts.ServiceName
	tp := r.opts.TracingProvider.TracerProvider()

	return func(next http.Handler) http.Handler {
		traced := otelhttp.NewHandler(next, "admin",
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
				return fmt.Sprintf("%s.http %s %s", service, req.Method, req.URL.Path)
			}),
		)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if matches(req.URL.Path, r.opts.ExcludeFromTracing) {
				next.ServeHTTP(w, req)
				return
			}
			traced.ServeHTTP(w, req)
		})
	}
}

func (r *Router) metricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if matches(req.URL.Path, r.opts.ExcludeFromLogging) {
				next.ServeHTTP(w, req)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)

			r.metrics.CollectRequestMetrics(req.Method, routePattern(req), ww.Status(), time.Since(start).Seconds())
		})
	}
}

// routePattern keeps metric label cardinality bounded by preferring the
// matched chi pattern over the raw path.
func routePattern(req *http.Request) string {
	if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return req.URL.Path
}

// Close releases the metrics collector
func (r *Router) Close(_ context.Context) error {
	if r.metrics == nil {
		return nil
	}
	if err := r.metrics.Close(); err != nil {
		return fmt.Errorf("closing metrics collector: %w", err)
	}
	return nil
}
