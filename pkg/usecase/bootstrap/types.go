package bootstrap

import (
	"context"
	"net/http"
	"time"

	domainhttp "github.com/damianoneill/go-appconfig/pkg/domain/http"
	domainlog "github.com/damianoneill/go-appconfig/pkg/domain/logging"
	domainmetrics "github.com/damianoneill/go-appconfig/pkg/domain/metrics"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
	domaintracing "github.com/damianoneill/go-appconfig/pkg/domain/tracing"
	"github.com/damianoneill/go-appconfig/pkg/usecase/appconfig"
)

// Settings is a settings struct embedding appconfig.Configuration, passed
// by pointer.
type Settings interface {
	Initialize(self any, opts ...appconfig.Option) error
	Initialized() bool
	Source(strategy settings.MaskStrategy) domainhttp.SettingsSource
	Watch(ctx context.Context, onReload ...func(error)) error
}

// Dependencies contains all external dependencies required by the service.
type Dependencies struct {
	LoggerFactory  domainlog.Factory
	RouterFactory  domainhttp.Factory
	TracerFactory  domaintracing.Factory
	MetricsFactory domainmetrics.Factory
}

type ServerOptions struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxHeaderSize   int

	TLSCertFile string
	TLSKeyFile  string

	// PreStart may adjust the server before it listens
	PreStart func(*http.Server) error
}

// Options configures the bootstrap service.
type Options struct {
	// Service Identity
	ServiceName string
	Version     string

	// Settings
	SettingsOptions []appconfig.Option
	WatchSettings   bool
	MaskStrategy    settings.MaskStrategy

	// Logging
	LogLevel  domainlog.Level
	LogFields domainlog.Fields

	// HTTP Server
	Server ServerOptions

	// Router/Observability
	ExcludeFromLogging []string
	ExcludeFromTracing []string
	ProbeHandlers      *domainhttp.ProbeHandlers

	// Tracing
	TracingEndpoint    string
	TracingExporter    domaintracing.ExporterType
	TracingSampleRate  float64
	TracingPropagators []string
}
