package appconfig

import (
	"fmt"
	"time"

	"github.com/damianoneill/go-appconfig/pkg/adapter/provider"
	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// DefaultDebounce is how long Watch waits for a store to settle before
// reloading.
const DefaultDebounce = 100 * time.Millisecond

// Options configures Initialize
type Options struct {
	// Provider is used as is when set
	Provider settings.Provider

	// Factory creates the provider when none is given
	Factory settings.Factory

	// Kind selects the provider the factory creates, ConfigFileKind by
	// default and StringKind when ConfigData is set
	Kind settings.Kind

	// Section overrides the section name, the settings type name by default
	Section string

	// ConfigData selects a string provider over this content
	ConfigData string

	// ProviderOptions are passed to the factory
	ProviderOptions []settings.Option

	// Instrumentation wraps the provider with provider.Instrument when set
	Instrumentation []provider.InstrumentOption

	// Validate runs Validate after every successful Read
	Validate bool

	// Logger receives lifecycle and reload diagnostics
	Logger logging.Logger

	// Debounce is the Watch settle time
	Debounce time.Duration
}

// Option modifies Options
type Option = options.Option[Options]

func defaultOptions() Options {
	return Options{
		Factory:  provider.NewFactory(),
		Debounce: DefaultDebounce,
	}
}

// WithProvider uses p instead of creating a provider
func WithProvider(p settings.Provider) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Provider = p
		return nil
	})
}

// WithFactory sets the provider factory
func WithFactory(f settings.Factory) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if f == nil {
			return fmt.Errorf("provider factory cannot be nil")
		}
		o.Factory = f
		return nil
	})
}

// WithKind selects the provider kind the factory creates
func WithKind(kind settings.Kind) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Kind = kind
		return nil
	})
}

// WithSection overrides the section name
func WithSection(name string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Section = name
		return nil
	})
}

// WithConfigData reads the settings from data with a string provider
func WithConfigData(data string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.ConfigData = data
		return nil
	})
}

// WithProviderOptions adds options for the created provider
func WithProviderOptions(opts ...settings.Option) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.ProviderOptions = append(o.ProviderOptions, opts...)
		return nil
	})
}

// WithInstrumentation wraps the provider with logging, metrics and tracing
func WithInstrumentation(opts ...provider.InstrumentOption) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Instrumentation = append(o.Instrumentation, opts...)
		if o.Instrumentation == nil {
			o.Instrumentation = []provider.InstrumentOption{}
		}
		return nil
	})
}

// WithValidation enables struct validation after reads
func WithValidation(enabled bool) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Validate = enabled
		return nil
	})
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Logger = l
		return nil
	})
}

// WithDebounce sets the Watch settle time
func WithDebounce(d time.Duration) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if d < 0 {
			return fmt.Errorf("debounce must not be negative")
		}
		o.Debounce = d
		return nil
	})
}
