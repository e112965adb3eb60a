// Package appconfig provides Configuration, the base that application
// settings structs embed to load and persist themselves through a
// settings.Provider.
//
//	type ServiceSettings struct {
//		appconfig.Configuration
//		Endpoint string `validate:"required,url"`
//		Retries  int
//		Password string
//	}
//
//	s := &ServiceSettings{Retries: 3}
//	err := s.Initialize(s, appconfig.WithProviderOptions(
//		settings.WithEncryption(key, "Password"),
//	))
package appconfig

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/damianoneill/go-appconfig/pkg/adapter/provider"
	"github.com/damianoneill/go-appconfig/pkg/domain/convert"
	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
	"github.com/damianoneill/go-appconfig/pkg/domain/schema"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

var (
	// ErrNotInitialized is returned by operations called before Initialize
	ErrNotInitialized = errors.New("configuration not initialized")

	// ErrInvalidSettings wraps validation failures
	ErrInvalidSettings = errors.New("invalid settings")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Configuration is embedded in a settings struct. Its exported fields are
// reserved and never persisted.
type Configuration struct {
	// ErrorMessage is the message of the last failed operation, empty
	// after a successful one
	ErrorMessage string `xml:"-" json:"-" codec:"-" config:"-" validate:"-"`

	// Provider is the store the settings are persisted in
	Provider settings.Provider `xml:"-" json:"-" codec:"-" config:"-" validate:"-"`

	bindMu sync.Mutex
	ready  atomic.Bool
	mu     sync.RWMutex
	self        any
	opts        Options
	logger      logging.Logger
}

// Initialize binds the configuration to self, the settings struct that
// embeds it, creates the provider and reads the settings once. Concurrent
// callers wait until the provider is bound and then return nil, as do
// later calls and calls made from within the initial read. Initialize
// must not be called from the provider factory.
//
// A failed initial read is returned but the configuration stays
// initialized with self holding its defaults, so callers may continue.
// When the provider cannot be created the next call tries again.
func (c *Configuration) Initialize(self any, opts ...Option) error {
	if c.ready.Load() {
		return nil
	}
	c.bindMu.Lock()
	if c.ready.Load() {
		c.bindMu.Unlock()
		return nil
	}
	err := c.bind(self, opts)
	c.bindMu.Unlock()
	if err != nil {
		return err
	}

	c.logger.Debug("settings initialized", logging.Fields{
		"section": c.Provider.Options().Section,
	})
	return c.Read()
}

func (c *Configuration) bind(self any, opts []Option) error {
	s, _, err := schema.For(self)
	if err != nil {
		return err
	}
	o, err := options.Build(defaultOptions(), opts...)
	if err != nil {
		return fmt.Errorf("applying configuration option: %w", err)
	}
	if o.Section == "" {
		o.Section = s.Type.Name()
	}
	logger := logging.OrNop(o.Logger).With(logging.Fields{"settings": s.Type.Name()})

	p := o.Provider
	if p == nil {
		if p, err = newProvider(o, logger); err != nil {
			return err
		}
	}
	if o.Instrumentation != nil {
		if p, err = provider.Instrument(p, o.Instrumentation...); err != nil {
			return fmt.Errorf("instrumenting provider: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.Provider = p
	c.self = self
	c.opts = o
	c.logger = logger
	c.ready.Store(true)
	return nil
}

func newProvider(o Options, logger logging.Logger) (settings.Provider, error) {
	kind := o.Kind
	popts := []settings.Option{
		settings.WithSection(o.Section),
		settings.WithLogger(logger),
	}
	if o.ConfigData != "" {
		if kind == "" {
			kind = settings.StringKind
		}
		popts = append(popts, settings.WithData(o.ConfigData))
	}
	if kind == "" {
		kind = settings.ConfigFileKind
	}
	p, err := o.Factory.NewProvider(kind, append(popts, o.ProviderOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("creating settings provider: %w", err)
	}
	return p, nil
}

// Initialized reports whether Initialize has bound a provider
func (c *Configuration) Initialized() bool {
	return c.ready.Load()
}

// Read loads the settings from the store, replacing the current values.
func (c *Configuration) Read() error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	c.mu.Lock()
	err := c.Provider.Read(c.self)
	c.ErrorMessage = c.Provider.ErrorMessage()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if c.opts.Validate {
		return c.Validate()
	}
	return nil
}

// Write persists the current values.
func (c *Configuration) Write() error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.Provider.Write(c.self)
	c.ErrorMessage = c.Provider.ErrorMessage()
	return err
}

// ReadString replaces the current values with those serialized in data.
// The values are left unchanged when data cannot be decoded.
func (c *Configuration) ReadString(data string) error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.Provider.ReadString(data, c.self)
	c.ErrorMessage = c.Provider.ErrorMessage()
	return err
}

// WriteString serializes the current values with flagged fields encrypted.
func (c *Configuration) WriteString() (string, error) {
	if !c.Initialized() {
		return "", ErrNotInitialized
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out, err := c.Provider.WriteString(c.self)
	c.ErrorMessage = c.Provider.ErrorMessage()
	return out, err
}

// Validate checks the `validate` struct tags of the settings struct. A
// failure is recorded in ErrorMessage.
func (c *Configuration) Validate() error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := validate.Struct(c.self); err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		c.ErrorMessage = err.Error()
		return err
	}
	return nil
}

// Masked returns the current values keyed by property name. Values are
// formatted the way they are stored and then passed through strategy, the
// provider's default mask strategy when nil.
func (c *Configuration) Masked(strategy settings.MaskStrategy) map[string]any {
	if !c.Initialized() {
		return nil
	}
	popts := c.Provider.Options()
	if strategy == nil {
		strategy = settings.NewDefaultMaskStrategy(popts)
	}
	registry := popts.Registry
	if registry == nil {
		registry = convert.Default
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	s, v, err := schema.For(c.self)
	if err != nil {
		return nil
	}
	out := make(map[string]any, len(s.Properties))
	for _, p := range s.Properties {
		out[p.Name] = strategy.MaskValue(p.Name, display(registry, p, p.Value(v)))
	}
	return out
}

func display(r *convert.Registry, p schema.Property, v reflect.Value) any {
	if p.List {
		if items, err := r.FormatList(v); err == nil {
			return items
		}
	} else if s, err := r.Format(v); err == nil {
		return s
	}
	return v.Interface()
}

// Watch reads the settings again whenever the store changes, until ctx is
// done. Bursts of changes within the debounce window cause one read. Each
// onReload callback receives the result of the read.
func (c *Configuration) Watch(ctx context.Context, onReload ...func(error)) error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	w, ok := c.Provider.(settings.Watcher)
	if !ok {
		return settings.NewStoreError("watch", "", settings.ErrUnsupportedOperation, nil)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		if ctx.Err() != nil {
			return
		}
		err := c.Read()
		if err != nil {
			c.logger.Warn("settings reload failed", logging.Fields{"error": err})
		} else {
			c.logger.Info("settings reloaded")
		}
		for _, fn := range onReload {
			fn(err)
		}
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	return w.Watch(ctx, func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(c.opts.Debounce, reload)
	})
}
