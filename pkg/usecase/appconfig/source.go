package appconfig

import (
	domainhttp "github.com/damianoneill/go-appconfig/pkg/domain/http"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// Source exposes the configuration to the admin router. strategy may be
// nil for the provider's default masking.
func (c *Configuration) Source(strategy settings.MaskStrategy) domainhttp.SettingsSource {
	return &source{config: c, strategy: strategy}
}

type source struct {
	config   *Configuration
	strategy settings.MaskStrategy
}

func (s *source) Masked() map[string]any {
	return s.config.Masked(s.strategy)
}

func (s *source) Reload() error {
	return s.config.Read()
}

func (s *source) ErrorMessage() string {
	if !s.config.Initialized() {
		return ErrNotInitialized.Error()
	}
	s.config.mu.RLock()
	defer s.config.mu.RUnlock()
	return s.config.ErrorMessage
}
