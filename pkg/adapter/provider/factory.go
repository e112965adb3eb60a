package provider

import (
	"fmt"

	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

var _ settings.Factory = (*Factory)(nil)

// Factory creates providers by kind. Defaults are applied before the
// options given to NewProvider.
type Factory struct {
	defaults []settings.Option
}

// NewFactory creates a Factory
func NewFactory(defaults ...settings.Option) *Factory {
	return &Factory{defaults: defaults}
}

// NewProvider implements settings.Factory
func (f *Factory) NewProvider(kind settings.Kind, opts ...settings.Option) (settings.Provider, error) {
	all := append(append([]settings.Option(nil), f.defaults...), opts...)

	var (
		p   settings.Provider
		err error
	)
	switch kind {
	case settings.ConfigFileKind:
		p, err = NewConfigFileProvider(all...)
	case settings.XMLFileKind:
		p, err = NewXMLFileProvider(all...)
	case settings.StringKind:
		p, err = NewStringProvider(all...)
	default:
		return nil, fmt.Errorf("unknown provider kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", kind, err)
	}
	return p, nil
}
