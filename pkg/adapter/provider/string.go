package provider

import (
	"sync"

	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// StringProvider reads settings from an in-memory XML string. It has no
// backing store, so Write is unsupported; WriteString replaces the data.
type StringProvider struct {
	*base

	dataMu sync.RWMutex
	data   string
}

var _ settings.Provider = (*StringProvider)(nil)

// NewStringProvider creates a StringProvider over the WithData content.
func NewStringProvider(opts ...settings.Option) (*StringProvider, error) {
	b, err := newBase(string(settings.StringKind), opts)
	if err != nil {
		return nil, err
	}
	return &StringProvider{base: b, data: b.opts.Data}, nil
}

// Data returns the current content
func (p *StringProvider) Data() string {
	p.dataMu.RLock()
	defer p.dataMu.RUnlock()
	return p.data
}

// Read populates target from the current content.
func (p *StringProvider) Read(target any) error {
	return p.ReadString(p.Data(), target)
}

// Write always fails with ErrUnsupportedOperation.
func (p *StringProvider) Write(any) error {
	return p.done(settings.NewStoreError("write", "", settings.ErrUnsupportedOperation, nil))
}

// WriteString serializes source and keeps the result as the new content.
func (p *StringProvider) WriteString(source any) (string, error) {
	out, err := p.base.WriteString(source)
	if err != nil {
		return "", err
	}
	p.dataMu.Lock()
	p.data = out
	p.dataMu.Unlock()
	return out, nil
}
