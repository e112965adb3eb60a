package provider

import (
	"context"
	"fmt"

	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/schema"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// XMLFileProvider stores the whole settings object in one file, as XML or,
// with WithBinary, as MessagePack.
type XMLFileProvider struct {
	*base
	lock *fileLock
}

var (
	_ settings.Provider = (*XMLFileProvider)(nil)
	_ settings.Watcher  = (*XMLFileProvider)(nil)
)

// NewXMLFileProvider creates an XMLFileProvider. WithConfigFile is required.
func NewXMLFileProvider(opts ...settings.Option) (*XMLFileProvider, error) {
	b, err := newBase(string(settings.XMLFileKind), opts)
	if err != nil {
		return nil, err
	}
	if b.opts.ConfigFile == "" {
		return nil, fmt.Errorf("xml file provider: config file path is required")
	}
	return &XMLFileProvider{base: b, lock: newFileLock(b.opts.ConfigFile)}, nil
}

// Path is the store location
func (p *XMLFileProvider) Path() string {
	return p.opts.ConfigFile
}

// Read decodes the file into target. A missing file is created from the
// current values of target when self-healing is enabled. A file that
// cannot be decoded is an error and is left alone.
func (p *XMLFileProvider) Read(target any) error {
	data, exists, err := readFile(p.Path())
	if err != nil {
		return p.done(settings.NewStoreError("read", p.Path(), settings.ErrStoreUnavailable, err))
	}
	if !exists {
		if !p.opts.SelfHeal {
			return p.done(nil)
		}
		s, _, err := schema.For(target)
		if err != nil {
			return p.done(err)
		}
		p.logger.Info("creating settings file from defaults", logging.Fields{"path": p.Path()})
		p.selfHealed(len(s.Properties))
		return p.Write(target)
	}

	err = decodeInto(target, func(scratch any) error {
		if p.opts.Binary {
			return unmarshalBinary(data, scratch)
		}
		return unmarshalXML(data, scratch)
	})
	if err != nil {
		return p.done(wrapDecode("read", p.Path(), err))
	}
	return p.done(p.crypto.Decrypt(target))
}

// Write serializes source with flagged fields encrypted and replaces the
// file atomically.
func (p *XMLFileProvider) Write(source any) error {
	err := p.lock.with(func() error {
		return p.crypto.Scope(source, func() error {
			var data []byte
			var err error
			if p.opts.Binary {
				data, err = marshalBinary(source)
			} else {
				data, err = marshalXML(source)
			}
			if err != nil {
				return err
			}
			if err := writeFileAtomic(p.Path(), data); err != nil {
				return settings.NewStoreError("write", p.Path(), settings.ErrStoreUnavailable, err)
			}
			return nil
		})
	})
	return p.done(err)
}

// Watch calls onChange whenever the file changes until ctx is done.
func (p *XMLFileProvider) Watch(ctx context.Context, onChange func()) error {
	return watchFile(ctx, p.Path(), p.logger, onChange)
}
