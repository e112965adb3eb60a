// Package provider implements settings.Provider over an app settings file
// or external .config document (ConfigFileProvider), a whole object XML or
// binary file (XMLFileProvider) and an in-memory string (StringProvider).
package provider

import (
	"fmt"
	"sync"

	"github.com/damianoneill/go-appconfig/pkg/adapter/crypto"
	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// base carries what every provider shares: options, field crypto, the
// logger and the sticky error message.
type base struct {
	opts   settings.ProviderOptions
	crypto *crypto.FieldCrypto
	logger logging.Logger

	mu     sync.RWMutex
	errMsg string
	healed func(keys int)
}

func newBase(name string, opts []settings.Option) (*base, error) {
	o, err := settings.ResolveOptions(opts...)
	if err != nil {
		return nil, err
	}
	o.Logger = logging.OrNop(o.Logger).With(logging.Fields{"provider": name})

	fc, err := crypto.FromOptions(o)
	if err != nil {
		return nil, fmt.Errorf("configuring field encryption: %w", err)
	}
	return &base{opts: o, crypto: fc, logger: o.Logger}, nil
}

// Options returns the effective provider configuration
func (b *base) Options() settings.ProviderOptions {
	return b.opts
}

// ErrorMessage returns the message of the most recent failure, or "" when
// the last Read or Write succeeded.
func (b *base) ErrorMessage() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.errMsg
}

// Encrypt replaces flagged fields of target with ciphertext
func (b *base) Encrypt(target any) error {
	return b.track(b.crypto.Encrypt(target))
}

// Decrypt replaces flagged fields of target with plaintext
func (b *base) Decrypt(target any) error {
	return b.track(b.crypto.Decrypt(target))
}

// ReadString populates target from the XML form produced by WriteString.
func (b *base) ReadString(data string, target any) error {
	if data == "" {
		return b.done(settings.NewStoreError("read string", "", settings.ErrStoreUnavailable, fmt.Errorf("no data")))
	}
	err := decodeInto(target, func(scratch any) error {
		return unmarshalXML([]byte(data), scratch)
	})
	if err != nil {
		return b.done(wrapDecode("read string", "", err))
	}
	return b.done(b.crypto.Decrypt(target))
}

// WriteString serializes source to XML with flagged fields encrypted. The
// in-memory values are plaintext again when it returns.
func (b *base) WriteString(source any) (string, error) {
	var out []byte
	err := b.crypto.Scope(source, func() error {
		var err error
		out, err = marshalXML(source)
		return err
	})
	if err != nil {
		return "", b.done(err)
	}
	return string(out), b.done(nil)
}

func (b *base) setSelfHealHook(fn func(keys int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healed = fn
}

// selfHealed reports that keys missing from the store are being written.
func (b *base) selfHealed(keys int) {
	b.mu.RLock()
	fn := b.healed
	b.mu.RUnlock()
	if fn != nil {
		fn(keys)
	}
}

// track records a failure without clearing a previous one.
func (b *base) track(err error) error {
	if err != nil {
		b.mu.Lock()
		b.errMsg = err.Error()
		b.mu.Unlock()
	}
	return err
}

// done ends a top level operation: failures are recorded and success
// clears the sticky message.
func (b *base) done(err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.errMsg = err.Error()
	} else {
		b.errMsg = ""
	}
	return err
}
