// Package crypto encrypts selected string fields of settings objects while
// they are at rest.
//
// Values are sealed with XChaCha20-Poly1305. The key is derived from the
// shared secret with PBKDF2-SHA256 and a fixed salt so that every process
// holding the secret derives the same key. Ciphertext is stored as
// base64(nonce || sealed).
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"

	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
	"github.com/damianoneill/go-appconfig/pkg/domain/schema"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

const (
	// DefaultIterations is the PBKDF2 iteration count
	DefaultIterations = 10000

	// DefaultSalt is mixed into the key derivation
	DefaultSalt = "go-appconfig/field-crypto/v1"
)

// ErrInvalidCiphertext is returned by DecryptString for values that were
// not produced by EncryptString with the same key.
var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Options configures a FieldCrypto
type Options struct {
	Iterations int
	Salt       string
	Logger     logging.Logger
}

// Option modifies Options
type Option = options.Option[Options]

// WithIterations sets the PBKDF2 iteration count
func WithIterations(n int) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		if n < 1 {
			return fmt.Errorf("iterations must be positive, got %d", n)
		}
		o.Iterations = n
		return nil
	})
}

// WithSalt sets the key derivation salt
func WithSalt(salt string) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Salt = salt
		return nil
	})
}

// WithLogger sets the logger used for decrypt fallbacks
func WithLogger(l logging.Logger) Option {
	return options.OptionFunc[Options](func(o *Options) error {
		o.Logger = l
		return nil
	})
}

// FieldCrypto encrypts and decrypts the listed properties of settings
// objects in place. A FieldCrypto with an empty property list does nothing.
type FieldCrypto struct {
	properties []string
	aead       cipher.AEAD
	logger     logging.Logger
}

// New creates a FieldCrypto for a shared key and a comma delimited list of
// property names.
func New(key, properties string, opts ...Option) (*FieldCrypto, error) {
	o, err := options.Build(Options{Iterations: DefaultIterations, Salt: DefaultSalt}, opts...)
	if err != nil {
		return nil, fmt.Errorf("applying crypto options: %w", err)
	}

	fc := &FieldCrypto{
		properties: settings.ProviderOptions{PropertiesToEncrypt: properties}.EncryptedProperties(),
		logger:     logging.OrNop(o.Logger),
	}
	if len(fc.properties) == 0 {
		return fc, nil
	}
	if key == "" {
		return nil, settings.ErrMissingEncryptionKey
	}

	derived := pbkdf2.Key([]byte(key), []byte(o.Salt), o.Iterations, chacha20poly1305.KeySize, sha256.New)
	fc.aead, err = chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	return fc, nil
}

// FromOptions creates a FieldCrypto from provider options.
func FromOptions(po settings.ProviderOptions, opts ...Option) (*FieldCrypto, error) {
	if po.Logger != nil {
		opts = append([]Option{WithLogger(po.Logger)}, opts...)
	}
	return New(po.EncryptionKey, po.PropertiesToEncrypt, opts...)
}

// Enabled reports whether any property is flagged for encryption.
func (c *FieldCrypto) Enabled() bool {
	return c != nil && len(c.properties) > 0
}

// Encrypt replaces each flagged string field of target with ciphertext.
// Empty and non-string fields are left alone. A flagged name that is not a
// property of target fails the whole call before anything is changed.
func (c *FieldCrypto) Encrypt(target any) error {
	fields, err := c.fields(target)
	if err != nil || len(fields) == 0 {
		return err
	}
	for name, f := range fields {
		ct, err := c.EncryptString(f.String())
		if err != nil {
			return &settings.PropertyError{Property: name, Err: err}
		}
		f.SetString(ct)
	}
	return nil
}

// Decrypt replaces each flagged string field of target with plaintext.
// Values that do not decrypt are left unchanged and logged, so plaintext
// edited into a store by hand is read as is and encrypted on the next write.
func (c *FieldCrypto) Decrypt(target any) error {
	fields, err := c.fields(target)
	if err != nil || len(fields) == 0 {
		return err
	}
	for name, f := range fields {
		pt, err := c.DecryptString(f.String())
		if err != nil {
			c.logger.Warn("leaving undecryptable value as is", logging.Fields{
				"property": name,
				"error":    err,
			})
			continue
		}
		f.SetString(pt)
	}
	return nil
}

// Scope encrypts target, runs fn and restores the original plaintext on
// every exit path, including a panic in fn.
func (c *FieldCrypto) Scope(target any, fn func() error) error {
	fields, err := c.fields(target)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return fn()
	}

	saved := make(map[string]string, len(fields))
	for name, f := range fields {
		saved[name] = f.String()
	}
	defer func() {
		for name, f := range fields {
			f.SetString(saved[name])
		}
	}()

	for name, f := range fields {
		ct, err := c.EncryptString(f.String())
		if err != nil {
			return &settings.PropertyError{Property: name, Err: err}
		}
		f.SetString(ct)
	}
	return fn()
}

// EncryptString seals plaintext with a fresh random nonce.
func (c *FieldCrypto) EncryptString(plaintext string) (string, error) {
	if c.aead == nil {
		return "", settings.ErrMissingEncryptionKey
	}
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString opens a value produced by EncryptString.
func (c *FieldCrypto) DecryptString(ciphertext string) (string, error) {
	if c.aead == nil {
		return "", settings.ErrMissingEncryptionKey
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	if len(raw) < c.aead.NonceSize()+c.aead.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrInvalidCiphertext)
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	pt, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return string(pt), nil
}

// fields resolves the flagged, non-empty string fields of target keyed by
// property name.
func (c *FieldCrypto) fields(target any) (map[string]reflect.Value, error) {
	if !c.Enabled() {
		return nil, nil
	}
	s, v, err := schema.For(target)
	if err != nil {
		return nil, err
	}

	out := make(map[string]reflect.Value, len(c.properties))
	for _, name := range c.properties {
		p, ok := s.Lookup(name)
		if !ok {
			return nil, &settings.PropertyError{Property: name, Err: settings.ErrInvalidEncryptionProperty}
		}
		f := p.Value(v)
		if f.Kind() != reflect.String || f.String() == "" {
			continue
		}
		out[p.Name] = f
	}
	return out, nil
}
