// Package settings defines the contract between typed settings objects and
// the stores they are persisted in.
//
// A settings object is any pointer to a struct. Providers walk its exported
// fields (see package schema), read or write them against one backing store,
// and encrypt the fields named in ProviderOptions.PropertiesToEncrypt while
// they are at rest.
package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/damianoneill/go-appconfig/pkg/domain/options"
)

//go:generate mockgen -destination=mocks/mock_provider.go -package=mocks github.com/damianoneill/go-appconfig/pkg/domain/settings Provider,Factory

// Provider reads and writes settings objects against one store.
//
// Failures are returned as errors. The message of the most recent failure
// is also kept and available from ErrorMessage until the next successful
// Read or Write.
type Provider interface {
	// Read populates target, a pointer to a settings struct, in place
	Read(target any) error

	// Write persists the current values of source
	Write(source any) error

	// ReadString populates target from a serialized string
	ReadString(data string, target any) error

	// WriteString serializes source, encrypting flagged fields
	WriteString(source any) (string, error)

	// Encrypt replaces flagged fields of target with ciphertext
	Encrypt(target any) error

	// Decrypt replaces flagged fields of target with plaintext
	Decrypt(target any) error

	// ErrorMessage returns the sticky message of the last failure
	ErrorMessage() string

	// Options returns the effective provider configuration
	Options() ProviderOptions
}

// Watcher is implemented by providers backed by a file that can notify
// about external changes.
type Watcher interface {
	// Watch calls onChange after the store changes, until ctx is done
	Watch(ctx context.Context, onChange func()) error
}

// Kind selects a provider implementation
type Kind string

const (
	// ConfigFileKind reads app settings or an external .config document
	ConfigFileKind Kind = "configfile"

	// XMLFileKind serializes the whole object to one file
	XMLFileKind Kind = "xmlfile"

	// StringKind reads from an in-memory string
	StringKind Kind = "string"
)

// Factory creates providers
type Factory interface {
	NewProvider(kind Kind, opts ...Option) (Provider, error)
}

// ReadNew allocates a zero T and reads it through p.
func ReadNew[T any](p Provider) (*T, error) {
	target := new(T)
	if err := p.Read(target); err != nil {
		return nil, err
	}
	return target, nil
}

// ResolveOptions applies opts on top of DefaultOptions.
func ResolveOptions(opts ...Option) (ProviderOptions, error) {
	o, err := options.Build(DefaultOptions(), opts...)
	if err != nil {
		return ProviderOptions{}, fmt.Errorf("applying provider option: %w", err)
	}
	return o, nil
}

// DefaultAppSettingsFile is the app settings store beside the running
// executable: "<executable>.settings.yaml".
func DefaultAppSettingsFile() string {
	exe, err := os.Executable()
	if err != nil {
		return "appsettings.yaml"
	}
	return strings.TrimSuffix(exe, filepath.Ext(exe)) + ".settings.yaml"
}
