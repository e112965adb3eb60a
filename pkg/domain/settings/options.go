package settings

import (
	"strings"

	"github.com/damianoneill/go-appconfig/pkg/domain/convert"
	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/options"
)

// DefaultSection is the section used when none is configured. It is
// implicit in .config documents and never registered in configSections.
const DefaultSection = "appSettings"

// ProviderOptions holds configuration shared by all providers.
type ProviderOptions struct {
	// ConfigFile is the external document path. For the config file
	// provider an empty value selects the app settings store instead.
	ConfigFile string

	// AppSettingsFile is the app settings store used by the config file
	// provider when ConfigFile is empty. Defaults to DefaultAppSettingsFile().
	AppSettingsFile string

	// Section groups the keys of one settings type within a store
	Section string

	// EncryptionKey is the shared secret for field encryption
	EncryptionKey string

	// PropertiesToEncrypt is a comma delimited list of property names
	PropertiesToEncrypt string

	// Binary selects the binary serializer for the XML file provider
	Binary bool

	// EnvPrefix enables environment overrides for app settings reads
	EnvPrefix string

	// SelfHeal writes missing keys back after a read. Enabled by default.
	SelfHeal bool

	// Data is the initial content of the string provider
	Data string

	// Logger receives provider diagnostics. Defaults to a no-op logger.
	Logger logging.Logger

	// Registry holds the type conversion rules. Defaults to convert.Default.
	Registry *convert.Registry
}

// Option modifies ProviderOptions
type Option = options.Option[ProviderOptions]

// DefaultOptions returns the defaults every provider starts from
func DefaultOptions() ProviderOptions {
	return ProviderOptions{
		Section:  DefaultSection,
		SelfHeal: true,
		Registry: convert.Default,
	}
}

// ShouldEncrypt reports whether name is in the encryption list. The match
// is case insensitive and exact: "Pass" does not match "Password".
func (o ProviderOptions) ShouldEncrypt(name string) bool {
	if o.PropertiesToEncrypt == "" {
		return false
	}
	list := "," + strings.ToLower(strings.ReplaceAll(o.PropertiesToEncrypt, " ", "")) + ","
	return strings.Contains(list, ","+strings.ToLower(name)+",")
}

// EncryptedProperties splits the encryption list into trimmed names.
func (o ProviderOptions) EncryptedProperties() []string {
	var out []string
	for _, n := range strings.Split(o.PropertiesToEncrypt, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// WithConfigFile sets the external document path
func WithConfigFile(path string) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		o.ConfigFile = path
		return nil
	})
}

// WithAppSettingsFile sets the app settings store path
func WithAppSettingsFile(path string) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		o.AppSettingsFile = path
		return nil
	})
}

// WithSection sets the section name. Empty names keep the default.
func WithSection(name string) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		if name != "" {
			o.Section = name
		}
		return nil
	})
}

// WithEncryption sets the key and the comma delimited property list
func WithEncryption(key, properties string) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		o.EncryptionKey = key
		o.PropertiesToEncrypt = properties
		return nil
	})
}

// WithBinary selects binary serialization for the XML file provider
func WithBinary(enabled bool) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		o.Binary = enabled
		return nil
	})
}

// WithEnvPrefix enables environment overrides, e.g. prefix "APP" maps
// section "Main" key "MaxItems" to APP_MAIN_MAXITEMS.
func WithEnvPrefix(prefix string) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		o.EnvPrefix = prefix
		return nil
	})
}

// WithSelfHeal toggles writing missing keys back after a read
func WithSelfHeal(enabled bool) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		o.SelfHeal = enabled
		return nil
	})
}

// WithData sets the string provider's content
func WithData(data string) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		o.Data = data
		return nil
	})
}

// WithLogger sets the diagnostics logger
func WithLogger(logger logging.Logger) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		o.Logger = logger
		return nil
	})
}

// WithRegistry sets the type conversion rules
func WithRegistry(r *convert.Registry) Option {
	return options.OptionFunc[ProviderOptions](func(o *ProviderOptions) error {
		o.Registry = r
		return nil
	})
}
