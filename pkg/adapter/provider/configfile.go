package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/damianoneill/go-appconfig/pkg/domain/logging"
	"github.com/damianoneill/go-appconfig/pkg/domain/schema"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// ConfigFileProvider keeps one section of settings in either the app
// settings file (a viper managed YAML, JSON or TOML file) or, when
// ConfigFile is set, an external .config XML document.
type ConfigFileProvider struct {
	*base
	lock *fileLock
}

var (
	_ settings.Provider = (*ConfigFileProvider)(nil)
	_ settings.Watcher  = (*ConfigFileProvider)(nil)
)

// NewConfigFileProvider creates a ConfigFileProvider. Without WithConfigFile
// the app settings file is used, DefaultAppSettingsFile() unless set.
func NewConfigFileProvider(opts ...settings.Option) (*ConfigFileProvider, error) {
	b, err := newBase(string(settings.ConfigFileKind), opts)
	if err != nil {
		return nil, err
	}
	if b.opts.ConfigFile == "" {
		if b.opts.AppSettingsFile == "" {
			b.opts.AppSettingsFile = settings.DefaultAppSettingsFile()
		}
		if !supportedAppSettingsFormat(b.opts.AppSettingsFile) {
			return nil, fmt.Errorf("app settings file %q: extension must be one of %v",
				b.opts.AppSettingsFile, appSettingsFormats)
		}
	}

	p := &ConfigFileProvider{base: b}
	p.lock = newFileLock(p.Path())
	return p, nil
}

// Path is the store location
func (p *ConfigFileProvider) Path() string {
	if p.external() {
		return p.opts.ConfigFile
	}
	return p.opts.AppSettingsFile
}

func (p *ConfigFileProvider) external() bool {
	return p.opts.ConfigFile != ""
}

// Read loads target from the store and decrypts it. When keys are missing
// from the store and self-healing is enabled the complete object is
// written back.
func (p *ConfigFileProvider) Read(target any) error {
	missing, err := p.Load(target)
	if err != nil {
		return p.done(err)
	}
	if err := p.crypto.Decrypt(target); err != nil {
		return p.done(err)
	}
	if len(missing) > 0 && p.opts.SelfHeal {
		p.logger.Info("writing missing settings", logging.Fields{
			"path":    p.Path(),
			"section": p.opts.Section,
			"keys":    missing,
		})
		p.selfHealed(len(missing))
		return p.Write(target)
	}
	return p.done(nil)
}

// Load assigns every property found in the store to target and returns
// the keys that were not found. Values that fail to convert are skipped.
// The store is not modified and values are not decrypted.
func (p *ConfigFileProvider) Load(target any) ([]string, error) {
	s, v, err := schema.For(target)
	if err != nil {
		return nil, err
	}

	var get lookupFunc
	if p.external() {
		get, err = p.loadDocument()
	} else {
		get, err = p.loadAppSettings()
	}
	if err != nil {
		return nil, err
	}
	return p.assign(s, v, get), nil
}

// Write persists every property of source into the section, encrypting
// flagged fields for the duration of the write.
func (p *ConfigFileProvider) Write(source any) error {
	s, v, err := schema.For(source)
	if err != nil {
		return p.done(err)
	}

	err = p.lock.with(func() error {
		return p.crypto.Scope(source, func() error {
			records, err := p.render(s, v)
			if err != nil {
				return err
			}
			if p.external() {
				return p.writeDocument(s, records)
			}
			return p.writeAppSettings(s, records)
		})
	})
	return p.done(err)
}

// Watch calls onChange whenever the store file changes until ctx is done.
func (p *ConfigFileProvider) Watch(ctx context.Context, onChange func()) error {
	return watchFile(ctx, p.Path(), p.logger, onChange)
}

// lookupFunc returns the stored value for a key, matched case
// insensitively.
type lookupFunc func(key string) (string, bool)

// record is one property rendered for a store. Scalars carry one value,
// lists one value per element.
type record struct {
	key    string
	values []string
	list   bool
}

func (p *ConfigFileProvider) assign(s *schema.Schema, v reflect.Value, get lookupFunc) []string {
	reg := p.opts.Registry
	var missing []string

	for _, prop := range s.Properties {
		if !reg.Supports(prop.Type) {
			continue
		}
		field := prop.Value(v)

		if prop.List {
			var values []string
			for i := 1; ; i++ {
				val, ok := get(numberedKey(prop.Key, i))
				if !ok {
					break
				}
				values = append(values, val)
			}
			if len(values) == 0 {
				if field.Len() > 0 {
					missing = append(missing, prop.Key)
				}
				continue
			}
			parsed, err := reg.ParseList(values, prop.Type)
			if err != nil {
				p.skip(prop, err)
				continue
			}
			field.Set(parsed)
			continue
		}

		raw, ok := get(prop.Key)
		if !ok {
			missing = append(missing, prop.Key)
			continue
		}
		parsed, err := reg.Parse(raw, prop.Type)
		if err != nil {
			p.skip(prop, err)
			continue
		}
		field.Set(parsed)
	}
	return missing
}

func (p *ConfigFileProvider) render(s *schema.Schema, v reflect.Value) ([]record, error) {
	reg := p.opts.Registry
	records := make([]record, 0, len(s.Properties))

	for _, prop := range s.Properties {
		if !reg.Supports(prop.Type) {
			p.logger.Debug("skipping property of unsupported type", logging.Fields{
				"property": prop.Name,
				"type":     prop.Type.String(),
			})
			continue
		}
		field := prop.Value(v)

		if prop.List {
			values, err := reg.FormatList(field)
			if err != nil {
				return nil, &settings.PropertyError{Property: prop.Name, Err: err}
			}
			records = append(records, record{key: prop.Key, values: values, list: true})
			continue
		}
		val, err := reg.Format(field)
		if err != nil {
			return nil, &settings.PropertyError{Property: prop.Name, Err: err}
		}
		records = append(records, record{key: prop.Key, values: []string{val}})
	}
	return records, nil
}

func (p *ConfigFileProvider) skip(prop schema.Property, err error) {
	p.logger.Warn("skipping unconvertible setting", logging.Fields{
		"section":  p.opts.Section,
		"property": prop.Name,
		"error":    err,
	})
}

func numberedKey(key string, i int) string {
	return key + strconv.Itoa(i)
}

// staleIndex reports whether stored is key followed by an element number
// beyond count. Keys that name another property are never stale.
func staleIndex(s *schema.Schema, key, stored string, count int) bool {
	if len(stored) <= len(key) || !strings.EqualFold(stored[:len(key)], key) {
		return false
	}
	n, err := strconv.Atoi(stored[len(key):])
	if err != nil || n <= count || stored[len(key)] == '+' || stored[len(key)] == '-' {
		return false
	}
	if _, ok := s.Lookup(stored); ok {
		return false
	}
	return true
}

var appSettingsFormats = []string{"yaml", "yml", "json", "toml"}

func supportedAppSettingsFormat(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, f := range appSettingsFormats {
		if ext == f {
			return true
		}
	}
	return false
}
