package provider

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/damianoneill/go-appconfig/pkg/domain/schema"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// openAppSettings reads the app settings file into a fresh viper instance
// so that every operation sees the file as it is now. A missing file
// yields an empty instance.
func (p *ConfigFileProvider) openAppSettings(withEnv bool) (*viper.Viper, error) {
	path := p.opts.AppSettingsFile

	v := viper.New()
	v.SetConfigFile(path)
	if withEnv && p.opts.EnvPrefix != "" {
		v.SetEnvPrefix(p.opts.EnvPrefix)
		v.SetEnvKeyReplacer(envKeyReplacer)
		v.AutomaticEnv()
	}

	if err := v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return v, nil
		case errors.As(err, &parseErr):
			return nil, settings.NewStoreError("read", path, settings.ErrMalformedStore, err)
		default:
			return nil, settings.NewStoreError("read", path, settings.ErrStoreUnavailable, err)
		}
	}
	return v, nil
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// fromEnv reports whether key of this section is overridden by an
// environment variable, named the way viper resolves it.
func (p *ConfigFileProvider) fromEnv(key string) bool {
	if p.opts.EnvPrefix == "" {
		return false
	}
	name := strings.ToUpper(p.opts.EnvPrefix + "_" + p.opts.Section + "." + key)
	return os.Getenv(envKeyReplacer.Replace(name)) != ""
}

func (p *ConfigFileProvider) loadAppSettings() (lookupFunc, error) {
	v, err := p.openAppSettings(true)
	if err != nil {
		return nil, err
	}
	section := strings.ToLower(p.opts.Section)
	return func(key string) (string, bool) {
		full := section + "." + strings.ToLower(key)
		if !v.IsSet(full) {
			return "", false
		}
		return v.GetString(full), true
	}, nil
}

// writeAppSettings rebuilds the section map and writes the whole file.
// Other sections and unknown keys of this section are kept. Keys
// overridden by the environment keep the value the file holds, so values
// supplied through the environment are never written to disk.
func (p *ConfigFileProvider) writeAppSettings(s *schema.Schema, records []record) error {
	path := p.opts.AppSettingsFile

	current, err := p.openAppSettings(false)
	if err != nil {
		return err
	}
	all := current.AllSettings()

	section := strings.ToLower(p.opts.Section)
	values := make(map[string]any)
	if existing, ok := all[section].(map[string]any); ok {
		for k, val := range existing {
			values[k] = val
		}
	}

	for _, r := range records {
		key := strings.ToLower(r.key)
		if !r.list {
			if !p.fromEnv(key) {
				values[key] = r.values[0]
			}
			continue
		}
		if p.fromEnv(numberedKey(key, 1)) {
			continue
		}
		for i, val := range r.values {
			values[numberedKey(key, i+1)] = val
		}
		for k := range values {
			if staleIndex(s, key, k, len(r.values)) {
				delete(values, k)
			}
		}
	}
	all[section] = values

	out := viper.New()
	if err := out.MergeConfigMap(all); err != nil {
		return settings.NewStoreError("write", path, settings.ErrStoreUnavailable, err)
	}
	if err := writeAtomic(path, out.WriteConfigAs); err != nil {
		return settings.NewStoreError("write", path, settings.ErrStoreUnavailable, err)
	}
	return nil
}
