package provider

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

func TestFactory_NewProvider(t *testing.T) {
	dir := t.TempDir()
	factory := NewFactory(settings.WithSection("Main"))

	tests := []struct {
		name     string
		kind     settings.Kind
		opts     []settings.Option
		wantType any
		wantErr  bool
	}{
		{
			name:     "config file",
			kind:     settings.ConfigFileKind,
			opts:     []settings.Option{settings.WithAppSettingsFile(filepath.Join(dir, "app.yaml"))},
			wantType: &ConfigFileProvider{},
		},
		{
			name:     "xml file",
			kind:     settings.XMLFileKind,
			opts:     []settings.Option{settings.WithConfigFile(filepath.Join(dir, "settings.xml"))},
			wantType: &XMLFileProvider{},
		},
		{
			name:     "string",
			kind:     settings.StringKind,
			wantType: &StringProvider{},
		},
		{
			name:    "xml file without path",
			kind:    settings.XMLFileKind,
			wantErr: true,
		},
		{
			name:    "unknown kind",
			kind:    settings.Kind("registry"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := factory.NewProvider(tt.kind, tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, p)
			assert.Equal(t, "Main", p.Options().Section)
		})
	}
}

func TestFactory_CallOptionsOverrideDefaults(t *testing.T) {
	factory := NewFactory(settings.WithSection("Main"), settings.WithSelfHeal(false))

	p, err := factory.NewProvider(settings.StringKind, settings.WithSection("Other"))
	require.NoError(t, err)
	assert.Equal(t, "Other", p.Options().Section)
	assert.False(t, p.Options().SelfHeal)
}
