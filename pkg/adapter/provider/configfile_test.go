package provider

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianoneill/go-appconfig/pkg/domain/schema"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

type appSettings struct {
	Host     string
	Port     int
	Debug    bool
	Servers  []string
	Password string
	Timeout  time.Duration
}

func defaultAppSettings() *appSettings {
	return &appSettings{
		Host:    "localhost",
		Port:    8080,
		Servers: []string{"a.example", "b.example"},
		Timeout: 5 * time.Second,
	}
}

func newConfigFile(t *testing.T, opts ...settings.Option) *ConfigFileProvider {
	t.Helper()
	p, err := NewConfigFileProvider(opts...)
	require.NoError(t, err)
	return p
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readViper(t *testing.T, path string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	return v
}

func readDocument(t *testing.T, path string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(path))
	return doc
}

func schemaOf(t *testing.T, target any) *schema.Schema {
	t.Helper()
	s, _, err := schema.For(target)
	require.NoError(t, err)
	return s
}

func TestNewConfigFileProvider(t *testing.T) {
	tests := []struct {
		name     string
		opts     []settings.Option
		wantPath string
		wantErr  bool
	}{
		{
			name:     "app settings yaml",
			opts:     []settings.Option{settings.WithAppSettingsFile("/tmp/app.yaml")},
			wantPath: "/tmp/app.yaml",
		},
		{
			name:     "app settings json",
			opts:     []settings.Option{settings.WithAppSettingsFile("/tmp/app.JSON")},
			wantPath: "/tmp/app.JSON",
		},
		{
			name:    "unsupported app settings format",
			opts:    []settings.Option{settings.WithAppSettingsFile("/tmp/app.ini")},
			wantErr: true,
		},
		{
			name:     "external document wins",
			opts:     []settings.Option{settings.WithAppSettingsFile("/tmp/app.ini"), settings.WithConfigFile("/tmp/app.config")},
			wantPath: "/tmp/app.config",
		},
		{
			name:    "missing encryption key",
			opts:    []settings.Option{settings.WithAppSettingsFile("/tmp/app.yaml"), settings.WithEncryption("", "Password")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewConfigFileProvider(tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, p.Path())
		})
	}
}

func TestConfigFileProvider_DefaultAppSettingsFile(t *testing.T) {
	p := newConfigFile(t)
	assert.Equal(t, settings.DefaultAppSettingsFile(), p.Path())
}

func TestConfigFileProvider_SelfHealsMissingAppSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	p := newConfigFile(t, settings.WithAppSettingsFile(path))

	s := defaultAppSettings()
	require.NoError(t, p.Read(s))
	assert.Equal(t, defaultAppSettings(), s)

	v := readViper(t, path)
	assert.Equal(t, "localhost", v.GetString("appsettings.host"))
	assert.Equal(t, "8080", v.GetString("appsettings.port"))
	assert.Equal(t, "false", v.GetString("appsettings.debug"))
	assert.Equal(t, "a.example", v.GetString("appsettings.servers1"))
	assert.Equal(t, "b.example", v.GetString("appsettings.servers2"))
	assert.Equal(t, "5s", v.GetString("appsettings.timeout"))
}

func TestConfigFileProvider_SelfHealDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	p := newConfigFile(t, settings.WithAppSettingsFile(path), settings.WithSelfHeal(false))

	s := defaultAppSettings()
	require.NoError(t, p.Read(s))
	assert.Equal(t, defaultAppSettings(), s)
	assert.NoFileExists(t, path)
}

func TestConfigFileProvider_ReadsExistingKeysAndAddsMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeTestFile(t, path, "appsettings:\n  host: db.example\n  port: \"9090\"\n  extra: keep-me\nother:\n  name: untouched\n")
	p := newConfigFile(t, settings.WithAppSettingsFile(path))

	s := defaultAppSettings()
	require.NoError(t, p.Read(s))
	assert.Equal(t, "db.example", s.Host)
	assert.Equal(t, 9090, s.Port)
	assert.Equal(t, []string{"a.example", "b.example"}, s.Servers)

	v := readViper(t, path)
	assert.Equal(t, "db.example", v.GetString("appsettings.host"))
	assert.Equal(t, "5s", v.GetString("appsettings.timeout"))
	assert.Equal(t, "keep-me", v.GetString("appsettings.extra"))
	assert.Equal(t, "untouched", v.GetString("other.name"))
}

func TestConfigFileProvider_Sections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	main := newConfigFile(t, settings.WithAppSettingsFile(path), settings.WithSection("Main"))
	aux := newConfigFile(t, settings.WithAppSettingsFile(path), settings.WithSection("Aux"))

	first := defaultAppSettings()
	second := defaultAppSettings()
	second.Host = "aux.example"
	require.NoError(t, main.Write(first))
	require.NoError(t, aux.Write(second))

	gotMain, gotAux := &appSettings{}, &appSettings{}
	require.NoError(t, main.Read(gotMain))
	require.NoError(t, aux.Read(gotAux))
	assert.Equal(t, "localhost", gotMain.Host)
	assert.Equal(t, "aux.example", gotAux.Host)
}

func TestConfigFileProvider_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeTestFile(t, path, "appsettings:\n  port: \"9090\"\n")
	t.Setenv("APPTEST_APPSETTINGS_PORT", "7000")
	t.Setenv("APPTEST_APPSETTINGS_HOST", "env.example")

	p := newConfigFile(t,
		settings.WithAppSettingsFile(path),
		settings.WithEnvPrefix("APPTEST"),
		settings.WithSelfHeal(false),
	)
	s := defaultAppSettings()
	require.NoError(t, p.Read(s))
	assert.Equal(t, 7000, s.Port)
	assert.Equal(t, "env.example", s.Host)

	v := readViper(t, path)
	assert.Equal(t, "9090", v.GetString("appsettings.port"))
	assert.False(t, v.IsSet("appsettings.host"))
}

func TestConfigFileProvider_EnvOverrideNotWrittenBack(t *testing.T) {
	tests := []struct {
		name  string
		write bool
	}{
		{name: "self heal"},
		{name: "explicit write", write: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.yaml")
			writeTestFile(t, path, "appsettings:\n  port: \"9090\"\n  host: file.example\n")
			t.Setenv("APPTEST_APPSETTINGS_PASSWORD", "from-env")
			t.Setenv("APPTEST_APPSETTINGS_HOST", "env.example")
			t.Setenv("APPTEST_APPSETTINGS_SERVERS1", "env-server")

			p := newConfigFile(t,
				settings.WithAppSettingsFile(path),
				settings.WithEnvPrefix("APPTEST"),
			)
			s := defaultAppSettings()
			require.NoError(t, p.Read(s))
			assert.Equal(t, "from-env", s.Password)
			assert.Equal(t, "env.example", s.Host)
			assert.Equal(t, []string{"env-server"}, s.Servers)
			if tt.write {
				s.Port = 9191
				require.NoError(t, p.Write(s))
			}

			v := readViper(t, path)
			assert.Equal(t, "5s", v.GetString("appsettings.timeout"), "missing keys are still written")
			assert.False(t, v.IsSet("appsettings.password"))
			assert.False(t, v.IsSet("appsettings.servers1"))
			assert.Equal(t, "file.example", v.GetString("appsettings.host"))
			if tt.write {
				assert.Equal(t, "9191", v.GetString("appsettings.port"))
			}
		})
	}
}

func TestConfigFileProvider_UnconvertibleValueKeepsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeTestFile(t, path, "appsettings:\n  port: eighty\n  timeout: soon\n")
	p := newConfigFile(t, settings.WithAppSettingsFile(path), settings.WithSelfHeal(false))

	s := defaultAppSettings()
	require.NoError(t, p.Read(s))
	assert.Equal(t, 8080, s.Port)
	assert.Equal(t, 5*time.Second, s.Timeout)
}

func TestConfigFileProvider_ListShrinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	p := newConfigFile(t, settings.WithAppSettingsFile(path))

	s := defaultAppSettings()
	s.Servers = []string{"one", "two", "three"}
	require.NoError(t, p.Write(s))

	s.Servers = []string{"only"}
	require.NoError(t, p.Write(s))

	v := readViper(t, path)
	assert.Equal(t, "only", v.GetString("appsettings.servers1"))
	assert.False(t, v.IsSet("appsettings.servers2"))
	assert.False(t, v.IsSet("appsettings.servers3"))

	got := &appSettings{}
	require.NoError(t, p.Read(got))
	assert.Equal(t, []string{"only"}, got.Servers)
}

func TestConfigFileProvider_EncryptedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	p := newConfigFile(t,
		settings.WithAppSettingsFile(path),
		settings.WithEncryption("k3y", "Password"),
	)

	s := defaultAppSettings()
	s.Password = "secret"
	require.NoError(t, p.Write(s))
	assert.Equal(t, "secret", s.Password)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	got := &appSettings{}
	require.NoError(t, p.Read(got))
	assert.Equal(t, "secret", got.Password)
}

func TestConfigFileProvider_MalformedAppSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	content := "appsettings: [unclosed\n"
	writeTestFile(t, path, content)
	p := newConfigFile(t, settings.WithAppSettingsFile(path))

	s := defaultAppSettings()
	err := p.Read(s)
	assert.ErrorIs(t, err, settings.ErrMalformedStore)
	assert.NotEmpty(t, p.ErrorMessage())

	assert.ErrorIs(t, p.Write(s), settings.ErrMalformedStore)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(raw))
}

func TestConfigFileProvider_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeTestFile(t, path, "appsettings:\n  host: db.example\n")
	p := newConfigFile(t, settings.WithAppSettingsFile(path))

	s := defaultAppSettings()
	missing, err := p.Load(s)
	require.NoError(t, err)
	assert.Equal(t, "db.example", s.Host)
	assert.ElementsMatch(t, []string{"Port", "Debug", "Servers", "Password", "Timeout"}, missing)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "appsettings:\n  host: db.example\n", string(raw))
}

func TestConfigFileProvider_InvalidTarget(t *testing.T) {
	p := newConfigFile(t, settings.WithAppSettingsFile(filepath.Join(t.TempDir(), "app.yaml")))

	assert.ErrorIs(t, p.Read(appSettings{}), settings.ErrInvalidTarget)
	assert.ErrorIs(t, p.Write(nil), settings.ErrInvalidTarget)
	assert.NotEmpty(t, p.ErrorMessage())
}

func TestConfigFileProvider_Document(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.config")
	p := newConfigFile(t, settings.WithConfigFile(path), settings.WithSection("Main"))

	s := defaultAppSettings()
	require.NoError(t, p.Read(s))

	doc := readDocument(t, path)
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "configuration", root.Tag)

	children := root.ChildElements()
	require.Len(t, children, 2)
	assert.Equal(t, "configSections", children[0].Tag)
	decl := children[0].SelectElement("section")
	require.NotNil(t, decl)
	assert.Equal(t, "Main", decl.SelectAttrValue("name", ""))
	assert.Equal(t, SectionHandlerType, decl.SelectAttrValue("type", ""))
	assert.Equal(t, "false", decl.SelectAttrValue("requirePermission", ""))

	main := children[1]
	assert.Equal(t, "Main", main.Tag)
	values := map[string]string{}
	for _, add := range main.SelectElements("add") {
		values[add.SelectAttrValue("key", "")] = add.SelectAttrValue("value", "")
	}
	assert.Equal(t, map[string]string{
		"Host":     "localhost",
		"Port":     "8080",
		"Debug":    "false",
		"Servers1": "a.example",
		"Servers2": "b.example",
		"Password": "",
		"Timeout":  "5s",
	}, values)
}

func TestConfigFileProvider_DocumentDefaultSectionNotRegistered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.config")
	p := newConfigFile(t, settings.WithConfigFile(path))

	require.NoError(t, p.Write(defaultAppSettings()))

	root := readDocument(t, path).Root()
	assert.Nil(t, root.SelectElement("configSections"))
	assert.NotNil(t, root.SelectElement("appSettings"))
}

func TestConfigFileProvider_DocumentRegistersSectionFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.config")
	writeTestFile(t, path, `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <!-- operator notes -->
  <appSettings>
    <add key="Unrelated" value="1"/>
  </appSettings>
  <configSections>
    <section name="Other" type="Custom"/>
  </configSections>
</configuration>
`)
	p := newConfigFile(t, settings.WithConfigFile(path), settings.WithSection("Main"))
	require.NoError(t, p.Write(defaultAppSettings()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<!-- operator notes -->")

	root := readDocument(t, path).Root()
	children := root.ChildElements()
	require.Len(t, children, 3)
	assert.Equal(t, "configSections", children[0].Tag)
	assert.Len(t, children[0].SelectElements("section"), 2)
	assert.Equal(t, "1", root.FindElement("appSettings/add[@key='Unrelated']").SelectAttrValue("value", ""))
	assert.NotNil(t, root.SelectElement("Main"))

	// registering again is a no-op
	require.NoError(t, p.Write(defaultAppSettings()))
	root = readDocument(t, path).Root()
	assert.Len(t, root.SelectElement("configSections").SelectElements("section"), 2)
}

func TestConfigFileProvider_DocumentNamespaces(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "without namespace",
			content: `<configuration>
  <appSettings>
    <add key="HOST" value="ns.example"/>
  </appSettings>
</configuration>`,
		},
		{
			name: "default namespace",
			content: `<configuration xmlns="http://schemas.microsoft.com/.NetConfiguration/v2.0">
  <appSettings>
    <add key="HOST" value="ns.example"/>
  </appSettings>
</configuration>`,
		},
		{
			name: "prefixed namespace",
			content: `<c:configuration xmlns:c="http://schemas.microsoft.com/.NetConfiguration/v2.0">
  <c:appSettings>
    <c:add key="HOST" value="ns.example"/>
  </c:appSettings>
</c:configuration>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.config")
			writeTestFile(t, path, tt.content)
			p := newConfigFile(t, settings.WithConfigFile(path))

			s := defaultAppSettings()
			require.NoError(t, p.Read(s))
			assert.Equal(t, "ns.example", s.Host)

			root := readDocument(t, path).Root()
			sections := root.SelectElements(qualify(root, "appSettings"))
			require.Len(t, sections, 1)
			adds := sections[0].ChildElements()
			assert.Len(t, adds, 7)
			assert.Equal(t, "HOST", adds[0].SelectAttrValue("key", ""))
			for _, add := range adds {
				assert.Equal(t, "add", add.Tag)
				assert.Equal(t, root.NamespaceURI(), add.NamespaceURI())
			}

			got := &appSettings{}
			require.NoError(t, p.Read(got))
			assert.Equal(t, s, got)
		})
	}
}

func TestConfigFileProvider_DocumentFirstDuplicateWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.config")
	writeTestFile(t, path, `<configuration><appSettings>
<add key="Host" value="first"/>
<add key="host" value="second"/>
</appSettings></configuration>`)
	p := newConfigFile(t, settings.WithConfigFile(path), settings.WithSelfHeal(false))

	s := defaultAppSettings()
	require.NoError(t, p.Read(s))
	assert.Equal(t, "first", s.Host)
}

func TestConfigFileProvider_DocumentListShrinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.config")
	p := newConfigFile(t, settings.WithConfigFile(path))

	s := defaultAppSettings()
	s.Servers = []string{"one", "two", "three"}
	require.NoError(t, p.Write(s))
	s.Servers = []string{"only"}
	require.NoError(t, p.Write(s))

	sec := readDocument(t, path).Root().SelectElement("appSettings")
	assert.NotNil(t, sec.FindElement("add[@key='Servers1']"))
	assert.Nil(t, sec.FindElement("add[@key='Servers2']"))
	assert.Nil(t, sec.FindElement("add[@key='Servers3']"))
}

func TestConfigFileProvider_DocumentBlankFileIsRecreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.config")
	writeTestFile(t, path, "  \n")
	p := newConfigFile(t, settings.WithConfigFile(path))

	require.NoError(t, p.Read(defaultAppSettings()))
	assert.NotNil(t, readDocument(t, path).Root().SelectElement("appSettings"))
}

func TestConfigFileProvider_DocumentMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.config")
	content := `<configuration><appSettings><add key="Host" value=></appSettings></configuration>`
	writeTestFile(t, path, content)
	p := newConfigFile(t, settings.WithConfigFile(path))

	s := defaultAppSettings()
	assert.ErrorIs(t, p.Read(s), settings.ErrMalformedStore)
	assert.ErrorIs(t, p.Write(s), settings.ErrMalformedStore)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(raw))
}

func TestStaleIndex(t *testing.T) {
	type withNumbered struct {
		Servers  []string
		Servers5 string
	}
	s := schemaOf(t, &withNumbered{})

	tests := []struct {
		stored string
		count  int
		want   bool
	}{
		{"Servers3", 2, true},
		{"servers3", 2, true},
		{"Servers2", 2, false},
		{"Servers", 0, false},
		{"ServersX", 0, false},
		{"Servers+3", 0, false},
		{"Servers5", 1, false},
		{"Other3", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.stored, func(t *testing.T) {
			assert.Equal(t, tt.want, staleIndex(s, "Servers", tt.stored, tt.count))
		})
	}
}
