package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

func TestStringProvider_Read(t *testing.T) {
	p, err := NewStringProvider(settings.WithData(`<appSettings><Host>from.string</Host><Port>81</Port></appSettings>`))
	require.NoError(t, err)

	s := defaultAppSettings()
	require.NoError(t, p.Read(s))
	assert.Equal(t, "from.string", s.Host)
	assert.Equal(t, 81, s.Port)
	assert.Equal(t, 5*time.Second, s.Timeout)
}

func TestStringProvider_ReadWithoutData(t *testing.T) {
	p, err := NewStringProvider()
	require.NoError(t, err)

	err = p.Read(defaultAppSettings())
	assert.ErrorIs(t, err, settings.ErrStoreUnavailable)
	assert.Equal(t, "read string: settings store unavailable: no data", p.ErrorMessage())
}

func TestStringProvider_WriteUnsupported(t *testing.T) {
	p, err := NewStringProvider()
	require.NoError(t, err)

	err = p.Write(defaultAppSettings())
	assert.ErrorIs(t, err, settings.ErrUnsupportedOperation)
	assert.Equal(t, "write: operation not supported by provider", p.ErrorMessage())
}

func TestStringProvider_WriteStringReplacesData(t *testing.T) {
	p, err := NewStringProvider(settings.WithData("<appSettings/>"))
	require.NoError(t, err)

	s := defaultAppSettings()
	s.Host = "replaced.example"
	out, err := p.WriteString(s)
	require.NoError(t, err)
	assert.Equal(t, out, p.Data())

	got := &appSettings{}
	require.NoError(t, p.Read(got))
	assert.Equal(t, s, got)
}

func TestStringProvider_FailedWriteStringKeepsData(t *testing.T) {
	p, err := NewStringProvider(settings.WithData("<appSettings/>"))
	require.NoError(t, err)

	_, err = p.WriteString(appSettings{})
	assert.ErrorIs(t, err, settings.ErrInvalidTarget)
	assert.Equal(t, "<appSettings/>", p.Data())
}

type limitSettings struct {
	Limit  *int
	Port   int
	Labels map[string]string `xml:"-"`
	Notes  string            `config:"-"`
}

func TestStringProvider_FailedReadStringLeavesTarget(t *testing.T) {
	p, err := NewStringProvider()
	require.NoError(t, err)

	limit := 5
	s := &limitSettings{Limit: &limit, Port: 80}
	err = p.ReadString(`<limitSettings><Limit>7</Limit><Port>bad</Port></limitSettings>`, s)
	assert.ErrorIs(t, err, settings.ErrMalformedStore)
	require.NotNil(t, s.Limit)
	assert.Same(t, &limit, s.Limit)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 80, s.Port)

	require.NoError(t, p.ReadString(`<limitSettings><Limit>7</Limit></limitSettings>`, s))
	assert.Equal(t, 7, *s.Limit)
	assert.Equal(t, 5, limit, "a successful read allocates a new value")
	assert.Equal(t, 80, s.Port)
}

func TestStringProvider_ExcludedFieldsAreNotReadBack(t *testing.T) {
	p, err := NewStringProvider()
	require.NoError(t, err)

	s := &limitSettings{Notes: "kept", Labels: map[string]string{"a": "b"}}
	require.NoError(t, p.ReadString(`<limitSettings><Port>81</Port><Notes>replaced</Notes></limitSettings>`, s))
	assert.Equal(t, 81, s.Port)
	assert.Equal(t, "kept", s.Notes)
	assert.Equal(t, map[string]string{"a": "b"}, s.Labels)
}
