// Package settingstest holds the behavior every settings.Provider must
// share, as a suite that implementations run from their own tests.
package settingstest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// Key is the encryption key the suite configures
const Key = "contract-suite-key"

// Sample is the settings object the suite persists
type Sample struct {
	Name     string
	Port     int
	Enabled  bool
	Ratio    float64
	Timeout  time.Duration
	Tags     []string
	Password string
}

// NewSample returns a fully populated Sample
func NewSample() *Sample {
	return &Sample{
		Name:     "orders",
		Port:     8080,
		Enabled:  true,
		Ratio:    0.25,
		Timeout:  1500 * time.Millisecond,
		Tags:     []string{"blue", "green"},
		Password: "hunter2",
	}
}

// Factory creates the implementation under test. The suite passes the
// options it relies on, encryption of Password with Key among them.
type Factory func(t *testing.T, opts ...settings.Option) settings.Provider

// Capabilities describes what the implementation supports
type Capabilities struct {
	// Writable providers persist Write and read it back with Read
	Writable bool
}

// Run executes the contract suite against newImpl.
func Run(t *testing.T, newImpl Factory, caps Capabilities) {
	newProvider := func(t *testing.T) settings.Provider {
		t.Helper()
		p := newImpl(t, settings.WithEncryption(Key, "Password"))
		require.NotNil(t, p)
		return p
	}

	t.Run("write then read", func(t *testing.T) {
		if !caps.Writable {
			t.Skip("provider is read only")
		}
		p := newProvider(t)
		src := NewSample()

		require.NoError(t, p.Write(src))
		assert.Equal(t, "hunter2", src.Password, "write must leave plaintext in memory")

		dst := &Sample{}
		require.NoError(t, p.Read(dst))
		assert.Equal(t, src, dst)
		assert.Empty(t, p.ErrorMessage())
	})

	t.Run("write string then read string", func(t *testing.T) {
		p := newProvider(t)
		src := NewSample()

		data, err := p.WriteString(src)
		require.NoError(t, err)
		assert.NotContains(t, data, "hunter2")
		assert.Equal(t, "hunter2", src.Password)

		dst := &Sample{}
		require.NoError(t, p.ReadString(data, dst))
		assert.Equal(t, src, dst)
	})

	t.Run("encrypt then decrypt", func(t *testing.T) {
		p := newProvider(t)
		s := NewSample()

		require.NoError(t, p.Encrypt(s))
		assert.NotEqual(t, "hunter2", s.Password)
		assert.Equal(t, "orders", s.Name)

		require.NoError(t, p.Decrypt(s))
		assert.Equal(t, NewSample(), s)
	})

	t.Run("read string into invalid target", func(t *testing.T) {
		p := newProvider(t)
		data, err := p.WriteString(NewSample())
		require.NoError(t, err)

		err = p.ReadString(data, Sample{})
		assert.ErrorIs(t, err, settings.ErrInvalidTarget)
		assert.NotEmpty(t, p.ErrorMessage())
	})

	t.Run("read string of malformed data", func(t *testing.T) {
		p := newProvider(t)
		s := NewSample()

		err := p.ReadString("<Sample><Port>eighty</Port></Sample>", s)
		assert.ErrorIs(t, err, settings.ErrMalformedStore)
		assert.Equal(t, 8080, s.Port, "failed reads leave the target alone")
	})

	t.Run("success clears error message", func(t *testing.T) {
		p := newProvider(t)
		require.Error(t, p.ReadString("", &Sample{}))
		require.NotEmpty(t, p.ErrorMessage())

		_, err := p.WriteString(NewSample())
		require.NoError(t, err)
		assert.Empty(t, p.ErrorMessage())
	})

	t.Run("options", func(t *testing.T) {
		p := newProvider(t)
		o := p.Options()
		assert.True(t, o.ShouldEncrypt("password"))
		assert.Equal(t, settings.DefaultSection, o.Section)
	})
}
