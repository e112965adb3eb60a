package appconfig

import (
	"sync"
	"sync/atomic"

	"github.com/damianoneill/go-appconfig/pkg/adapter/provider"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

// Initializer is implemented by pointers to structs embedding
// Configuration.
type Initializer interface {
	Initialize(self any, opts ...Option) error
}

// Defaulter is implemented by settings structs that set their own
// defaults. New calls SetDefaults before the initial read, so the defaults
// are what self-healing writes to a new store.
type Defaulter interface {
	SetDefaults()
}

// New allocates a T, applies its defaults and initializes it. The value is
// returned alongside a failed initial read so callers can run on defaults.
func New[T any, PT interface {
	*T
	Initializer
}](opts ...Option) (*T, error) {
	t := new(T)
	if d, ok := any(t).(Defaulter); ok {
		d.SetDefaults()
	}
	if err := PT(t).Initialize(t, opts...); err != nil {
		return t, err
	}
	return t, nil
}

// ReadString decodes data into a new T. Flagged fields are decrypted with
// p's encryption options; a nil p decodes without decryption.
func ReadString[T any](data string, p settings.Provider) (*T, error) {
	if p == nil {
		sp, err := provider.NewStringProvider()
		if err != nil {
			return nil, err
		}
		p = sp
	}
	target := new(T)
	if d, ok := any(target).(Defaulter); ok {
		d.SetDefaults()
	}
	if err := p.ReadString(data, target); err != nil {
		return nil, err
	}
	return target, nil
}

// Global holds one process-wide settings value, initialized explicitly
// with Init.
//
//	var Settings appconfig.Global[ServiceSettings, *ServiceSettings]
//
//	func main() {
//		if err := Settings.Init(appconfig.WithValidation(true)); err != nil { ... }
//		endpoint := Settings.Get().Endpoint
//	}
type Global[T any, PT interface {
	*T
	Initializer
}] struct {
	once  sync.Once
	value atomic.Pointer[T]
	err   error
}

// Init creates and initializes the value on the first call and returns the
// same result on every later call.
func (g *Global[T, PT]) Init(opts ...Option) error {
	g.once.Do(func() {
		var v *T
		v, g.err = New[T, PT](opts...)
		g.value.Store(v)
	})
	return g.err
}

// Get returns the value, or nil before Init.
func (g *Global[T, PT]) Get() *T {
	return g.value.Load()
}

// MustGet returns the value and panics before Init.
func (g *Global[T, PT]) MustGet() *T {
	v := g.value.Load()
	if v == nil {
		panic(ErrNotInitialized)
	}
	return v
}
