package settings

import (
	"errors"
	"fmt"

	"github.com/damianoneill/go-appconfig/pkg/domain/convert"
	"github.com/damianoneill/go-appconfig/pkg/domain/schema"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrStoreUnavailable covers missing, unreadable or unwritable stores.
	// Providers recover from it where a default can be written.
	ErrStoreUnavailable = errors.New("settings store unavailable")

	// ErrMalformedStore is returned when a store exists but cannot be parsed.
	// It is never repaired automatically since that would destroy data.
	ErrMalformedStore = errors.New("settings store malformed")

	// ErrUnsupportedOperation is returned by providers that cannot perform
	// an operation, such as Write on the string provider.
	ErrUnsupportedOperation = errors.New("operation not supported by provider")

	// ErrInvalidEncryptionProperty is returned when a name in the encryption
	// list does not exist on the settings object.
	ErrInvalidEncryptionProperty = errors.New("invalid encryption property")

	// ErrMissingEncryptionKey is returned when properties are flagged for
	// encryption but no key is configured.
	ErrMissingEncryptionKey = errors.New("encryption key required when properties are flagged for encryption")

	// ErrUnsupportedType is the type coercion failure.
	ErrUnsupportedType = convert.ErrUnsupportedType

	// ErrInvalidTarget is returned for settings values that are not
	// non-nil pointers to structs.
	ErrInvalidTarget = schema.ErrInvalidTarget
)

// StoreError describes a failed store operation.
type StoreError struct {
	Op   string // "read", "write", ...
	Path string // store location, empty for in-memory stores
	Kind error  // one of the Err* kinds
	Err  error  // underlying cause, may be nil
}

func (e *StoreError) Error() string {
	msg := e.Kind.Error()
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewStoreError builds a StoreError.
func NewStoreError(op, path string, kind, err error) error {
	return &StoreError{Op: op, Path: path, Kind: kind, Err: err}
}

// PropertyError names the property an operation failed on.
type PropertyError struct {
	Property string
	Err      error
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("property %q: %v", e.Property, e.Err)
}

func (e *PropertyError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err is any store level failure.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
