// Package convert turns typed values into store strings and back.
//
// Every store in this module persists scalars as strings. A Registry holds
// the conversion rules: built-in rules for Go primitives and the handful of
// well known value types settings commonly carry (time, durations, UUIDs,
// decimals, byte slices), plus rules registered by the application. Types
// that implement both encoding.TextMarshaler and encoding.TextUnmarshaler
// are supported without registration.
//
// Numeric and time formatting never depends on the host locale, so a value
// written on one machine reads back identically on any other.
package convert

import (
	"encoding"
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrUnsupportedType is returned when no rule can convert a type.
var ErrUnsupportedType = errors.New("unsupported type")

// NullString is the literal accepted as nil for pointer types, in addition
// to the empty string.
const NullString = "null"

// TimeLayout is the invariant layout used for time.Time values.
const TimeLayout = time.RFC3339Nano

// Converter converts values of one type to and from strings.
type Converter interface {
	// Format renders v, which always has the registered type
	Format(v reflect.Value) (string, error)
	// Parse returns a value of type t parsed from s
	Parse(s string, t reflect.Type) (reflect.Value, error)
}

// Funcs adapts a pair of typed functions to Converter.
type Funcs[T any] struct {
	FormatFunc func(T) (string, error)
	ParseFunc  func(string) (T, error)
}

// Format implements Converter
func (f Funcs[T]) Format(v reflect.Value) (string, error) {
	return f.FormatFunc(v.Interface().(T))
}

// Parse implements Converter
func (f Funcs[T]) Parse(s string, t reflect.Type) (reflect.Value, error) {
	out, err := f.ParseFunc(s)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(&out).Elem().Convert(t), nil
}

// Registry holds conversion rules keyed by exact type.
type Registry struct {
	mu    sync.RWMutex
	rules map[reflect.Type]Converter
}

// NewRegistry returns a registry preloaded with the built-in rules.
func NewRegistry() *Registry {
	r := &Registry{rules: make(map[reflect.Type]Converter)}
	registerBuiltins(r)
	return r
}

// Default is the registry used by the package level helpers and by the
// providers unless one is configured explicitly.
var Default = NewRegistry()

// Register installs c for type t, replacing any existing rule.
func (r *Registry) Register(t reflect.Type, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[t] = c
}

// Register installs typed conversion functions for T on r.
func Register[T any](r *Registry, format func(T) (string, error), parse func(string) (T, error)) {
	r.Register(reflect.TypeOf((*T)(nil)).Elem(), Funcs[T]{FormatFunc: format, ParseFunc: parse})
}

// RegisterEnum installs a by-name rule for an enumeration type. Parsing is
// case sensitive and fails for names outside the table.
func RegisterEnum[T comparable](r *Registry, names map[T]string) {
	byName := make(map[string]T, len(names))
	for v, n := range names {
		byName[n] = v
	}
	Register(r,
		func(v T) (string, error) {
			n, ok := names[v]
			if !ok {
				return "", fmt.Errorf("no name for enum value %v", v)
			}
			return n, nil
		},
		func(s string) (T, error) {
			v, ok := byName[s]
			if !ok {
				var zero T
				return zero, fmt.Errorf("unknown enum name %q", s)
			}
			return v, nil
		},
	)
}

func (r *Registry) lookup(t reflect.Type) (Converter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.rules[t]
	return c, ok
}

// Supports reports whether t can be converted by r, either as a scalar or
// as a list of convertible elements.
func (r *Registry) Supports(t reflect.Type) bool {
	if IsList(t) {
		return r.supportsScalar(t.Elem())
	}
	return r.supportsScalar(t)
}

func (r *Registry) supportsScalar(t reflect.Type) bool {
	if _, ok := r.lookup(t); ok {
		return true
	}
	if t.Kind() == reflect.Pointer {
		return r.supportsScalar(t.Elem())
	}
	if isText(t) {
		return true
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}

// IsList reports whether t is list shaped. Strings and byte slices are
// scalars even though both are sequences.
func IsList(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8
}

var (
	textMarshaler   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshaler = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

func isText(t reflect.Type) bool {
	return t.Implements(textMarshaler) && reflect.PointerTo(t).Implements(textUnmarshaler)
}

// Format renders v as a store string.
func (r *Registry) Format(v reflect.Value) (string, error) {
	if !v.IsValid() {
		return "", nil
	}
	t := v.Type()
	if c, ok := r.lookup(t); ok {
		return c.Format(v)
	}
	if t.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil
		}
		return r.Format(v.Elem())
	}
	if isText(t) {
		b, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", fmt.Errorf("marshaling %s: %w", t, err)
		}
		return string(b), nil
	}

	switch t.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			if v.IsNil() {
				return "", nil
			}
			return base64.StdEncoding.EncodeToString(v.Bytes()), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// Parse converts s into a value of type t.
func (r *Registry) Parse(s string, t reflect.Type) (reflect.Value, error) {
	if c, ok := r.lookup(t); ok {
		return c.Parse(s, t)
	}
	if t.Kind() == reflect.Pointer {
		if s == "" || s == NullString {
			return reflect.Zero(t), nil
		}
		elem, err := r.Parse(s, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	}
	if isText(t) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, fmt.Errorf("unmarshaling %s: %w", t, err)
		}
		return p.Elem(), nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(s)
	case reflect.Bool:
		out.SetBool(ParseBool(s))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s == "" {
			return out, nil
		}
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing %s: %w", t, err)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if s == "" {
			return out, nil
		}
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing %s: %w", t, err)
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if s == "" {
			return out, nil
		}
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing %s: %w", t, err)
		}
		out.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() != reflect.Uint8 {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
		if s == "" {
			return out, nil
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parsing %s: %w", t, err)
		}
		out.SetBytes(b)
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return out, nil
}

// FormatList renders each element of the list value v.
func (r *Registry) FormatList(v reflect.Value) ([]string, error) {
	if !IsList(v.Type()) {
		return nil, fmt.Errorf("%w: %s is not a list", ErrUnsupportedType, v.Type())
	}
	out := make([]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		s, err := r.Format(v.Index(i))
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ParseList builds a list of type t from individually stored elements.
func (r *Registry) ParseList(values []string, t reflect.Type) (reflect.Value, error) {
	if !IsList(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not a list", ErrUnsupportedType, t)
	}
	out := reflect.MakeSlice(t, 0, len(values))
	for i, s := range values {
		elem, err := r.Parse(s, t.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out = reflect.Append(out, elem)
	}
	return out, nil
}

// ParseBool is the lenient boolean rule: "true", "on" and "1" in any case
// are true and every other input, including garbage, is false.
//
// This mirrors the historical store format and is kept for compatibility.
// New code that needs strict parsing should use strconv.ParseBool.
func ParseBool(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "on") || s == "1"
}

// ToString formats v with the Default registry.
func ToString(v any) (string, error) {
	return Default.Format(reflect.ValueOf(v))
}

// FromString parses s into a T with the Default registry.
func FromString[T any](s string) (T, error) {
	var zero T
	v, err := Default.Parse(s, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

func registerBuiltins(r *Registry) {
	Register(r,
		func(t time.Time) (string, error) {
			if t.IsZero() {
				return "", nil
			}
			return t.Format(TimeLayout), nil
		},
		func(s string) (time.Time, error) {
			if s == "" {
				return time.Time{}, nil
			}
			return time.Parse(TimeLayout, s)
		},
	)
	Register(r,
		func(d time.Duration) (string, error) { return d.String(), nil },
		func(s string) (time.Duration, error) {
			if s == "" {
				return 0, nil
			}
			return time.ParseDuration(s)
		},
	)
	Register(r,
		func(u uuid.UUID) (string, error) { return u.String(), nil },
		func(s string) (uuid.UUID, error) {
			if s == "" {
				return uuid.Nil, nil
			}
			return uuid.Parse(s)
		},
	)
	Register(r,
		func(d decimal.Decimal) (string, error) { return d.String(), nil },
		func(s string) (decimal.Decimal, error) {
			if s == "" {
				return decimal.Zero, nil
			}
			return decimal.NewFromString(s)
		},
	)
}
