// Package schema describes which fields of a settings struct are persisted.
//
// A Schema is built once per struct type and cached. Exported fields take
// part unless they are tagged `config:"-"` or carry one of the reserved
// names. Embedded structs are flattened the way encoding/json flattens them.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/damianoneill/go-appconfig/pkg/domain/convert"
)

// TagName is the struct tag consulted for store key overrides.
const TagName = "config"

// Reserved field names are never persisted.
var Reserved = []string{"ErrorMessage", "Provider"}

// ErrInvalidTarget is returned for values that are not non-nil pointers to
// structs.
var ErrInvalidTarget = errors.New("settings target must be a non-nil pointer to a struct")

// Property is one persisted field.
type Property struct {
	// Name is the Go field name
	Name string
	// Key is the store key, the tag value when present, otherwise Name
	Key string
	// Index is the field index path for reflect.Value.FieldByIndex
	Index []int
	// Type is the declared field type
	Type reflect.Type
	// List is true for list shaped fields, see convert.IsList
	List bool
}

// Value returns the property's field within the struct value v.
func (p Property) Value(v reflect.Value) reflect.Value {
	return v.FieldByIndex(p.Index)
}

// Schema is the persisted shape of a struct type.
type Schema struct {
	Type       reflect.Type
	Properties []Property
	byName     map[string]int
}

// Lookup finds a property by Go name or store key, ignoring case.
func (s *Schema) Lookup(name string) (Property, bool) {
	i, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return Property{}, false
	}
	return s.Properties[i], true
}

var cache sync.Map // reflect.Type -> *Schema

// Of returns the schema for a struct type or pointer to struct type.
func Of(t reflect.Type) (*Schema, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidTarget, t)
	}
	if s, ok := cache.Load(t); ok {
		return s.(*Schema), nil
	}

	s := &Schema{Type: t, byName: make(map[string]int)}
	collect(s, t, nil)
	actual, _ := cache.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

// For validates target and returns its schema and addressable struct value.
func For(target any) (*Schema, reflect.Value, error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, reflect.Value{}, fmt.Errorf("%w: got %T", ErrInvalidTarget, target)
	}
	s, err := Of(v.Type())
	if err != nil {
		return nil, reflect.Value{}, err
	}
	return s, v.Elem(), nil
}

func collect(s *Schema, t reflect.Type, parent []int) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		tag := f.Tag.Get(TagName)
		if tag == "-" {
			continue
		}

		if f.Anonymous && tag == "" {
			ft := f.Type
			if ft.Kind() == reflect.Struct {
				collect(s, ft, index)
				continue
			}
		}
		if !f.IsExported() || isReserved(f.Name) {
			continue
		}

		key := f.Name
		if tag != "" {
			key = tag
		}
		if _, dup := s.byName[strings.ToLower(key)]; dup {
			continue
		}

		s.byName[strings.ToLower(key)] = len(s.Properties)
		if _, ok := s.byName[strings.ToLower(f.Name)]; !ok {
			s.byName[strings.ToLower(f.Name)] = len(s.Properties)
		}
		s.Properties = append(s.Properties, Property{
			Name:  f.Name,
			Key:   key,
			Index: index,
			Type:  f.Type,
			List:  convert.IsList(f.Type),
		})
	}
}

func isReserved(name string) bool {
	for _, r := range Reserved {
		if name == r {
			return true
		}
	}
	return false
}

// Copy assigns every property of src onto dst. Both must be struct values
// of the schema's type and dst must be addressable.
func (s *Schema) Copy(dst, src reflect.Value) {
	for _, p := range s.Properties {
		p.Value(dst).Set(p.Value(src))
	}
}
