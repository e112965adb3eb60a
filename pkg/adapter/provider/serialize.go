package provider

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"reflect"

	"github.com/hashicorp/go-msgpack/v2/codec"

	"github.com/damianoneill/go-appconfig/pkg/domain/schema"
	"github.com/damianoneill/go-appconfig/pkg/domain/settings"
)

var msgpackHandle = &codec.MsgpackHandle{WriteExt: true}

// marshalXML encodes the whole object following its xml struct tags, and
// marshalBinary its codec tags. Fields tagged config:"-" and the reserved
// ErrorMessage and Provider names are never read back from a document by
// decodeInto, but they are written unless their xml or codec tag is "-"
// as well. Configuration tags its own fields that way.
func marshalXML(source any) ([]byte, error) {
	if _, _, err := schema.For(source); err != nil {
		return nil, err
	}
	body, err := xml.MarshalIndent(source, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding xml: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

func unmarshalXML(data []byte, target any) error {
	if err := xml.Unmarshal(data, target); err != nil {
		return &decodeError{err: fmt.Errorf("decoding xml: %w", err)}
	}
	return nil
}

func marshalBinary(source any) ([]byte, error) {
	if _, _, err := schema.For(source); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := codec.NewEncoder(&buf, msgpackHandle).Encode(source); err != nil {
		return nil, fmt.Errorf("encoding msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

func unmarshalBinary(data []byte, target any) error {
	if err := codec.NewDecoderBytes(data, msgpackHandle).Decode(target); err != nil {
		return &decodeError{err: fmt.Errorf("decoding msgpack: %w", err)}
	}
	return nil
}

// decodeError marks a failure to decode stored content
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// wrapDecode turns decode failures into malformed store errors and passes
// anything else through.
func wrapDecode(op, path string, err error) error {
	var de *decodeError
	if errors.As(err, &de) {
		return settings.NewStoreError(op, path, settings.ErrMalformedStore, de.err)
	}
	return err
}

// decodeInto runs decode against a scratch copy of target and copies the
// persisted properties back. Properties absent from the document keep
// their current values and lists are replaced rather than appended to.
// Reserved fields of target are never touched, and target is unchanged
// when decode fails.
func decodeInto(target any, decode func(scratch any) error) error {
	s, v, err := schema.For(target)
	if err != nil {
		return err
	}

	scratch := reflect.New(s.Type)
	for _, p := range s.Properties {
		detach(p.Value(scratch.Elem()), p.Value(v), p.List)
	}

	if err := decode(scratch.Interface()); err != nil {
		return err
	}

	for _, p := range s.Properties {
		field := p.Value(scratch.Elem())
		if (p.List || field.Kind() == reflect.Map) && field.IsNil() {
			continue
		}
		p.Value(v).Set(field)
	}
	return nil
}

// detach sets dst to a copy of src that shares no memory the decoder
// writes through. Lists and maps start empty, pointers get their own
// pointee.
func detach(dst, src reflect.Value, list bool) {
	switch {
	case list || src.Kind() == reflect.Map:
		dst.SetZero()
	case src.Kind() == reflect.Pointer && !src.IsNil():
		fresh := reflect.New(src.Type().Elem())
		fresh.Elem().Set(src.Elem())
		dst.Set(fresh)
	default:
		dst.Set(src)
	}
}
