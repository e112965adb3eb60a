package schema

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embedded struct {
	ErrorMessage string
	Provider     any
	internal     int
}

type common struct {
	Timeout int
}

type sample struct {
	embedded
	common
	ConnectionString string
	MaxItems         int
	Hosts            []string
	Blob             []byte
	Renamed          string `config:"renamed_key"`
	Skipped          string `config:"-"`
	hidden           string
}

func TestOf(t *testing.T) {
	s, err := Of(reflect.TypeOf(sample{}))
	require.NoError(t, err)

	var names []string
	for _, p := range s.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Timeout", "ConnectionString", "MaxItems", "Hosts", "Blob", "Renamed"}, names)

	hosts, ok := s.Lookup("hosts")
	require.True(t, ok)
	assert.True(t, hosts.List)

	blob, ok := s.Lookup("Blob")
	require.True(t, ok)
	assert.False(t, blob.List)

	renamed, ok := s.Lookup("RENAMED_KEY")
	require.True(t, ok)
	assert.Equal(t, "Renamed", renamed.Name)
	assert.Equal(t, "renamed_key", renamed.Key)

	_, ok = s.Lookup("renamed")
	assert.True(t, ok, "lookup by Go name still works")

	for _, reserved := range []string{"ErrorMessage", "Provider", "Skipped", "hidden"} {
		_, ok := s.Lookup(reserved)
		assert.False(t, ok, reserved)
	}
}

func TestOf_Cached(t *testing.T) {
	a, err := Of(reflect.TypeOf(sample{}))
	require.NoError(t, err)
	b, err := Of(reflect.TypeOf(&sample{}))
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestFor(t *testing.T) {
	tests := []struct {
		name    string
		target  any
		wantErr bool
	}{
		{name: "pointer to struct", target: &sample{}},
		{name: "struct value", target: sample{}, wantErr: true},
		{name: "nil pointer", target: (*sample)(nil), wantErr: true},
		{name: "nil", target: nil, wantErr: true},
		{name: "pointer to int", target: new(int), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := For(tt.target)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTarget)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPropertyValue_SetsThroughEmbedding(t *testing.T) {
	target := &sample{}
	s, v, err := For(target)
	require.NoError(t, err)

	p, ok := s.Lookup("Timeout")
	require.True(t, ok)
	p.Value(v).SetInt(30)
	assert.Equal(t, 30, target.Timeout)
}

func TestCopy(t *testing.T) {
	src := &sample{
		embedded:         embedded{ErrorMessage: "boom"},
		common:           common{Timeout: 5},
		ConnectionString: "db",
		MaxItems:         20,
		Hosts:            []string{"a", "b"},
		Skipped:          "ignored",
	}
	dst := &sample{embedded: embedded{ErrorMessage: "keep"}}

	s, err := Of(reflect.TypeOf(src))
	require.NoError(t, err)
	s.Copy(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())

	assert.Equal(t, "keep", dst.ErrorMessage)
	assert.Equal(t, 5, dst.Timeout)
	assert.Equal(t, "db", dst.ConnectionString)
	assert.Equal(t, 20, dst.MaxItems)
	assert.Equal(t, []string{"a", "b"}, dst.Hosts)
	assert.Empty(t, dst.Skipped)
}
