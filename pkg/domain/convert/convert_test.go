package convert

import (
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type color int

const (
	red color = iota
	green
	blue
)

func roundTrip(t *testing.T, r *Registry, v any) any {
	t.Helper()
	s, err := r.Format(reflect.ValueOf(v))
	require.NoError(t, err)
	out, err := r.Parse(s, reflect.TypeOf(v))
	require.NoError(t, err)
	return out.Interface()
}

func TestRegistry_RoundTrip(t *testing.T) {
	r := NewRegistry()
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name  string
		value any
	}{
		{"string", "hello world"},
		{"empty string", ""},
		{"int", 42},
		{"negative int64", int64(-9000000000)},
		{"int8", int8(-8)},
		{"uint16", uint16(65535)},
		{"uint64", uint64(18446744073709551615)},
		{"float32", float32(3.25)},
		{"float64", 3.141592653589793},
		{"bool true", true},
		{"bool false", false},
		{"duration", 90 * time.Second},
		{"uuid", id},
		{"nil uuid", uuid.Nil},
		{"decimal", decimal.RequireFromString("1234.5678")},
		{"bytes", []byte{0x00, 0x01, 0xfe, 0xff}},
		{"ip via text interfaces", net.ParseIP("10.0.0.1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundTrip(t, r, tt.value)
			if d, ok := tt.value.(decimal.Decimal); ok {
				assert.True(t, d.Equal(got.(decimal.Decimal)))
				return
			}
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestRegistry_Time(t *testing.T) {
	r := NewRegistry()
	ts := time.Date(2024, 2, 29, 13, 45, 7, 123456789, time.FixedZone("X", 3600))

	s, err := r.Format(reflect.ValueOf(ts))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29T13:45:07.123456789+01:00", s)

	got, err := r.Parse(s, reflect.TypeOf(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(got.Interface().(time.Time)))

	zero, err := r.Parse("", reflect.TypeOf(ts))
	require.NoError(t, err)
	assert.True(t, zero.Interface().(time.Time).IsZero())
}

func TestRegistry_EmptyNumericsAreZero(t *testing.T) {
	r := NewRegistry()
	for _, v := range []any{0, int64(0), uint(0), float64(0), float32(0)} {
		got, err := r.Parse("", reflect.TypeOf(v))
		require.NoError(t, err)
		assert.Equal(t, v, got.Interface())
	}
}

func TestRegistry_InvalidNumbers(t *testing.T) {
	r := NewRegistry()
	_, err := r.Parse("abc", reflect.TypeOf(0))
	assert.Error(t, err)
	_, err = r.Parse("300", reflect.TypeOf(int8(0)))
	assert.Error(t, err)
	_, err = r.Parse("-1", reflect.TypeOf(uint(0)))
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"on", true},
		{"ON", true},
		{"1", true},
		{"false", false},
		{"0", false},
		{"off", false},
		{"yes", false},
		{"", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBool(tt.in))
			got, err := FromString[bool](tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_Pointers(t *testing.T) {
	r := NewRegistry()
	typ := reflect.TypeOf((*int)(nil))

	for _, in := range []string{"", "null"} {
		got, err := r.Parse(in, typ)
		require.NoError(t, err)
		assert.True(t, got.IsNil(), "input %q", in)
	}

	got, err := r.Parse("17", typ)
	require.NoError(t, err)
	require.False(t, got.IsNil())
	assert.Equal(t, 17, *(got.Interface().(*int)))

	s, err := r.Format(reflect.ValueOf((*int)(nil)))
	require.NoError(t, err)
	assert.Equal(t, "", s)

	n := 5
	s, err = r.Format(reflect.ValueOf(&n))
	require.NoError(t, err)
	assert.Equal(t, "5", s)
}

func TestRegistry_Enum(t *testing.T) {
	r := NewRegistry()
	RegisterEnum(r, map[color]string{red: "Red", green: "Green", blue: "Blue"})

	assert.Equal(t, blue, roundTrip(t, r, blue))

	s, err := r.Format(reflect.ValueOf(green))
	require.NoError(t, err)
	assert.Equal(t, "Green", s)

	_, err = r.Parse("Purple", reflect.TypeOf(red))
	assert.Error(t, err)
	_, err = r.Parse("green", reflect.TypeOf(red))
	assert.Error(t, err, "enum names are case sensitive")
}

func TestRegistry_Lists(t *testing.T) {
	r := NewRegistry()

	values, err := r.FormatList(reflect.ValueOf([]int{3, 1, 2}))
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2"}, values)

	got, err := r.ParseList([]string{"a", "b", "c"}, reflect.TypeOf([]string{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got.Interface())

	_, err = r.ParseList([]string{"1", "x"}, reflect.TypeOf([]int{}))
	assert.Error(t, err)

	_, err = r.FormatList(reflect.ValueOf("not a list"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestIsList(t *testing.T) {
	assert.True(t, IsList(reflect.TypeOf([]string{})))
	assert.True(t, IsList(reflect.TypeOf([]time.Duration{})))
	assert.False(t, IsList(reflect.TypeOf("")))
	assert.False(t, IsList(reflect.TypeOf([]byte{})))
	assert.False(t, IsList(reflect.TypeOf(0)))
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	type nested struct{ A int }

	for _, typ := range []reflect.Type{
		reflect.TypeOf(map[string]int{}),
		reflect.TypeOf(nested{}),
		reflect.TypeOf(make(chan int)),
	} {
		_, err := r.Parse("x", typ)
		assert.ErrorIs(t, err, ErrUnsupportedType, typ.String())
		assert.False(t, r.Supports(typ), typ.String())
	}

	_, err := r.Format(reflect.ValueOf(map[string]int{"a": 1}))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestRegistry_Supports(t *testing.T) {
	r := NewRegistry()
	for _, v := range []any{"", 0, true, 1.5, []byte{}, []string{}, time.Time{}, uuid.Nil, (*int)(nil), net.IP{}} {
		assert.True(t, r.Supports(reflect.TypeOf(v)), reflect.TypeOf(v).String())
	}
}

func TestRegister_Custom(t *testing.T) {
	type celsius float64
	r := NewRegistry()
	Register(r,
		func(c celsius) (string, error) { return "C" + mustToString(float64(c)), nil },
		func(s string) (celsius, error) {
			f, err := FromString[float64](s[1:])
			return celsius(f), err
		},
	)
	assert.Equal(t, celsius(21.5), roundTrip(t, r, celsius(21.5)))
}

func mustToString(v any) string {
	s, err := ToString(v)
	if err != nil {
		panic(err)
	}
	return s
}

func TestFromString(t *testing.T) {
	n, err := FromString[int]("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	id, err := FromString[uuid.UUID]("")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)

	s, err := ToString(decimal.NewFromInt(7))
	require.NoError(t, err)
	assert.Equal(t, "7", s)
}
