package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type profile struct {
	ID      string            `json:"id" msgpack:"id" cbor:"id"`
	Age     int               `json:"age" msgpack:"age" cbor:"age"`
	Active  bool              `json:"active" msgpack:"active" cbor:"active"`
	Tags    []string          `json:"tags" msgpack:"tags" cbor:"tags"`
	Attrs   map[string]string `json:"attrs" msgpack:"attrs" cbor:"attrs"`
	Manager *profile          `json:"manager" msgpack:"manager" cbor:"manager"`
}

func sample() profile {
	return profile{
		ID:      "u1",
		Age:     42,
		Active:  true,
		Tags:    []string{"a", "b"},
		Attrs:   map[string]string{"tz": "UTC"},
		Manager: &profile{ID: "u0"},
	}
}

func TestCodecsRoundTripNestedValues(t *testing.T) {
	codecs := map[string]Codec[profile]{
		"json":    JSON[profile]{},
		"msgpack": Msgpack[profile]{},
		"cbor":    MustCBOR[profile](true),
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(sample())
			require.NoError(t, err)
			got, err := c.Decode(b)
			require.NoError(t, err)
			assert.Equal(t, sample(), got)
		})
	}
}

func TestJSONIsText(t *testing.T) {
	b, err := JSON[map[string]any]{}.Encode(map[string]any{"n": nil, "x": 1.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":null,"x":1.5}`, string(b))

	_, err = JSON[profile]{}.Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestJSONNullPointer(t *testing.T) {
	b, err := JSON[*profile]{}.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	got, err := JSON[*profile]{}.Decode(b)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCBORDeterministic(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	a, err := c.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		b, err := c.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestCBORTime(t *testing.T) {
	c := MustCBOR[time.Time](false)
	now := time.Date(2024, 5, 1, 12, 30, 0, 123, time.UTC)
	b, err := c.Encode(now)
	require.NoError(t, err)
	got, err := c.Decode(b)
	require.NoError(t, err)
	assert.True(t, now.Equal(got))
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("hello"))
	require.NoError(t, err)
	got, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.GetValue())
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	b, err := c.Encode("hello")
	require.NoError(t, err)
	_, err = c.Decode(b)
	assert.Error(t, err)

	got, err := c.Decode([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", got)

	unlimited := Limit[string]{Inner: String{}}
	got, err = unlimited.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestRaw(t *testing.T) {
	b, err := Bytes{}.Encode([]byte{0, 1, 2})
	require.NoError(t, err)
	got, err := Bytes{}.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2}, got)

	s, err := String{}.Decode([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", s)
}

func TestNamed(t *testing.T) {
	for _, name := range []string{"", "json", "JSON", "msgpack", "cbor"} {
		c, err := Named[profile](name, 0)
		require.NoError(t, err, name)
		b, err := c.Encode(sample())
		require.NoError(t, err)
		got, err := c.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, sample(), got)
	}

	_, err := Named[profile]("yaml", 0)
	assert.Error(t, err)

	c, err := Named[string]("json", 3)
	require.NoError(t, err)
	_, isLimit := c.(Limit[string])
	assert.True(t, isLimit)
}
