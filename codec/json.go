package codec

import "github.com/goccy/go-json"

// JSON is the default codec. Output is plain JSON text, so entries stay
// readable from redis-cli and interoperable with other languages.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
