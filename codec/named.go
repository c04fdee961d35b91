package codec

import (
	"fmt"
	"strings"
)

// Named returns the codec registered under name ("json", "msgpack", "cbor").
// maxDecode > 0 wraps the result in Limit.
func Named[V any](name string, maxDecode int) (Codec[V], error) {
	var c Codec[V]
	switch strings.ToLower(name) {
	case "", "json":
		c = JSON[V]{}
	case "msgpack":
		c = Msgpack[V]{}
	case "cbor":
		cb, err := NewCBOR[V](false)
		if err != nil {
			return nil, err
		}
		c = cb
	default:
		return nil, fmt.Errorf("codec: unknown codec %q", name)
	}
	if maxDecode > 0 {
		c = Limit[V]{Inner: c, MaxDecode: maxDecode}
	}
	return c, nil
}
