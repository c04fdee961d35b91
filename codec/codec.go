// Package codec converts cached values to and from the bytes held by the store.
// Every codec must round-trip: Decode(Encode(v)) is deep-equal to v.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
