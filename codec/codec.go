// Package codec holds serializers for structured values passed to Driver.Set
// and read back with nosql.Decode. Strings, byte slices and numbers bypass codecs.
package codec

import "fmt"

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Any adapts a typed codec to Codec[any] so it can be handed to a data source
// (WithCodec options take Codec[any]). Encode rejects values that are not a V.
func Any[V any](c Codec[V]) Codec[any] { return anyCodec[V]{inner: c} }

type anyCodec[V any] struct {
	inner Codec[V]
}

func (a anyCodec[V]) Encode(v any) ([]byte, error) {
	tv, ok := v.(V)
	if !ok {
		var zero V
		return nil, fmt.Errorf("codec: got %T, want %T", v, zero)
	}
	return a.inner.Encode(tv)
}

func (a anyCodec[V]) Decode(b []byte) (any, error) { return a.inner.Decode(b) }
