package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var errNoCtor = errors.New("codec: protobuf codec has no message constructor")

// Protobuf stores generated messages in their wire form. ctor returns a fresh
// message to decode into, e.g. func() *pb.User { return new(pb.User) }.
type Protobuf[T proto.Message] struct {
	ctor          func() T
	deterministic bool
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{ctor: ctor}
}

// Deterministic returns a copy that orders map entries on encode.
func (c Protobuf[T]) Deterministic() Protobuf[T] {
	c.deterministic = true
	return c
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: c.deterministic}.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.ctor == nil {
		var zero T
		return zero, errNoCtor
	}
	m := c.ctor()
	err := proto.Unmarshal(b, m)
	return m, err
}
