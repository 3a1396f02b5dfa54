package nosql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unkn0wn-root/nosql/codec"
)

// Value is the raw stored representation of a value.
type Value []byte

func (v Value) Bytes() []byte  { return []byte(v) }
func (v Value) String() string { return string(v) }

// Int64 parses the value as a base-10 integer (counters are stored that way).
func (v Value) Int64() (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
}

func (v Value) Float64() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
}

func (v Value) Bool() (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(string(v)))
}

// Decode runs the stored bytes through c.
func Decode[V any](v Value, c codec.Codec[V]) (V, error) {
	return c.Decode(v)
}

// DefaultCodec serializes values Encode has no native text form for.
var DefaultCodec codec.Codec[any] = codec.JSON[any]{}

// Encode turns a value passed to Driver.Set into bytes.
// Strings and byte slices are stored verbatim; integers, floats and bools as
// their decimal text so they read back through Value.Int64/Float64/Bool and
// can be incremented. Anything else goes through c (DefaultCodec if nil).
func Encode(value any, c codec.Codec[any]) ([]byte, error) {
	switch v := value.(type) {
	case Value:
		return v, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case int:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int8:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int16:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int32:
		return strconv.AppendInt(nil, int64(v), 10), nil
	case int64:
		return strconv.AppendInt(nil, v, 10), nil
	case uint:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(v), 10), nil
	case uint64:
		return strconv.AppendUint(nil, v, 10), nil
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'g', -1, 32), nil
	case float64:
		return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
	case bool:
		return strconv.AppendBool(nil, v), nil
	}
	if c == nil {
		c = DefaultCodec
	}
	b, err := c.Encode(value)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", value, err)
	}
	return b, nil
}
