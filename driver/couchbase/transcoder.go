package couchbase

import (
	"errors"
	"fmt"
)

// binaryFlags is the common-flags encoding of "binary, uncompressed".
const binaryFlags uint32 = 3 << 24

var errTranscode = errors.New("couchbase transcoder: only []byte values are supported")

// rawTranscoder stores the bytes produced by nosql.Encode untouched and reads
// documents back regardless of flags, so counters written by the server
// (which carry no common flags) decode the same way as Set values.
type rawTranscoder struct{}

func (rawTranscoder) Encode(value interface{}) ([]byte, uint32, error) {
	switch v := value.(type) {
	case []byte:
		return v, binaryFlags, nil
	case *[]byte:
		if v != nil {
			return *v, binaryFlags, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: got %T", errTranscode, value)
}

func (rawTranscoder) Decode(b []byte, _ uint32, out interface{}) error {
	switch v := out.(type) {
	case *[]byte:
		*v = append([]byte(nil), b...)
		return nil
	case *interface{}:
		*v = append([]byte(nil), b...)
		return nil
	}
	return fmt.Errorf("%w: got %T", errTranscode, out)
}
