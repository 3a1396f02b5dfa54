// Package wire frames values for backends without native per-entry expiry
// (bbolt, bigcache). The frame carries the absolute expiry next to the payload.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"time"
)

const (
	version   byte = 1
	kindEntry byte = 1

	hdrLen = 4 + 1 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("nosql: corrupt entry")
	magic4     = [...]byte{'N', 'S', 'Q', 'L'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Entry is a decoded frame. Payload aliases the input buffer.
type Entry struct {
	ExpiresAt int64 // unix nanos; 0 => never
	Payload   []byte
}

// Expired reports whether the entry is past its deadline at now.
func (e Entry) Expired(now time.Time) bool {
	return e.ExpiresAt != 0 && now.UnixNano() >= e.ExpiresAt
}

// Deadline converts a relative TTL into the ExpiresAt stored in a frame.
// ttl <= 0 => 0 (no expiry). Deadlines past the int64 range saturate at
// math.MaxInt64 so a huge TTL never wraps into the past.
func Deadline(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	base := now.UnixNano()
	if base > 0 && int64(ttl) > math.MaxInt64-base {
		return math.MaxInt64
	}
	return base + int64(ttl)
}

// Entry: magic(4) | ver(1) | kind(1=entry) | expiresAt(i64 be) | vlen(u32 be) | payload(vlen)
func EncodeEntry(expiresAt int64, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(expiresAt))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

func DecodeEntry(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return Entry{}, ErrCorrupt
	}

	off := 6

	exp := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact: no trailing bytes
		return Entry{}, ErrCorrupt
	}

	return Entry{ExpiresAt: exp, Payload: b[off : off+vlen]}, nil
}
