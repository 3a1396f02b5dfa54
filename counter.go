package nosql

import (
	"errors"
	"math"
)

// ErrCounterOverflow is the message of the OperationFailed error an
// adapter returns when a counter would leave the int64 range.
var ErrCounterOverflow = errors.New("increment or decrement would overflow")

// AddOffset returns cur+offset, or ErrCounterOverflow instead of wrapping.
// Adapters that compute counters client-side use it so every backend fails
// the way redis INCRBY does.
func AddOffset(cur, offset int64) (int64, error) {
	if (offset > 0 && cur > math.MaxInt64-offset) || (offset < 0 && cur < math.MinInt64-offset) {
		return 0, ErrCounterOverflow
	}
	return cur + offset, nil
}

// NegateOffset turns a Decrement offset into the equivalent Increment offset.
// math.MinInt64 has no positive counterpart and yields ErrCounterOverflow.
func NegateOffset(offset int64) (int64, error) {
	if offset == math.MinInt64 {
		return 0, ErrCounterOverflow
	}
	return -offset, nil
}
