package nosql

import (
	"errors"
	"math"
	"testing"
)

func TestAddOffset(t *testing.T) {
	cases := []struct {
		cur, offset int64
		want        int64
		overflow    bool
	}{
		{1, 5, 6, false},
		{4, -2, 2, false},
		{math.MaxInt64 - 1, 1, math.MaxInt64, false},
		{math.MaxInt64, 1, 0, true},
		{math.MinInt64 + 1, -1, math.MinInt64, false},
		{math.MinInt64, -1, 0, true},
		{-1, math.MinInt64, 0, true},
		{0, math.MinInt64, math.MinInt64, false},
		{math.MinInt64, math.MaxInt64, -1, false},
	}
	for _, tc := range cases {
		got, err := AddOffset(tc.cur, tc.offset)
		if tc.overflow {
			if !errors.Is(err, ErrCounterOverflow) {
				t.Fatalf("AddOffset(%d, %d): want overflow, got %d %v", tc.cur, tc.offset, got, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("AddOffset(%d, %d) = %d %v, want %d", tc.cur, tc.offset, got, err, tc.want)
		}
	}
}

func TestNegateOffset(t *testing.T) {
	if n, err := NegateOffset(3); err != nil || n != -3 {
		t.Fatalf("NegateOffset(3) = %d %v", n, err)
	}
	if n, err := NegateOffset(math.MaxInt64); err != nil || n != -math.MaxInt64 {
		t.Fatalf("NegateOffset(MaxInt64) = %d %v", n, err)
	}
	if _, err := NegateOffset(math.MinInt64); !errors.Is(err, ErrCounterOverflow) {
		t.Fatalf("NegateOffset(MinInt64): want overflow, got %v", err)
	}
}
