package ristretto

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/unkn0wn-root/nosql"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	ds := NewDataSource(WithSizing(1000, 1<<20, 64), WithMetrics(true))
	d := ds.Driver().(*Driver)
	if err := d.Connect(context.Background(), ds); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = d.Disconnect(context.Background()) })
	return d
}

func TestConnectValidation(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		ds    DataSource
		field string
	}{
		{NewDataSource(WithSizing(0, 1, 1)), "numCounters"},
		{NewDataSource(WithSizing(1, 0, 1)), "maxCost"},
		{NewDataSource(WithSizing(1, 1, 0)), "bufferItems"},
	}
	for _, tc := range cases {
		err := (&Driver{}).Connect(ctx, tc.ds)
		var cerr *nosql.ConfigurationError
		if !errors.As(err, &cerr) || cerr.Field != tc.field {
			t.Fatalf("want ConfigurationError(%s), got %v", tc.field, err)
		}
	}
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	d := &Driver{}
	if err := d.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect before Connect: %v", err)
	}
	if err := d.Set(ctx, "k", "v", 0); !errors.Is(err, nosql.ErrConnection) {
		t.Fatalf("Set before Connect: %v", err)
	}
	ds := NewDataSource()
	if err := d.Connect(ctx, ds); err != nil {
		t.Fatal(err)
	}
	if err := d.Connect(ctx, ds); !errors.Is(err, nosql.ErrConnection) {
		t.Fatalf("second Connect: %v", err)
	}
	if d.Native() == nil {
		t.Fatalf("Native after Connect")
	}
	if err := d.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}
	if err := d.Disconnect(ctx); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
}

func TestOperations(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	if err := d.Set(ctx, "user:1", "alice", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := d.Get(ctx, "user:1"); err != nil || v.String() != "alice" {
		t.Fatalf("Get: %q %v", v, err)
	}
	if ok, _ := d.Contains(ctx, "user:1"); !ok {
		t.Fatalf("Contains after set")
	}
	if err := d.Delete(ctx, "user:1"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Get(ctx, "user:1"); !nosql.IsKeyNotFound(err) {
		t.Fatalf("Get after delete: %v", err)
	}
	if err := d.Delete(ctx, "user:1"); !nosql.IsKeyNotFound(err) {
		t.Fatalf("Delete missing: %v", err)
	}

	_ = d.Set(ctx, "counter", 1, 0)
	if n, err := d.Increment(ctx, "counter", 5); err != nil || n != 6 {
		t.Fatalf("Increment: %d %v", n, err)
	}
	if n, err := d.Decrement(ctx, "counter", 2); err != nil || n != 4 {
		t.Fatalf("Decrement: %d %v", n, err)
	}
	if _, err := d.Decrement(ctx, "nope", 1); !nosql.IsKeyNotFound(err) {
		t.Fatalf("Decrement missing: %v", err)
	}

	if err := d.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if ok, err := d.Contains(ctx, "counter"); err != nil || ok {
		t.Fatalf("after flush: %v %v", ok, err)
	}
}

func TestCounterOverflowIsRejected(t *testing.T) {
	ctx := context.Background()
	d := newTestDriver(t)

	_ = d.Set(ctx, "hi", int64(math.MaxInt64), 0)
	_ = d.Set(ctx, "lo", int64(math.MinInt64), 0)
	if _, err := d.Increment(ctx, "hi", 1); !errors.Is(err, nosql.ErrOperationFailed) {
		t.Fatalf("Increment past MaxInt64: want OperationFailed, got %v", err)
	}
	if _, err := d.Decrement(ctx, "lo", 1); !errors.Is(err, nosql.ErrOperationFailed) {
		t.Fatalf("Decrement past MinInt64: want OperationFailed, got %v", err)
	}
	// the stored values are untouched by the rejected updates
	if v, _ := d.Get(ctx, "hi"); v.String() != "9223372036854775807" {
		t.Fatalf("hi changed: %q", v)
	}

	_ = d.Set(ctx, "zero", 0, 0)
	if _, err := d.Decrement(ctx, "zero", math.MinInt64); !errors.Is(err, nosql.ErrOperationFailed) {
		t.Fatalf("Decrement by MinInt64: want OperationFailed, got %v", err)
	}
	if n, err := d.Decrement(ctx, "zero", math.MaxInt64); err != nil || n != -math.MaxInt64 {
		t.Fatalf("Decrement by MaxInt64: %d %v", n, err)
	}
}
