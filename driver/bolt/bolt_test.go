package bolt

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/unkn0wn-root/nosql"
)

func newTestDriver(t *testing.T, bucket string) (*Driver, DataSource) {
	t.Helper()
	ds := NewDataSource(filepath.Join(t.TempDir(), "data.db"), bucket, WithOpenTimeout(time.Second))
	d := ds.Driver().(*Driver)
	if err := d.Connect(context.Background(), ds); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = d.Disconnect(context.Background()) })
	return d, ds
}

func TestConnectValidatesBeforeOpening(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cases := []struct {
		name  string
		ds    nosql.DataSource
		field string
	}{
		{"no path", NewDataSource("", "app"), "path"},
		{"no bucket", NewDataSource(filepath.Join(dir, "x.db"), ""), "bucket"},
		{"nil pointer", (*DataSource)(nil), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := (&Driver{}).Connect(ctx, tc.ds)
			var cerr *nosql.ConfigurationError
			if !errors.As(err, &cerr) || cerr.Field != tc.field {
				t.Fatalf("want ConfigurationError(%q), got %v", tc.field, err)
			}
		})
	}
}

func TestConnectFailsOnUnopenablePath(t *testing.T) {
	ds := NewDataSource(filepath.Join(t.TempDir(), "missing", "dir", "x.db"), "app")
	err := ds.Driver().(nosql.Server).Connect(context.Background(), ds)
	if !errors.Is(err, nosql.ErrConnection) {
		t.Fatalf("want connection error, got %v", err)
	}
}

func TestScenarioNamespaceCounter(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, "app")

	if err := d.Set(ctx, "counter", 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if n, err := d.Increment(ctx, "counter", 5); err != nil || n != 6 {
		t.Fatalf("Increment: %d %v", n, err)
	}
	if n, err := d.Decrement(ctx, "counter", 2); err != nil || n != 4 {
		t.Fatalf("Decrement: %d %v", n, err)
	}
	v, err := d.Get(ctx, "counter")
	if err != nil {
		t.Fatal(err)
	}
	if n, _ := v.Int64(); n != 4 {
		t.Fatalf("persisted: %q", v)
	}
}

func TestRoundTripAndMissing(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, "app")

	_ = d.Set(ctx, "user:1", "alice", 0)
	_ = d.Set(ctx, "empty", "", 0)
	if v, err := d.Get(ctx, "user:1"); err != nil || v.String() != "alice" {
		t.Fatalf("Get: %q %v", v, err)
	}
	if v, err := d.Get(ctx, "empty"); err != nil || len(v) != 0 {
		t.Fatalf("empty value should round-trip, got %q %v", v, err)
	}

	_ = d.Delete(ctx, "user:1")
	_, errGet := d.Get(ctx, "user:1")
	errDel := d.Delete(ctx, "user:1")
	_, errInc := d.Increment(ctx, "user:1", 1)
	_, errDec := d.Decrement(ctx, "user:1", 1)
	for _, err := range []error{errGet, errDel, errInc, errDec} {
		var kerr *nosql.KeyNotFoundError
		if !errors.As(err, &kerr) || kerr.Key != "user:1" {
			t.Fatalf("want KeyNotFound(user:1), got %v", err)
		}
	}
	if ok, err := d.Contains(ctx, "user:1"); err != nil || ok {
		t.Fatalf("Contains after delete: %v %v", ok, err)
	}
}

func TestExpiration(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, "app")

	now := time.Unix(1_700_000_000, 0)
	d.now = func() time.Time { return now }

	_ = d.Set(ctx, "session", "s", time.Minute)
	_ = d.Set(ctx, "hits", 10, time.Minute)
	if ok, _ := d.Contains(ctx, "session"); !ok {
		t.Fatalf("entry missing before expiry")
	}
	if n, err := d.Increment(ctx, "hits", 1); err != nil || n != 11 {
		t.Fatalf("Increment: %d %v", n, err)
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := d.Contains(ctx, "session"); ok {
		t.Fatalf("entry visible after expiry")
	}
	if _, err := d.Increment(ctx, "hits", 1); !nosql.IsKeyNotFound(err) {
		t.Fatalf("increment keeps the original expiry; want KeyNotFound, got %v", err)
	}
}

func TestIncrementNonInteger(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, "app")
	_ = d.Set(ctx, "name", "bob", 0)
	if _, err := d.Increment(ctx, "name", 1); !errors.Is(err, nosql.ErrOperationFailed) {
		t.Fatalf("want OperationFailed, got %v", err)
	}
}

func TestForeignBytesAreOperationFailures(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, "app")
	err := d.DB().Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte("app")).Put([]byte("raw"), []byte("not framed"))
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Get(ctx, "raw"); !errors.Is(err, nosql.ErrOperationFailed) {
		t.Fatalf("want OperationFailed, got %v", err)
	}
}

func TestFlushScopedToBucket(t *testing.T) {
	ctx := context.Background()
	d, ds := newTestDriver(t, "app")
	_ = d.Set(ctx, "a", "1", 0)
	_ = d.Set(ctx, "b", "2", 0)

	// a neighbouring bucket in the same file must survive
	err := d.DB().Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte("other"))
		if err != nil {
			return err
		}
		return b.Put([]byte("keep"), []byte("me"))
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := d.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	for _, k := range []string{"a", "b"} {
		if ok, err := d.Contains(ctx, k); err != nil || ok {
			t.Fatalf("%s survived flush: %v %v", k, ok, err)
		}
	}
	err = d.DB().View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte("other")).Get([]byte("keep")); string(v) != "me" {
			t.Errorf("other bucket touched: %q", v)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	// driver stays usable after flush
	if err := d.Set(ctx, "a", "again", 0); err != nil {
		t.Fatalf("Set after flush: %v", err)
	}
	if ds.Bucket() != "app" {
		t.Fatalf("bucket: %q", ds.Bucket())
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, "app")
	if err := d.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}
	if err := d.Disconnect(ctx); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
	if _, err := d.Get(ctx, "k"); !errors.Is(err, nosql.ErrConnection) {
		t.Fatalf("op after disconnect: %v", err)
	}
	if err := (&Driver{}).Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect without Connect: %v", err)
	}
}

func TestCounterOverflowIsRejected(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, "app")

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

func TestHugeExpirationKeepsValue(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDriver(t, "app")

	if err := d.Set(ctx, "k", "v", time.Duration(math.MaxInt64)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok, err := d.Contains(ctx, "k"); err != nil || !ok {
		t.Fatalf("Contains: %v %v", ok, err)
	}
	if v, err := d.Get(ctx, "k"); err != nil || v.String() != "v" {
		t.Fatalf("Get: %q %v", v, err)
	}
}
