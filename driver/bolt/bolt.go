// Package bolt adapts an embedded bbolt file to nosql.Driver and nosql.Server.
// One driver works inside one bucket; Flush drops and recreates it.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
	bolterr "go.etcd.io/bbolt/errors"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
	"github.com/unkn0wn-root/nosql/internal/wire"
)

// Driver is the bbolt nosql.Driver. It owns the database file between Connect and Disconnect.
type Driver struct {
	mu     sync.RWMutex
	db     *bolt.DB
	bucket []byte
	codec  codec.Codec[any]
	now    func() time.Time
}

var (
	_ nosql.Driver = (*Driver)(nil)
	_ nosql.Server = (*Driver)(nil)
)

// Connect opens the file and creates the bucket if needed.
func (d *Driver) Connect(_ context.Context, ds nosql.DataSource) error {
	bds, err := asDataSource(ds)
	if err != nil {
		return err
	}
	if bds.path == "" {
		return nosql.NewConfigurationError(Backend, "path", "required")
	}
	if bds.bucket == "" {
		return nosql.NewConfigurationError(Backend, "bucket", "required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db != nil {
		return &nosql.ConnectionError{Backend: Backend, Message: "already connected"}
	}

	db, err := bolt.Open(bds.path, bds.FileMode(), &bolt.Options{Timeout: bds.openTimeout})
	if err != nil {
		return nosql.NewConnectionError(Backend, fmt.Errorf("opening bolt db: %w", err))
	}
	bucket := []byte(bds.bucket)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nosql.NewConnectionError(Backend, fmt.Errorf("creating bucket: %w", err))
	}

	d.db = db
	d.bucket = bucket
	d.codec = bds.codec
	if d.now == nil {
		d.now = time.Now
	}
	return nil
}

func (d *Driver) Disconnect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	db := d.db
	d.db = nil
	if err := db.Close(); err != nil {
		return nosql.NewConnectionError(Backend, err)
	}
	return nil
}

func (d *Driver) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	db, err := d.handle()
	if err != nil {
		return err
	}
	b, err := nosql.Encode(value, d.codec)
	if err != nil {
		return nosql.NewOperationFailedError(Backend, "set", key, err)
	}
	frame := wire.EncodeEntry(wire.Deadline(d.now(), expiration), b)
	err = db.Update(func(tx *bolt.Tx) error {
		return d.bkt(tx).Put([]byte(key), frame)
	})
	if err != nil {
		return classify("set", key, err)
	}
	return nil
}

func (d *Driver) Get(_ context.Context, key string) (nosql.Value, error) {
	db, err := d.handle()
	if err != nil {
		return nil, err
	}
	out := nosql.Value{}
	err = db.View(func(tx *bolt.Tx) error {
		e, ok, err := d.lookup(tx, key)
		if err != nil {
			return err
		}
		if !ok {
			return nosql.NewKeyNotFoundError(key)
		}
		// bbolt memory is only valid inside the tx
		out = append(out, e.Payload...)
		return nil
	})
	if err != nil {
		return nil, classify("get", key, err)
	}
	return out, nil
}

func (d *Driver) Contains(_ context.Context, key string) (bool, error) {
	db, err := d.handle()
	if err != nil {
		return false, err
	}
	var found bool
	err = db.View(func(tx *bolt.Tx) error {
		_, ok, err := d.lookup(tx, key)
		found = ok
		return err
	})
	if err != nil {
		return false, classify("contains", key, err)
	}
	return found, nil
}

func (d *Driver) Delete(_ context.Context, key string) error {
	db, err := d.handle()
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, ok, err := d.lookup(tx, key)
		if err != nil {
			return err
		}
		if !ok {
			return nosql.NewKeyNotFoundError(key)
		}
		return d.bkt(tx).Delete([]byte(key))
	})
	if err != nil {
		return classify("delete", key, err)
	}
	return nil
}

// Increment reads, adds and writes back in one read-write transaction;
// bbolt serializes writers, so the update is atomic. The entry keeps its expiry.
func (d *Driver) Increment(_ context.Context, key string, offset int64) (int64, error) {
	db, err := d.handle()
	if err != nil {
		return 0, err
	}
	var n int64
	err = db.Update(func(tx *bolt.Tx) error {
		e, ok, err := d.lookup(tx, key)
		if err != nil {
			return err
		}
		if !ok {
			return nosql.NewKeyNotFoundError(key)
		}
		cur, err := nosql.Value(e.Payload).Int64()
		if err != nil {
			return fmt.Errorf("value is not an integer: %w", err)
		}
		if n, err = nosql.AddOffset(cur, offset); err != nil {
			return err
		}
		frame := wire.EncodeEntry(e.ExpiresAt, strconv.AppendInt(nil, n, 10))
		return d.bkt(tx).Put([]byte(key), frame)
	})
	if err != nil {
		return 0, classify("increment", key, err)
	}
	return n, nil
}

func (d *Driver) Decrement(ctx context.Context, key string, offset int64) (int64, error) {
	neg, err := nosql.NegateOffset(offset)
	if err != nil {
		return 0, nosql.NewOperationFailedError(Backend, "decrement", key, err)
	}
	return d.Increment(ctx, key, neg)
}

func (d *Driver) Flush(context.Context) error {
	db, err := d.handle()
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(d.bucket); err != nil && !errors.Is(err, bolterr.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(d.bucket)
		return err
	})
	if err != nil {
		return classify("flush", "", err)
	}
	return nil
}

// Native returns the *bolt.DB (nil before Connect).
func (d *Driver) Native() any { return d.DB() }

// DB is the typed form of Native.
func (d *Driver) DB() *bolt.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

func (d *Driver) handle() (*bolt.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.db == nil {
		return nil, &nosql.ConnectionError{Backend: Backend, Message: "not connected"}
	}
	return d.db, nil
}

func (d *Driver) bkt(tx *bolt.Tx) *bolt.Bucket { return tx.Bucket(d.bucket) }

// lookup returns the live entry for key. Expired entries read as absent and are
// removed when tx is writable. Frames this driver did not write are reported as corrupt.
func (d *Driver) lookup(tx *bolt.Tx, key string) (wire.Entry, bool, error) {
	b := d.bkt(tx)
	if b == nil {
		return wire.Entry{}, false, nil
	}
	raw := b.Get([]byte(key))
	if raw == nil {
		return wire.Entry{}, false, nil
	}
	e, err := wire.DecodeEntry(raw)
	if err != nil {
		return wire.Entry{}, false, err
	}
	if e.Expired(d.now()) {
		if tx.Writable() {
			if err := b.Delete([]byte(key)); err != nil {
				return wire.Entry{}, false, err
			}
		}
		return wire.Entry{}, false, nil
	}
	return e, true, nil
}

func asDataSource(ds nosql.DataSource) (DataSource, error) {
	switch v := ds.(type) {
	case DataSource:
		return v, nil
	case *DataSource:
		if v != nil {
			return *v, nil
		}
	}
	return DataSource{}, nosql.NewConfigurationError(Backend, "", fmt.Sprintf("invalid data source type %T", ds))
}

func classify(op, key string, err error) error {
	var kerr *nosql.KeyNotFoundError
	if errors.As(err, &kerr) {
		return kerr
	}
	if errors.Is(err, bolterr.ErrDatabaseNotOpen) || errors.Is(err, bolterr.ErrTimeout) {
		return nosql.NewConnectionError(Backend, err)
	}
	return nosql.NewOperationFailedError(Backend, op, key, err)
}
