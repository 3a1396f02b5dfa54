// Package bigcache adapts an in-process allegro/bigcache to nosql.Driver.
// It does not implement nosql.Server: there is nothing to connect to.
package bigcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
	"github.com/unkn0wn-root/nosql/internal/wire"
)

// Driver is the bigcache nosql.Driver. It is ready as soon as DataSource.Driver returns.
type Driver struct {
	c     *bc.BigCache
	err   error // construction failure, returned by every op
	codec codec.Codec[any]
	now   func() time.Time

	// bigcache has no compare-and-set; writers that read first hold wmu.
	wmu sync.Mutex
}

var _ nosql.Driver = (*Driver)(nil)

func newDriver(ds DataSource) *Driver {
	d := &Driver{codec: ds.codec, now: time.Now}

	conf := bc.DefaultConfig(ds.LifeWindow())
	conf.CleanWindow = 0 // no janitor goroutine; eviction happens on write
	conf.Verbose = false
	if ds.shards > 0 {
		conf.Shards = ds.shards
	}
	if ds.maxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = ds.maxEntriesInWindow
	}
	if ds.maxEntrySize > 0 {
		conf.MaxEntrySize = ds.maxEntrySize
	}
	if ds.hardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = ds.hardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		d.err = nosql.NewConfigurationError(Backend, "", err.Error())
		return d
	}
	d.c = c
	return d
}

func (d *Driver) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	if d.err != nil {
		return d.err
	}
	b, err := nosql.Encode(value, d.codec)
	if err != nil {
		return nosql.NewOperationFailedError(Backend, "set", key, err)
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	if err := d.c.Set(key, wire.EncodeEntry(wire.Deadline(d.now(), expiration), b)); err != nil {
		return nosql.NewOperationFailedError(Backend, "set", key, err)
	}
	return nil
}

func (d *Driver) Get(_ context.Context, key string) (nosql.Value, error) {
	if d.err != nil {
		return nil, d.err
	}
	e, err := d.lookup(key)
	if err != nil {
		return nil, classify("get", key, err)
	}
	return nosql.Value(e.Payload), nil
}

func (d *Driver) Contains(_ context.Context, key string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	_, err := d.lookup(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bc.ErrEntryNotFound):
		return false, nil
	}
	return false, classify("contains", key, err)
}

func (d *Driver) Delete(_ context.Context, key string) error {
	if d.err != nil {
		return d.err
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	if _, err := d.lookup(key); err != nil {
		return classify("delete", key, err)
	}
	if err := d.c.Delete(key); err != nil {
		return classify("delete", key, err)
	}
	return nil
}

func (d *Driver) Increment(_ context.Context, key string, offset int64) (int64, error) {
	if d.err != nil {
		return 0, d.err
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	e, err := d.lookup(key)
	if err != nil {
		return 0, classify("increment", key, err)
	}
	cur, err := nosql.Value(e.Payload).Int64()
	if err != nil {
		return 0, nosql.NewOperationFailedError(Backend, "increment", key, fmt.Errorf("value is not an integer: %w", err))
	}
	n, err := nosql.AddOffset(cur, offset)
	if err != nil {
		return 0, nosql.NewOperationFailedError(Backend, "increment", key, err)
	}
	if err := d.c.Set(key, wire.EncodeEntry(e.ExpiresAt, strconv.AppendInt(nil, n, 10))); err != nil {
		return 0, nosql.NewOperationFailedError(Backend, "increment", key, err)
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
	if d.err != nil {
		return d.err
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	if err := d.c.Reset(); err != nil {
		return nosql.NewOperationFailedError(Backend, "flush", "", err)
	}
	return nil
}

// Native returns the *bigcache.BigCache (nil if construction failed).
func (d *Driver) Native() any { return d.c }

// Cache is the typed form of Native.
func (d *Driver) Cache() *bc.BigCache { return d.c }

// lookup returns the live entry or bc.ErrEntryNotFound. Expired entries are
// left for bigcache's own eviction.
func (d *Driver) lookup(key string) (wire.Entry, error) {
	raw, err := d.c.Get(key)
	if err != nil {
		return wire.Entry{}, err
	}
	e, err := wire.DecodeEntry(raw)
	if err != nil {
		return wire.Entry{}, err
	}
	if e.Expired(d.now()) {
		return wire.Entry{}, bc.ErrEntryNotFound
	}
	return e, nil
}

func classify(op, key string, err error) error {
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nosql.NewKeyNotFoundError(key)
	}
	return nosql.NewOperationFailedError(Backend, op, key, err)
}
