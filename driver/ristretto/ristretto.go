// Package ristretto adapts dgraph-io/ristretto to nosql.Driver and nosql.Server.
// Ristretto is admission-controlled: under pressure Set may be refused, which
// surfaces as an OperationFailed error.
package ristretto

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
)

var errRejected = errors.New("write rejected by admission policy")

// Driver is the ristretto nosql.Driver. Connect builds the cache.
type Driver struct {
	mu    sync.RWMutex // guards c
	c     *rc.Cache
	codec codec.Codec[any]

	// ristretto has no compare-and-set; read-modify-write ops hold wmu.
	wmu sync.Mutex
}

var (
	_ nosql.Driver = (*Driver)(nil)
	_ nosql.Server = (*Driver)(nil)
)

func (d *Driver) Connect(_ context.Context, ds nosql.DataSource) error {
	rds, err := asDataSource(ds)
	if err != nil {
		return err
	}
	switch {
	case rds.numCounters <= 0:
		return nosql.NewConfigurationError(Backend, "numCounters", "must be positive")
	case rds.maxCost <= 0:
		return nosql.NewConfigurationError(Backend, "maxCost", "must be positive")
	case rds.bufferItems <= 0:
		return nosql.NewConfigurationError(Backend, "bufferItems", "must be positive")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.c != nil {
		return &nosql.ConnectionError{Backend: Backend, Message: "already connected"}
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: rds.numCounters,
		MaxCost:     rds.maxCost,
		BufferItems: rds.bufferItems,
		Metrics:     rds.metrics,
	})
	if err != nil {
		return nosql.NewConfigurationError(Backend, "", err.Error())
	}
	d.c = c
	d.codec = rds.codec
	return nil
}

func (d *Driver) Disconnect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.c == nil {
		return nil
	}
	d.c.Close()
	d.c = nil
	return nil
}

func (d *Driver) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	c, err := d.cache()
	if err != nil {
		return err
	}
	b, err := nosql.Encode(value, d.codec)
	if err != nil {
		return nosql.NewOperationFailedError(Backend, "set", key, err)
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	return d.put(c, "set", key, b, expiration)
}

func (d *Driver) Get(_ context.Context, key string) (nosql.Value, error) {
	c, err := d.cache()
	if err != nil {
		return nil, err
	}
	v, ok := lookup(c, key)
	if !ok {
		return nil, nosql.NewKeyNotFoundError(key)
	}
	return append(nosql.Value{}, v...), nil
}

func (d *Driver) Contains(_ context.Context, key string) (bool, error) {
	c, err := d.cache()
	if err != nil {
		return false, err
	}
	_, ok := lookup(c, key)
	return ok, nil
}

func (d *Driver) Delete(_ context.Context, key string) error {
	c, err := d.cache()
	if err != nil {
		return err
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	if _, ok := lookup(c, key); !ok {
		return nosql.NewKeyNotFoundError(key)
	}
	c.Del(key)
	c.Wait()
	return nil
}

func (d *Driver) Increment(_ context.Context, key string, offset int64) (int64, error) {
	c, err := d.cache()
	if err != nil {
		return 0, err
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	v, ok := lookup(c, key)
	if !ok {
		return 0, nosql.NewKeyNotFoundError(key)
	}
	cur, err := v.Int64()
	if err != nil {
		return 0, nosql.NewOperationFailedError(Backend, "increment", key, fmt.Errorf("value is not an integer: %w", err))
	}
	n, err := nosql.AddOffset(cur, offset)
	if err != nil {
		return 0, nosql.NewOperationFailedError(Backend, "increment", key, err)
	}
	ttl, _ := c.GetTTL(key) // 0 => no expiry, kept as is
	if err := d.put(c, "increment", key, strconv.AppendInt(nil, n, 10), ttl); err != nil {
		return 0, err
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
	c, err := d.cache()
	if err != nil {
		return err
	}
	d.wmu.Lock()
	defer d.wmu.Unlock()
	c.Clear()
	return nil
}

// Native returns the *ristretto.Cache (nil before Connect).
func (d *Driver) Native() any { return d.Cache() }

// Cache is the typed form of Native.
func (d *Driver) Cache() *rc.Cache {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.c
}

// Metrics exposes ristretto metrics when enabled on the data source.
func (d *Driver) Metrics() *rc.Metrics {
	if c := d.Cache(); c != nil {
		return c.Metrics
	}
	return nil
}

func (d *Driver) cache() (*rc.Cache, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.c == nil {
		return nil, &nosql.ConnectionError{Backend: Backend, Message: "not connected"}
	}
	return d.c, nil
}

// put writes synchronously: Wait flushes ristretto's set buffer so the value
// is visible to the next Get.
func (d *Driver) put(c *rc.Cache, op, key string, b []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if !c.SetWithTTL(key, nosql.Value(b), int64(len(b))+int64(len(key)), ttl) {
		return nosql.NewOperationFailedError(Backend, op, key, errRejected)
	}
	c.Wait()
	if _, ok := c.Get(key); !ok {
		return nosql.NewOperationFailedError(Backend, op, key, errRejected)
	}
	return nil
}

func lookup(c *rc.Cache, key string) (nosql.Value, bool) {
	v, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.(nosql.Value)
	if !ok {
		// self-heal: drop entries written around this driver
		c.Del(key)
		return nil, false
	}
	return b, true
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
