// Package redis adapts go-redis/v9 to nosql.Driver and nosql.Server.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
	"github.com/unkn0wn-root/nosql/internal/util"
)

var ErrNilClient = errors.New("redis driver: nil client")

// INCRBY creates missing keys; the script refuses to, so absence surfaces as redis.Nil.
var incrExisting = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
return redis.call('INCRBY', KEYS[1], ARGV[1])
`)

// Driver is the redis nosql.Driver. Build it through DataSource.Driver and
// Connect, or wrap an existing client with NewDriver.
type Driver struct {
	mu          sync.RWMutex
	rdb         goredis.UniversalClient
	codec       codec.Codec[any]
	closeClient bool
}

var (
	_ nosql.Driver = (*Driver)(nil)
	_ nosql.Server = (*Driver)(nil)
)

// Config wraps a client the caller already owns.
type Config struct {
	Client      goredis.UniversalClient
	Codec       codec.Codec[any]
	CloseClient bool // set true only if this driver exclusively owns the client
}

// NewDriver wraps an already configured client (cluster, sentinel, ...).
// The result is usable without Connect.
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Driver{rdb: cfg.Client, codec: cfg.Codec, closeClient: cfg.CloseClient}, nil
}

// Connect validates ds, dials and pings. ds must be this package's DataSource.
func (d *Driver) Connect(ctx context.Context, ds nosql.DataSource) error {
	rds, err := asDataSource(ds)
	if err != nil {
		return err
	}
	if rds.host == "" {
		return nosql.NewConfigurationError(Backend, "host", "required")
	}
	if !util.ValidPort(rds.Port()) {
		return nosql.NewConfigurationError(Backend, "port", fmt.Sprintf("invalid port %d", rds.Port()))
	}
	if rds.db < 0 {
		return nosql.NewConfigurationError(Backend, "db", fmt.Sprintf("invalid database index %d", rds.db))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rdb != nil {
		return &nosql.ConnectionError{Backend: Backend, Message: "already connected"}
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:        util.HostPort(rds.host, rds.Port()),
		Username:    rds.username,
		Password:    rds.password,
		DB:          rds.db,
		DialTimeout: rds.dialTimeout,
		ReadTimeout: rds.readTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nosql.NewConnectionError(Backend, err)
	}
	d.rdb = client
	d.codec = rds.codec
	d.closeClient = true
	return nil
}

// Disconnect releases the underlying client only when this driver owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (d *Driver) Disconnect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rdb == nil {
		return nil
	}
	rdb := d.rdb
	d.rdb = nil
	if d.closeClient {
		if err := rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return nosql.NewConnectionError(Backend, err)
		}
	}
	return nil
}

func (d *Driver) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	rdb, err := d.client()
	if err != nil {
		return err
	}
	b, err := nosql.Encode(value, d.codec)
	if err != nil {
		return nosql.NewOperationFailedError(Backend, "set", key, err)
	}
	if expiration < 0 {
		expiration = 0 // no expiry
	}
	if err := rdb.Set(ctx, key, b, expiration).Err(); err != nil {
		return classify("set", key, err)
	}
	return nil
}

func (d *Driver) Get(ctx context.Context, key string) (nosql.Value, error) {
	rdb, err := d.client()
	if err != nil {
		return nil, err
	}
	b, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, classify("get", key, err)
	}
	return nosql.Value(b), nil
}

func (d *Driver) Contains(ctx context.Context, key string) (bool, error) {
	rdb, err := d.client()
	if err != nil {
		return false, err
	}
	n, err := rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, classify("contains", key, err)
	}
	return n > 0, nil
}

func (d *Driver) Delete(ctx context.Context, key string) error {
	rdb, err := d.client()
	if err != nil {
		return err
	}
	n, err := rdb.Del(ctx, key).Result()
	if err != nil {
		return classify("delete", key, err)
	}
	if n == 0 {
		return nosql.NewKeyNotFoundError(key)
	}
	return nil
}

func (d *Driver) Increment(ctx context.Context, key string, offset int64) (int64, error) {
	rdb, err := d.client()
	if err != nil {
		return 0, err
	}
	v, err := incrExisting.Run(ctx, rdb, []string{key}, offset).Int64()
	if err != nil {
		return 0, classify("increment", key, err)
	}
	return v, nil
}

func (d *Driver) Decrement(ctx context.Context, key string, offset int64) (int64, error) {
	neg, err := nosql.NegateOffset(offset)
	if err != nil {
		return 0, nosql.NewOperationFailedError(Backend, "decrement", key, err)
	}
	return d.Increment(ctx, key, neg)
}

// Flush empties the selected database (FLUSHDB), not the whole server.
func (d *Driver) Flush(ctx context.Context) error {
	rdb, err := d.client()
	if err != nil {
		return err
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		return classify("flush", "", err)
	}
	return nil
}

// Native returns the goredis.UniversalClient (nil before Connect).
func (d *Driver) Native() any { return d.Client() }

// Client is the typed form of Native.
func (d *Driver) Client() goredis.UniversalClient {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rdb
}

func (d *Driver) client() (goredis.UniversalClient, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.rdb == nil {
		return nil, &nosql.ConnectionError{Backend: Backend, Message: "not connected"}
	}
	return d.rdb, nil
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

// classify maps go-redis errors onto the nosql taxonomy by type, not by message.
func classify(op, key string, err error) error {
	if errors.Is(err, goredis.Nil) {
		return nosql.NewKeyNotFoundError(key)
	}
	var nerr net.Error
	if errors.Is(err, goredis.ErrClosed) || errors.As(err, &nerr) {
		return nosql.NewConnectionError(Backend, err)
	}
	return nosql.NewOperationFailedError(Backend, op, key, err)
}
