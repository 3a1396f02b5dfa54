// Package couchbase adapts gocb/v2 to nosql.Driver and nosql.Server.
// All operations target the default collection of the configured bucket.
package couchbase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/couchbase/gocb/v2"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
	"github.com/unkn0wn-root/nosql/internal/util"
)

// noCreate as IncrementOptions.Initial makes the server reject counters on missing documents.
const noCreate = -1

// Driver is the couchbase nosql.Driver, bound to one bucket after Connect.
type Driver struct {
	mu         sync.RWMutex
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	collection *gocb.Collection
	codec      codec.Codec[any]
	tc         gocb.Transcoder
}

var (
	_ nosql.Driver = (*Driver)(nil)
	_ nosql.Server = (*Driver)(nil)
)

// Connect validates ds, bootstraps the cluster and waits until the bucket is ready.
func (d *Driver) Connect(ctx context.Context, ds nosql.DataSource) error {
	cds, err := asDataSource(ds)
	if err != nil {
		return err
	}
	if cds.host == "" {
		return nosql.NewConfigurationError(Backend, "host", "required")
	}
	if !util.ValidPort(cds.Port()) {
		return nosql.NewConfigurationError(Backend, "port", fmt.Sprintf("invalid port %d", cds.Port()))
	}
	if cds.bucket.name == "" {
		return nosql.NewConfigurationError(Backend, "bucket", "name required")
	}
	user, pass, ok := cds.credentials()
	if !ok {
		return nosql.NewConfigurationError(Backend, "credentials", "username and password (or bucket password) required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cluster != nil {
		return &nosql.ConnectionError{Backend: Backend, Message: "already connected"}
	}

	timeout := cds.ConnectTimeout()
	cluster, err := gocb.Connect("couchbase://"+util.HostPort(cds.host, cds.Port()), gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{Username: user, Password: pass},
		TimeoutsConfig: gocb.TimeoutsConfig{
			ConnectTimeout: timeout,
		},
	})
	if err != nil {
		return nosql.NewConnectionError(Backend, err)
	}
	bucket := cluster.Bucket(cds.bucket.name)
	if err := bucket.WaitUntilReady(timeout, &gocb.WaitUntilReadyOptions{Context: ctx}); err != nil {
		_ = cluster.Close(nil)
		return nosql.NewConnectionError(Backend, err)
	}

	d.cluster = cluster
	d.bucket = bucket
	d.collection = bucket.DefaultCollection()
	d.codec = cds.codec
	d.tc = rawTranscoder{}
	return nil
}

// Disconnect closes the cluster handle. No-op when not connected.
func (d *Driver) Disconnect(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cluster == nil {
		return nil
	}
	cluster := d.cluster
	d.cluster, d.bucket, d.collection = nil, nil, nil
	if err := cluster.Close(nil); err != nil {
		return nosql.NewConnectionError(Backend, err)
	}
	return nil
}

func (d *Driver) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	coll, err := d.coll()
	if err != nil {
		return err
	}
	b, err := nosql.Encode(value, d.codec)
	if err != nil {
		return nosql.NewOperationFailedError(Backend, "set", key, err)
	}
	opts := &gocb.UpsertOptions{Transcoder: d.tc, Context: ctx}
	if expiration > 0 {
		opts.Expiry = expiration
	}
	if _, err := coll.Upsert(key, b, opts); err != nil {
		return classify("set", key, err)
	}
	return nil
}

func (d *Driver) Get(ctx context.Context, key string) (nosql.Value, error) {
	coll, err := d.coll()
	if err != nil {
		return nil, err
	}
	res, err := coll.Get(key, &gocb.GetOptions{Transcoder: d.tc, Context: ctx})
	if err != nil {
		return nil, classify("get", key, err)
	}
	var b []byte
	if err := res.Content(&b); err != nil {
		return nil, nosql.NewOperationFailedError(Backend, "get", key, err)
	}
	return nosql.Value(b), nil
}

func (d *Driver) Contains(ctx context.Context, key string) (bool, error) {
	coll, err := d.coll()
	if err != nil {
		return false, err
	}
	res, err := coll.Exists(key, &gocb.ExistsOptions{Context: ctx})
	if err != nil {
		if errors.Is(err, gocb.ErrDocumentNotFound) {
			return false, nil
		}
		return false, classify("contains", key, err)
	}
	return res.Exists(), nil
}

func (d *Driver) Delete(ctx context.Context, key string) error {
	coll, err := d.coll()
	if err != nil {
		return err
	}
	if _, err := coll.Remove(key, &gocb.RemoveOptions{Context: ctx}); err != nil {
		return classify("delete", key, err)
	}
	return nil
}

// Increment uses server-side counters. Couchbase counters are unsigned:
// decrementing below zero clamps at 0.
func (d *Driver) Increment(ctx context.Context, key string, offset int64) (int64, error) {
	coll, err := d.coll()
	if err != nil {
		return 0, err
	}
	bin := coll.Binary()
	var res *gocb.CounterResult
	if offset >= 0 {
		res, err = bin.Increment(key, &gocb.IncrementOptions{Delta: uint64(offset), Initial: noCreate, Context: ctx})
	} else {
		res, err = bin.Decrement(key, &gocb.DecrementOptions{Delta: uint64(-offset), Initial: noCreate, Context: ctx})
	}
	if err != nil {
		return 0, classify("increment", key, err)
	}
	if res.Content() > math.MaxInt64 {
		return 0, nosql.NewOperationFailedError(Backend, "increment", key, nosql.ErrCounterOverflow)
	}
	return int64(res.Content()), nil
}

func (d *Driver) Decrement(ctx context.Context, key string, offset int64) (int64, error) {
	neg, err := nosql.NegateOffset(offset)
	if err != nil {
		return 0, nosql.NewOperationFailedError(Backend, "decrement", key, err)
	}
	return d.Increment(ctx, key, neg)
}

// Flush empties the bucket. Flush must be enabled on the bucket server-side.
func (d *Driver) Flush(ctx context.Context) error {
	d.mu.RLock()
	cluster, bucket := d.cluster, d.bucket
	d.mu.RUnlock()
	if cluster == nil {
		return errNotConnected()
	}
	if err := cluster.Buckets().FlushBucket(bucket.Name(), &gocb.FlushBucketOptions{Context: ctx}); err != nil {
		return classify("flush", "", err)
	}
	return nil
}

// Native returns the *gocb.Bucket (nil before Connect).
func (d *Driver) Native() any { return d.Bucket() }

// Bucket is the typed form of Native.
func (d *Driver) Bucket() *gocb.Bucket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bucket
}

func (d *Driver) coll() (*gocb.Collection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.collection == nil {
		return nil, errNotConnected()
	}
	return d.collection, nil
}

func errNotConnected() error {
	return &nosql.ConnectionError{Backend: Backend, Message: "not connected"}
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

// classify maps gocb's structured errors onto the nosql taxonomy.
func classify(op, key string, err error) error {
	switch {
	case errors.Is(err, gocb.ErrDocumentNotFound):
		return nosql.NewKeyNotFoundError(key)
	case errors.Is(err, gocb.ErrAuthenticationFailure),
		errors.Is(err, gocb.ErrBucketNotFound),
		errors.Is(err, gocb.ErrServiceNotAvailable):
		return nosql.NewConnectionError(Backend, err)
	}
	return nosql.NewOperationFailedError(Backend, op, key, err)
}
