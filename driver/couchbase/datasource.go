package couchbase

import (
	"time"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
)

const (
	Backend     = "couchbase"
	DefaultPort = 11210 // key-value service
)

// BucketInformation names the bucket (namespace) a driver works in.
type BucketInformation struct {
	name     string
	password string
}

// NewBucketInformation names a bucket and its (legacy) password.
func NewBucketInformation(name, password string) BucketInformation {
	return BucketInformation{name: name, password: password}
}

func (b BucketInformation) Name() string     { return b.name }
func (b BucketInformation) Password() string { return b.password }

// DataSource holds couchbase cluster and bucket settings. Immutable once built.
type DataSource struct {
	host     string
	port     int
	username string
	password string
	bucket   BucketInformation

	connectTimeout time.Duration
	codec          codec.Codec[any]
}

var _ nosql.DataSource = DataSource{}

// Option customizes a DataSource.
type Option func(*DataSource)

func WithPort(port int) Option { return func(ds *DataSource) { ds.port = port } }

// WithCredentials sets the RBAC user.
func WithCredentials(username, password string) Option {
	return func(ds *DataSource) {
		ds.username = username
		ds.password = password
	}
}

// WithBucket selects the bucket. A bucket password without a username
// authenticates as the bucket-named user (pre-RBAC clusters migrated to 5.x+).
// A bucket with an empty password still needs WithCredentials: Connect
// rejects a data source that has no way to authenticate.
func WithBucket(name, password string) Option {
	return func(ds *DataSource) { ds.bucket = NewBucketInformation(name, password) }
}

// WithConnectTimeout bounds cluster bootstrap and bucket readiness. 0 => 10s.
func WithConnectTimeout(d time.Duration) Option {
	return func(ds *DataSource) { ds.connectTimeout = d }
}

func WithCodec(c codec.Codec[any]) Option { return func(ds *DataSource) { ds.codec = c } }

// NewDataSource returns the settings for the cluster node at host.
func NewDataSource(host string, opts ...Option) DataSource {
	ds := DataSource{host: host}
	for _, o := range opts {
		o(&ds)
	}
	return ds
}

func (ds DataSource) Backend() string      { return Backend }
func (ds DataSource) DefaultPort() int     { return DefaultPort }
func (ds DataSource) Driver() nosql.Driver { return &Driver{} }

func (ds DataSource) Host() string                  { return ds.host }
func (ds DataSource) Username() string              { return ds.username }
func (ds DataSource) Password() string              { return ds.password }
func (ds DataSource) BucketInfo() BucketInformation { return ds.bucket }

func (ds DataSource) Port() int {
	if ds.port == 0 {
		return DefaultPort
	}
	return ds.port
}

func (ds DataSource) ConnectTimeout() time.Duration {
	if ds.connectTimeout <= 0 {
		return 10 * time.Second
	}
	return ds.connectTimeout
}

// credentials resolves the user the cluster authenticates as.
func (ds DataSource) credentials() (user, pass string, ok bool) {
	switch {
	case ds.username != "" && ds.password != "":
		return ds.username, ds.password, true
	case ds.username == "" && ds.bucket.password != "":
		return ds.bucket.name, ds.bucket.password, true
	}
	return "", "", false
}
