package redis

import (
	"time"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
)

const (
	Backend     = "redis"
	DefaultPort = 6379
)

// DataSource holds redis connection settings. Build it with NewDataSource;
// it is immutable afterwards.
type DataSource struct {
	host     string
	port     int
	username string
	password string
	db       int

	dialTimeout time.Duration
	readTimeout time.Duration
	codec       codec.Codec[any]
}

var _ nosql.DataSource = DataSource{}

// Option customizes a DataSource.
type Option func(*DataSource)

// WithPort overrides DefaultPort.
func WithPort(port int) Option { return func(ds *DataSource) { ds.port = port } }

// WithCredentials sets ACL username (may be empty) and password.
func WithCredentials(username, password string) Option {
	return func(ds *DataSource) {
		ds.username = username
		ds.password = password
	}
}

// WithDB selects the logical database; Flush empties only this one.
func WithDB(db int) Option { return func(ds *DataSource) { ds.db = db } }

// WithTimeouts sets dial and read timeouts on the native client. 0 keeps go-redis defaults.
func WithTimeouts(dial, read time.Duration) Option {
	return func(ds *DataSource) {
		ds.dialTimeout = dial
		ds.readTimeout = read
	}
}

// WithCodec sets the codec for structured values (nosql.DefaultCodec if unset).
func WithCodec(c codec.Codec[any]) Option { return func(ds *DataSource) { ds.codec = c } }

// NewDataSource returns the settings for the redis server at host.
func NewDataSource(host string, opts ...Option) DataSource {
	ds := DataSource{host: host}
	for _, o := range opts {
		o(&ds)
	}
	return ds
}

func (ds DataSource) Backend() string  { return Backend }
func (ds DataSource) DefaultPort() int { return DefaultPort }
func (ds DataSource) Driver() nosql.Driver {
	return &Driver{}
}

func (ds DataSource) Host() string     { return ds.host }
func (ds DataSource) Username() string { return ds.username }
func (ds DataSource) Password() string { return ds.password }
func (ds DataSource) DB() int          { return ds.db }

// Port returns the configured port or DefaultPort.
func (ds DataSource) Port() int {
	if ds.port == 0 {
		return DefaultPort
	}
	return ds.port
}
