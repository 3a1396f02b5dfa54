package bigcache

import (
	"time"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
)

const Backend = "bigcache"

// defaultLifeWindow stands in for "no expiry": bigcache evicts anything older
// than LifeWindow regardless of the per-entry expiration.
const defaultLifeWindow = 10 * 365 * 24 * time.Hour

// DataSource configures an in-process bigcache. There is no host: the cache
// lives in this process and needs no connect step.
type DataSource struct {
	shards             int
	lifeWindow         time.Duration
	maxEntriesInWindow int
	maxEntrySize       int
	hardMaxCacheSizeMB int
	codec              codec.Codec[any]
}

var _ nosql.DataSource = DataSource{}

// Option customizes a DataSource.
type Option func(*DataSource)

// WithShards sets the shard count (power of two). 0 => bigcache default.
func WithShards(n int) Option { return func(ds *DataSource) { ds.shards = n } }

// WithLifeWindow caps the age of every entry.
func WithLifeWindow(d time.Duration) Option { return func(ds *DataSource) { ds.lifeWindow = d } }

// WithSizing tunes initial allocation and the memory ceiling (0 = unlimited).
func WithSizing(maxEntriesInWindow, maxEntrySize, hardMaxCacheSizeMB int) Option {
	return func(ds *DataSource) {
		ds.maxEntriesInWindow = maxEntriesInWindow
		ds.maxEntrySize = maxEntrySize
		ds.hardMaxCacheSizeMB = hardMaxCacheSizeMB
	}
}

func WithCodec(c codec.Codec[any]) Option { return func(ds *DataSource) { ds.codec = c } }

// NewDataSource returns bigcache settings with library defaults and a 10 year life window.
func NewDataSource(opts ...Option) DataSource {
	var ds DataSource
	for _, o := range opts {
		o(&ds)
	}
	return ds
}

func (ds DataSource) Backend() string  { return Backend }
func (ds DataSource) DefaultPort() int { return 0 }

// Driver builds a fresh cache. A bad configuration is reported by every
// operation on the returned driver as a *nosql.ConfigurationError.
func (ds DataSource) Driver() nosql.Driver { return newDriver(ds) }

func (ds DataSource) LifeWindow() time.Duration {
	if ds.lifeWindow <= 0 {
		return defaultLifeWindow
	}
	return ds.lifeWindow
}
