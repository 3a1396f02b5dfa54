package ristretto

import (
	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
)

const Backend = "ristretto"

// Sizing used by NewDataSource, suitable for ~100k keys / 64MiB.
const (
	DefaultNumCounters = 1e6
	DefaultMaxCost     = 64 << 20
	DefaultBufferItems = 64
)

// DataSource configures an in-process ristretto cache. Connect builds it and
// Disconnect stops its background goroutines.
type DataSource struct {
	numCounters int64
	maxCost     int64
	bufferItems int64
	metrics     bool
	codec       codec.Codec[any]
}

var _ nosql.DataSource = DataSource{}

// Option customizes a DataSource.
type Option func(*DataSource)

// WithSizing sets ristretto's counters, max cost (bytes stored) and buffer size.
func WithSizing(numCounters, maxCost, bufferItems int64) Option {
	return func(ds *DataSource) {
		ds.numCounters = numCounters
		ds.maxCost = maxCost
		ds.bufferItems = bufferItems
	}
}

func WithMetrics(on bool) Option { return func(ds *DataSource) { ds.metrics = on } }

func WithCodec(c codec.Codec[any]) Option { return func(ds *DataSource) { ds.codec = c } }

// NewDataSource returns ristretto settings using the Default* sizing.
func NewDataSource(opts ...Option) DataSource {
	ds := DataSource{numCounters: DefaultNumCounters, maxCost: DefaultMaxCost, bufferItems: DefaultBufferItems}
	for _, o := range opts {
		o(&ds)
	}
	return ds
}

func (ds DataSource) Backend() string      { return Backend }
func (ds DataSource) DefaultPort() int     { return 0 }
func (ds DataSource) Driver() nosql.Driver { return &Driver{} }
