package bolt

import (
	"os"
	"time"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
)

const Backend = "bolt"

// DataSource points at a bbolt file and a bucket inside it. The file path
// plays the role a host plays for networked backends.
type DataSource struct {
	path        string
	bucket      string
	mode        os.FileMode
	openTimeout time.Duration
	codec       codec.Codec[any]
}

var _ nosql.DataSource = DataSource{}

// Option customizes a DataSource.
type Option func(*DataSource)

// WithFileMode sets the permissions used when the file is created. 0 => 0600.
func WithFileMode(m os.FileMode) Option { return func(ds *DataSource) { ds.mode = m } }

// WithOpenTimeout bounds the wait for the file lock. 0 => wait forever (bbolt default).
func WithOpenTimeout(d time.Duration) Option { return func(ds *DataSource) { ds.openTimeout = d } }

func WithCodec(c codec.Codec[any]) Option { return func(ds *DataSource) { ds.codec = c } }

// NewDataSource returns the settings for bucket inside the database file at path.
func NewDataSource(path, bucket string, opts ...Option) DataSource {
	ds := DataSource{path: path, bucket: bucket}
	for _, o := range opts {
		o(&ds)
	}
	return ds
}

func (ds DataSource) Backend() string      { return Backend }
func (ds DataSource) DefaultPort() int     { return 0 }
func (ds DataSource) Driver() nosql.Driver { return &Driver{} }

func (ds DataSource) Path() string   { return ds.path }
func (ds DataSource) Bucket() string { return ds.bucket }

func (ds DataSource) FileMode() os.FileMode {
	if ds.mode == 0 {
		return 0600
	}
	return ds.mode
}
