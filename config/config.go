// Package config reads a data source from a TOML file:
//
//	[datasource]
//	driver = "redis"
//	host = "cache.internal"
//	port = 6380
//	dial_timeout = "2s"
//	codec = "msgpack"
//
// and turns it into the matching driver's nosql.DataSource.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/unkn0wn-root/nosql"
	"github.com/unkn0wn-root/nosql/codec"
	"github.com/unkn0wn-root/nosql/driver/bigcache"
	"github.com/unkn0wn-root/nosql/driver/bolt"
	"github.com/unkn0wn-root/nosql/driver/couchbase"
	"github.com/unkn0wn-root/nosql/driver/redis"
	"github.com/unkn0wn-root/nosql/driver/ristretto"
)

// Config is the decoded TOML document.
type Config struct {
	DataSource DataSourceConfig `toml:"datasource"`
}

// DataSourceConfig is a flat union of every driver's settings. Fields a
// driver does not use are ignored by it.
type DataSourceConfig struct {
	Driver string `toml:"driver"`

	// network drivers (redis, couchbase)
	Host           string        `toml:"host"`
	Port           int           `toml:"port"`
	Username       string        `toml:"username"`
	Password       string        `toml:"password"`
	DB             int           `toml:"db"`
	Bucket         string        `toml:"bucket"` // couchbase bucket or bolt bucket
	BucketPassword string        `toml:"bucket_password"`
	DialTimeout    time.Duration `toml:"dial_timeout"`
	ReadTimeout    time.Duration `toml:"read_timeout"`

	// bolt
	Path string `toml:"path"`

	// in-process caches
	Shards      int           `toml:"shards"`
	LifeWindow  time.Duration `toml:"life_window"`
	NumCounters int64         `toml:"num_counters"`
	MaxCost     int64         `toml:"max_cost"`
	BufferItems int64         `toml:"buffer_items"`
	Metrics     bool          `toml:"metrics"`

	// Codec names the serializer for structured values: json (default), msgpack or cbor.
	Codec string `toml:"codec"`
	// MaxValueBytes, when > 0, rejects structured values larger than this.
	MaxValueBytes int `toml:"max_value_bytes"`
}

// Defaults returns a Config with the in-process bigcache driver selected.
func Defaults() *Config {
	return &Config{DataSource: DataSourceConfig{Driver: bigcache.Backend, Codec: "json"}}
}

// Load reads and parses the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes TOML text over Defaults. Unknown keys are rejected so typos
// do not silently fall back to defaults.
func Parse(data string) (*Config, error) {
	cfg := Defaults()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		keys := make([]string, len(undec))
		for i, k := range undec {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("parsing config: unknown keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Build turns the config into a data source ready for nosql.SetDataSource.
// Problems are reported as *nosql.ConfigurationError.
func (c DataSourceConfig) Build() (nosql.DataSource, error) {
	cd, err := c.codec()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(c.Driver) {
	case redis.Backend:
		opts := []redis.Option{redis.WithDB(c.DB), redis.WithTimeouts(c.DialTimeout, c.ReadTimeout)}
		if c.Port != 0 {
			opts = append(opts, redis.WithPort(c.Port))
		}
		if c.Username != "" || c.Password != "" {
			opts = append(opts, redis.WithCredentials(c.Username, c.Password))
		}
		if cd != nil {
			opts = append(opts, redis.WithCodec(cd))
		}
		return redis.NewDataSource(c.Host, opts...), nil

	case couchbase.Backend:
		opts := []couchbase.Option{
			couchbase.WithBucket(c.Bucket, c.BucketPassword),
			couchbase.WithConnectTimeout(c.DialTimeout),
		}
		if c.Port != 0 {
			opts = append(opts, couchbase.WithPort(c.Port))
		}
		if c.Username != "" || c.Password != "" {
			opts = append(opts, couchbase.WithCredentials(c.Username, c.Password))
		}
		if cd != nil {
			opts = append(opts, couchbase.WithCodec(cd))
		}
		return couchbase.NewDataSource(c.Host, opts...), nil

	case bolt.Backend:
		opts := []bolt.Option{bolt.WithOpenTimeout(c.DialTimeout)}
		if cd != nil {
			opts = append(opts, bolt.WithCodec(cd))
		}
		return bolt.NewDataSource(c.Path, c.Bucket, opts...), nil

	case bigcache.Backend:
		var opts []bigcache.Option
		if c.Shards != 0 {
			opts = append(opts, bigcache.WithShards(c.Shards))
		}
		if c.LifeWindow != 0 {
			opts = append(opts, bigcache.WithLifeWindow(c.LifeWindow))
		}
		if cd != nil {
			opts = append(opts, bigcache.WithCodec(cd))
		}
		return bigcache.NewDataSource(opts...), nil

	case ristretto.Backend:
		var opts []ristretto.Option
		if c.NumCounters != 0 || c.MaxCost != 0 || c.BufferItems != 0 {
			opts = append(opts, ristretto.WithSizing(
				orDefault(c.NumCounters, ristretto.DefaultNumCounters),
				orDefault(c.MaxCost, ristretto.DefaultMaxCost),
				orDefault(c.BufferItems, ristretto.DefaultBufferItems),
			))
		}
		if c.Metrics {
			opts = append(opts, ristretto.WithMetrics(true))
		}
		if cd != nil {
			opts = append(opts, ristretto.WithCodec(cd))
		}
		return ristretto.NewDataSource(opts...), nil

	case "":
		return nil, nosql.NewConfigurationError("", "driver", "required")
	}
	return nil, nosql.NewConfigurationError(c.Driver, "driver", "unknown driver")
}

// codec returns nil for json so drivers keep nosql.DefaultCodec.
func (c DataSourceConfig) codec() (codec.Codec[any], error) {
	var cd codec.Codec[any]
	switch strings.ToLower(c.Codec) {
	case "", "json":
		if c.MaxValueBytes <= 0 {
			return nil, nil
		}
		cd = codec.JSON[any]{}
	case "msgpack":
		cd = codec.Msgpack[any]{JSONTags: true}
	case "cbor":
		cb, err := codec.NewCBOR[any](false, 0)
		if err != nil {
			return nil, nosql.NewConfigurationError(c.Driver, "codec", err.Error())
		}
		cd = cb
	default:
		return nil, nosql.NewConfigurationError(c.Driver, "codec", fmt.Sprintf("unknown codec %q", c.Codec))
	}
	if c.MaxValueBytes > 0 {
		cd = codec.Limit[any]{Inner: cd, MaxEncode: c.MaxValueBytes, MaxDecode: c.MaxValueBytes}
	}
	return cd, nil
}

func orDefault(v, def int64) int64 {
	if v == 0 {
		return def
	}
	return v
}
