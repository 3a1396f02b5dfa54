package nosql

import (
	"context"
	"time"
)

// DataSource describes how to reach one backend instance/namespace.
// Implementations are immutable value types provided by the adapter packages
// (driver/redis, driver/couchbase, ...). A DataSource performs no I/O.
type DataSource interface {
	// Backend names the vendor family, e.g. "redis" or "couchbase".
	Backend() string
	// DefaultPort is the vendor standard port used when none is set (0 if the backend has no port).
	DefaultPort() int
	// Driver returns a new, unconnected Driver bound to this family.
	// It is a factory: caching is the Manager's job.
	Driver() Driver
}

// Driver is the normalized operation set every backend adapter implements.
// Errors returned by a Driver are always one of the kinds in errors.go;
// vendor error values never cross this interface.
type Driver interface {
	// Set upserts value at key. expiration 0 means no expiry.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Get returns the stored value or *KeyNotFoundError.
	Get(ctx context.Context, key string) (Value, error)

	// Contains reports whether key exists. Absence is (false, nil), never KeyNotFound.
	Contains(ctx context.Context, key string) (bool, error)

	// Delete removes key or returns *KeyNotFoundError.
	Delete(ctx context.Context, key string) error

	// Increment atomically adds offset to the integer stored at key and returns the new value.
	Increment(ctx context.Context, key string, offset int64) (int64, error)

	// Decrement is Increment with a negated offset.
	Decrement(ctx context.Context, key string, offset int64) (int64, error)

	// Flush empties everything reachable from the active namespace (bucket/database).
	Flush(ctx context.Context) error

	// Native exposes the underlying vendor handle for operations this package
	// does not cover. Code using it is no longer portable across backends.
	Native() any
}

// Server is the optional lifecycle capability for backends whose client needs an
// explicit connect/disconnect step. The Manager checks for it with a type assertion.
type Server interface {
	// Connect validates ds (*ConfigurationError naming the field) before any network
	// attempt, then connects (*ConnectionError on network/auth failure).
	Connect(ctx context.Context, ds DataSource) error

	// Disconnect releases the connection. It is a no-op when Connect was never
	// called or failed part way, and is safe to call more than once.
	Disconnect(ctx context.Context) error
}

// Incr increments key by one.
func Incr(ctx context.Context, d Driver, key string) (int64, error) {
	return d.Increment(ctx, key, 1)
}

// Decr decrements key by one.
func Decr(ctx context.Context, d Driver, key string) (int64, error) {
	return d.Decrement(ctx, key, 1)
}
