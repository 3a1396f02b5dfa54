// Package nosql is a vendor-agnostic layer over key-value/NoSQL stores.
// Application code talks to a Driver (set/get/contains/delete/increment/
// decrement/flush) and never to the vendor client underneath.
//
// Components:
//   - DataSource: immutable connection settings for one backend family.
//     Adapter packages provide them (driver/redis, driver/couchbase, driver/bolt,
//     driver/bigcache, driver/ristretto).
//   - Driver: the operation contract every adapter implements.
//   - Server: optional connect/disconnect capability for backends that need it.
//   - Manager: holds one DataSource, lazily builds and connects one shared Driver,
//     and disconnects it on Close, swallowing teardown errors.
//
// Errors are normalized into four kinds: ErrConfiguration, ErrConnection,
// ErrKeyNotFound and ErrOperationFailed (see the typed errors in errors.go).
//
// Usage:
//
//	nosql.SetDataSource(redis.NewDataSource("localhost", redis.WithPort(6379)))
//	defer nosql.Close(context.Background())
//
//	db, err := nosql.Instance(ctx)
//	if err != nil { ... }
//	_ = db.Set(ctx, "user:1", "alice", 0)
//	v, err := db.Get(ctx, "user:1") // v.String() == "alice"
package nosql
