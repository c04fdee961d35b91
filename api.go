package typedcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/typedcache/codec"
	"github.com/unkn0wn-root/typedcache/store"
)

// TTL sentinels returned by Cache.TTL.
const (
	NoExpiry    = store.NoExpiry
	KeyNotFound = store.KeyNotFound
)

// Slot is an optional value. Found=false means "no value": a missing hash field
// on reads, the undefined sentinel on writes.
type Slot[V any] struct {
	Value V
	Found bool
}

// Some wraps v in a found Slot.
func Some[V any](v V) Slot[V] { return Slot[V]{Value: v, Found: true} }

// Loader computes a value on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

// Cache is a typed façade over a store.Client. V is the caller's value type;
// one store can back many Cache instances of different V.
//
// Read and scalar-write operations are fail-soft: store or decode failures are
// logged and reported as a miss, false or 0, never as an error. A miss and an
// unavailable store look the same to the caller.
// Hash mutations (HSet, HMSet, HDel) are fail-hard: failures are logged and
// returned as *OpError. Scan, Expire and TTL return store errors unchanged
// (Scan wraps its page limit in *OpError).
type Cache[V any] interface {
	// Scalars
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, opts ...SetOption) bool
	SetSlot(ctx context.Context, key string, value Slot[V], opts ...SetOption) bool
	Delete(ctx context.Context, key string) int64
	DeleteMany(ctx context.Context, keys ...string) int64
	GetOrSet(ctx context.Context, key string, value V, opts ...SetOption) V
	GetOrCompute(ctx context.Context, key string, load Loader[V], opts ...SetOption) (V, error)

	// Keyspace
	Scan(ctx context.Context, pattern string) ([]string, error)
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Hashes
	HGet(ctx context.Context, hash, field string) (V, bool)
	HMGet(ctx context.Context, hash string, fields ...string) []Slot[V]
	HGetAll(ctx context.Context, hash string) (map[string]V, bool)
	HSet(ctx context.Context, hash, field string, value V, opts ...SetOption) (int64, error)
	HMSet(ctx context.Context, hash string, pairs []string) error
	HMSetRecords(ctx context.Context, hash string, items []V, keyField string) error
	HDel(ctx context.Context, hash string, fields ...string) (int64, error)
}

// Options configure a Cache. Only Store is required.
type Options[V any] struct {
	Store store.Client
	Codec c.Codec[V] // nil => codec.JSON[V]

	Logger       Logger        // if nil, NopLogger is used
	DefaultTTL   time.Duration // applied when a Set passes no TTL; 0 => no expiry
	ScanCount    int64         // SCAN COUNT hint; 0 => store default
	MaxScanPages int           // 0 => 100000
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
