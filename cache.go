package typedcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/typedcache/codec"
	"github.com/unkn0wn-root/typedcache/store"
)

const defaultMaxScanPages = 100_000

type cache[V any] struct {
	store        store.Client
	codec        c.Codec[V]
	log          Logger
	defaultTTL   time.Duration
	scanCount    int64
	maxScanPages int
}

var _ Cache[struct{}] = (*cache[struct{}])(nil)

func newCache[V any](opts Options[V]) (*cache[V], error) {
	if opts.Store == nil {
		return nil, ErrNilStore
	}

	cc := &cache[V]{
		store:     opts.Store,
		scanCount: opts.ScanCount,
	}

	// defaults
	cc.codec = opts.Codec
	if cc.codec == nil {
		cc.codec = c.JSON[V]{}
	}
	cc.log = coalesce[Logger](opts.Logger, NopLogger{})
	cc.defaultTTL = opts.DefaultTTL
	cc.maxScanPages = coalesce(opts.MaxScanPages, defaultMaxScanPages)

	return cc, nil
}

func (cc *cache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	raw, ok, err := cc.store.Get(ctx, key)
	if err != nil {
		cc.log.Error("cache get failed", Fields{"key": key, "err": err.Error()})
		return zero, false
	}
	if !ok {
		return zero, false
	}
	v, err := cc.codec.Decode(raw)
	if err != nil {
		cc.log.Error("cache get: decode failed", Fields{"key": key, "err": err.Error()})
		return zero, false
	}
	return v, true
}

func (cc *cache[V]) Set(ctx context.Context, key string, value V, opts ...SetOption) bool {
	return cc.SetSlot(ctx, key, Some(value), opts...)
}

func (cc *cache[V]) SetSlot(ctx context.Context, key string, value Slot[V], opts ...SetOption) bool {
	cfg := collectSetOptions(opts)
	// policy no-ops: undefined value, unwanted nil, non-positive TTL
	if !value.Found {
		return false
	}
	if cfg.notNullable && isNil(value.Value) {
		return false
	}
	ttl := cc.defaultTTL
	if cfg.hasTTL {
		if cfg.ttl <= 0 {
			return false
		}
		ttl = cfg.ttl
	}

	payload, err := cc.codec.Encode(value.Value)
	if err != nil {
		cc.log.Error("cache set: encode failed", Fields{"key": key, "err": err.Error()})
		return false
	}
	if err := cc.store.Set(ctx, key, payload, ttl); err != nil {
		cc.log.Error("cache set failed", Fields{"key": key, "ttl": ttl.String(), "err": err.Error()})
		return false
	}
	return true
}

func (cc *cache[V]) Delete(ctx context.Context, key string) int64 {
	n, err := cc.store.Del(ctx, key)
	if err != nil {
		cc.log.Error("cache delete failed", Fields{"key": key, "err": err.Error()})
		return 0
	}
	return n
}

func (cc *cache[V]) DeleteMany(ctx context.Context, keys ...string) int64 {
	if len(keys) == 0 {
		return 0
	}
	n, err := cc.store.Del(ctx, keys...)
	if err != nil {
		cc.log.Error("cache delete many failed", Fields{"keys": keys, "err": err.Error()})
		return 0
	}
	return n
}

// GetOrSet returns the cached value, or caches and returns value on a miss.
// value is returned even when the write fails. Not atomic: concurrent callers
// may all miss and all write; the last write wins.
func (cc *cache[V]) GetOrSet(ctx context.Context, key string, value V, opts ...SetOption) V {
	if v, ok := cc.Get(ctx, key); ok {
		return v
	}
	cc.Set(ctx, key, value, opts...)
	return value
}

// GetOrCompute is GetOrSet with a lazily computed value. A loader error is
// returned as is and nothing is cached.
func (cc *cache[V]) GetOrCompute(ctx context.Context, key string, load Loader[V], opts ...SetOption) (V, error) {
	if v, ok := cc.Get(ctx, key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	cc.Set(ctx, key, v, opts...)
	return v, nil
}

// Scan walks the keyspace page by page until the store returns cursor 0.
// Keys come back in page order. Store errors are returned unwrapped; running
// past MaxScanPages returns the keys gathered so far and ErrScanLimit.
func (cc *cache[V]) Scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for page := 0; ; page++ {
		if page >= cc.maxScanPages {
			return out, &OpError{Op: "scan", Key: pattern, Err: ErrScanLimit}
		}
		keys, next, err := cc.store.Scan(ctx, cursor, pattern, cc.scanCount)
		if err != nil {
			return nil, err
		}
		out = append(out, keys...)
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

func (cc *cache[V]) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return cc.store.Expire(ctx, key, ttl)
}

func (cc *cache[V]) TTL(ctx context.Context, key string) (time.Duration, error) {
	return cc.store.TTL(ctx, key)
}

func (cc *cache[V]) HGet(ctx context.Context, hash, field string) (V, bool) {
	var zero V
	raw, ok, err := cc.store.HGet(ctx, hash, field)
	if err != nil {
		cc.log.Error("cache hget failed", Fields{"hash": hash, "field": field, "err": err.Error()})
		return zero, false
	}
	if !ok {
		return zero, false
	}
	v, err := cc.codec.Decode(raw)
	if err != nil {
		cc.log.Error("cache hget: decode failed", Fields{"hash": hash, "field": field, "err": err.Error()})
		return zero, false
	}
	return v, true
}

// HMGet returns one slot per field, in field order. A failure returns an empty
// slice, which callers can tell apart from "every field missing" by length.
func (cc *cache[V]) HMGet(ctx context.Context, hash string, fields ...string) []Slot[V] {
	if len(fields) == 0 {
		return []Slot[V]{}
	}
	raws, err := cc.store.HMGet(ctx, hash, fields...)
	if err != nil {
		cc.log.Error("cache hmget failed", Fields{"hash": hash, "fields": fields, "err": err.Error()})
		return []Slot[V]{}
	}
	out := make([]Slot[V], len(fields))
	for i := range fields {
		if i >= len(raws) || raws[i] == nil {
			continue
		}
		v, err := cc.codec.Decode(raws[i])
		if err != nil {
			cc.log.Error("cache hmget: decode failed", Fields{"hash": hash, "field": fields[i], "err": err.Error()})
			return []Slot[V]{}
		}
		out[i] = Some(v)
	}
	return out
}

// HGetAll decodes every field of hash. A missing hash is an empty map.
func (cc *cache[V]) HGetAll(ctx context.Context, hash string) (map[string]V, bool) {
	raws, err := cc.store.HGetAll(ctx, hash)
	if err != nil {
		cc.log.Error("cache hgetall failed", Fields{"hash": hash, "err": err.Error()})
		return nil, false
	}
	out := make(map[string]V, len(raws))
	for f, raw := range raws {
		v, err := cc.codec.Decode(raw)
		if err != nil {
			cc.log.Error("cache hgetall: decode failed", Fields{"hash": hash, "field": f, "err": err.Error()})
			return nil, false
		}
		out[f] = v
	}
	return out, true
}

// HSet returns 1 when field was created and 0 when it was overwritten or the
// write was skipped by NotNullable.
func (cc *cache[V]) HSet(ctx context.Context, hash, field string, value V, opts ...SetOption) (int64, error) {
	cfg := collectSetOptions(opts)
	if cfg.notNullable && isNil(value) {
		return 0, nil
	}
	payload, err := cc.codec.Encode(value)
	if err != nil {
		return 0, cc.hashFailure("hset", hash, []string{field}, err)
	}
	n, err := cc.store.HSet(ctx, hash, field, payload)
	if err != nil {
		return 0, cc.hashFailure("hset", hash, []string{field}, err)
	}
	return n, nil
}

// HMSet writes pre-encoded alternating field, value pairs, as produced by
// EncodeForHashBulkWrite. An empty slice is a no-op.
func (cc *cache[V]) HMSet(ctx context.Context, hash string, pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	if len(pairs)%2 != 0 {
		return cc.hashFailure("hmset", hash, nil, ErrOddFieldValues)
	}
	if err := cc.store.HMSet(ctx, hash, pairs); err != nil {
		return cc.hashFailure("hmset", hash, nil, err)
	}
	return nil
}

// HMSetRecords encodes items keyed by keyField and writes them in one call.
func (cc *cache[V]) HMSetRecords(ctx context.Context, hash string, items []V, keyField string) error {
	pairs, err := EncodeForHashBulkWrite(items, keyField, cc.codec)
	if err != nil {
		return cc.hashFailure("hmset", hash, nil, err)
	}
	return cc.HMSet(ctx, hash, pairs)
}

func (cc *cache[V]) HDel(ctx context.Context, hash string, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	n, err := cc.store.HDel(ctx, hash, fields...)
	if err != nil {
		return 0, cc.hashFailure("hdel", hash, fields, err)
	}
	return n, nil
}

func (cc *cache[V]) hashFailure(op, hash string, fields []string, err error) error {
	f := Fields{"hash": hash, "err": err.Error()}
	if len(fields) > 0 {
		f["fields"] = fields
	}
	cc.log.Error("cache "+op+" failed", f)
	return &OpError{Op: op, Key: hash, Fields: fields, Err: err}
}
