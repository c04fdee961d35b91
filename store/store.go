// Package store defines the key-value capability the cache façade is built on.
//
// Implementations MUST be byte-for-byte transparent: Get/HGet must return exactly
// the bytes that were previously written for a key or field. Misses are reported
// with ok=false (or a nil slot) and a nil error; errors are reserved for transport
// or server failures.
package store

import (
	"context"
	"time"
)

// TTL sentinels returned by Client.TTL, matching go-redis.
const (
	NoExpiry    time.Duration = -1 // key exists without an expiry
	KeyNotFound time.Duration = -2 // key does not exist
)

// Client is the minimal store capability consumed by the façade.
// Must be safe for concurrent use.
type Client interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set writes value. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)
	// Scan returns one page of keys matching match and the next cursor.
	// Cursor 0 starts a scan; a returned cursor of 0 ends it.
	Scan(ctx context.Context, cursor uint64, match string, count int64) (keys []string, next uint64, err error)

	HGet(ctx context.Context, hash, field string) ([]byte, bool, error)
	// HMGet returns one slot per field; a nil slot means the field is absent.
	HMGet(ctx context.Context, hash string, fields ...string) ([][]byte, error)
	// HGetAll returns every field of hash; a missing hash yields an empty map.
	HGetAll(ctx context.Context, hash string) (map[string][]byte, error)
	// HSet returns 1 when field was created, 0 when it was overwritten.
	HSet(ctx context.Context, hash, field string, value []byte) (int64, error)
	// HMSet writes alternating field, value pairs.
	HMSet(ctx context.Context, hash string, pairs []string) error
	HDel(ctx context.Context, hash string, fields ...string) (int64, error)

	// Expire reports false when key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// TTL returns the remaining time to live, NoExpiry or KeyNotFound.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
