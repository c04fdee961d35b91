// Package memory is an in-process store.Client with per-key TTLs, hashes and
// cursor scans. It mirrors Redis semantics closely enough to back tests and
// local runs of the cache façade.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/jellydator/ttlcache/v3"

	"github.com/unkn0wn-root/typedcache/store"
)

// ErrWrongType mirrors Redis WRONGTYPE: a scalar command hit a hash or vice versa.
var ErrWrongType = errors.New("memory store: operation against a key holding the wrong kind of value")

// ErrInvalidCursor is returned by Scan for a cursor this store never issued or
// that has expired.
var ErrInvalidCursor = errors.New("memory store: invalid cursor")

const (
	defaultScanCount = 10
	cursorTTL        = 10 * time.Minute
)

// entry holds either a scalar value or a hash. Entries are pointers so hash
// writes mutate in place and keep the key's TTL.
type entry struct {
	val  []byte
	hash map[string][]byte
}

func (e *entry) isHash() bool { return e.hash != nil }

type Store struct {
	mu    sync.Mutex
	items *ttlcache.Cache[string, *entry]

	// cursors maps an issued scan cursor to the last key of its page.
	cursors    *ttlcache.Cache[uint64, string]
	lastCursor uint64

	closeOnce sync.Once
}

var _ store.Client = (*Store)(nil)

// New starts a store with a background expiry sweeper. Call Close to stop it.
func New() *Store {
	c := ttlcache.New[string, *entry](
		ttlcache.WithDisableTouchOnHit[string, *entry](),
	)
	cur := ttlcache.New[uint64, string](
		ttlcache.WithTTL[uint64, string](cursorTTL),
		ttlcache.WithDisableTouchOnHit[uint64, string](),
	)
	go c.Start()
	go cur.Start()
	return &Store{items: c, cursors: cur}
}

func (s *Store) Close(context.Context) error {
	s.closeOnce.Do(func() {
		s.items.Stop()
		s.cursors.Stop()
	})
	return nil
}

func (s *Store) lookup(key string) (*entry, *ttlcache.Item[string, *entry]) {
	it := s.items.Get(key)
	if it == nil {
		return nil, nil
	}
	return it.Value(), it
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.lookup(key)
	if e == nil {
		return nil, false, nil
	}
	if e.isHash() {
		return nil, false, ErrWrongType
	}
	return clone(e.val), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	s.mu.Lock()
	s.items.Set(key, &entry{val: clone(value)}, ttl)
	s.mu.Unlock()
	return nil
}

func (s *Store) Del(_ context.Context, keys ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, k := range keys {
		if e, _ := s.lookup(k); e != nil {
			s.items.Delete(k)
			n++
		}
	}
	return n, nil
}

// Scan pages over the live keys in sorted order. A cursor names the last key of
// the previous page and the next page resumes after it, so keys present for
// the whole scan are returned even when others are deleted in between. As in
// Redis, COUNT bounds the keys examined, not the keys returned, so a page may
// come back empty while the cursor is non-zero.
func (s *Store) Scan(_ context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	g, err := compileMatch(match)
	if err != nil {
		return nil, 0, err
	}
	if count <= 0 {
		count = defaultScanCount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.liveKeys()
	start := 0
	if cursor != 0 {
		it := s.cursors.Get(cursor)
		if it == nil {
			return nil, 0, ErrInvalidCursor
		}
		last := it.Value()
		start = sort.SearchStrings(keys, last)
		if start < len(keys) && keys[start] == last {
			start++
		}
	}

	end := len(keys)
	if rest := int64(end - start); rest > count {
		end = start + int(count)
	}
	out := make([]string, 0, end-start)
	for _, k := range keys[start:end] {
		if g == nil || g.Match(k) {
			out = append(out, k)
		}
	}
	if end == len(keys) {
		return out, 0, nil
	}

	s.lastCursor++
	s.cursors.Set(s.lastCursor, keys[end-1], ttlcache.DefaultTTL)
	return out, s.lastCursor, nil
}

func (s *Store) liveKeys() []string {
	all := s.items.Keys()
	keys := all[:0]
	for _, k := range all {
		if s.items.Get(k) != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) HGet(_ context.Context, hash, field string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.lookup(hash)
	if e == nil {
		return nil, false, nil
	}
	if !e.isHash() {
		return nil, false, ErrWrongType
	}
	v, ok := e.hash[field]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (s *Store) HMGet(_ context.Context, hash string, fields ...string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(fields))
	e, _ := s.lookup(hash)
	if e == nil {
		return out, nil
	}
	if !e.isHash() {
		return nil, ErrWrongType
	}
	for i, f := range fields {
		if v, ok := e.hash[f]; ok {
			out[i] = clone(v)
		}
	}
	return out, nil
}

func (s *Store) HGetAll(_ context.Context, hash string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.lookup(hash)
	if e == nil {
		return map[string][]byte{}, nil
	}
	if !e.isHash() {
		return nil, ErrWrongType
	}
	out := make(map[string][]byte, len(e.hash))
	for f, v := range e.hash {
		out[f] = clone(v)
	}
	return out, nil
}

func (s *Store) HSet(_ context.Context, hash, field string, value []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.hashFor(hash)
	if err != nil {
		return 0, err
	}
	_, existed := e.hash[field]
	e.hash[field] = clone(value)
	if existed {
		return 0, nil
	}
	return 1, nil
}

func (s *Store) HMSet(_ context.Context, hash string, pairs []string) error {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return errors.New("memory store: wrong number of arguments for HMSET")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.hashFor(hash)
	if err != nil {
		return err
	}
	for i := 0; i < len(pairs); i += 2 {
		e.hash[pairs[i]] = []byte(pairs[i+1])
	}
	return nil
}

func (s *Store) HDel(_ context.Context, hash string, fields ...string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.lookup(hash)
	if e == nil {
		return 0, nil
	}
	if !e.isHash() {
		return 0, ErrWrongType
	}
	var n int64
	for _, f := range fields {
		if _, ok := e.hash[f]; ok {
			delete(e.hash, f)
			n++
		}
	}
	// Redis drops a hash once its last field is gone.
	if len(e.hash) == 0 {
		s.items.Delete(hash)
	}
	return n, nil
}

// hashFor returns the hash stored at key, creating an empty one without expiry.
// Caller holds s.mu.
func (s *Store) hashFor(key string) (*entry, error) {
	e, _ := s.lookup(key)
	if e == nil {
		e = &entry{hash: make(map[string][]byte)}
		s.items.Set(key, e, ttlcache.NoTTL)
		return e, nil
	}
	if !e.isHash() {
		return nil, ErrWrongType
	}
	return e, nil
}

// Expire with ttl <= 0 deletes the key, as Redis does.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.lookup(key)
	if e == nil {
		return false, nil
	}
	if ttl <= 0 {
		s.items.Delete(key)
		return true, nil
	}
	s.items.Set(key, e, ttl)
	return true, nil
}

func (s *Store) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, it := s.lookup(key)
	if it == nil {
		return store.KeyNotFound, nil
	}
	exp := it.ExpiresAt()
	if exp.IsZero() {
		return store.NoExpiry, nil
	}
	left := time.Until(exp).Round(time.Second)
	if left < 0 {
		left = 0
	}
	return left, nil
}

// compileMatch turns a Redis MATCH pattern into a glob. An empty pattern or "*"
// matches everything and yields a nil glob.
func compileMatch(pattern string) (glob.Glob, error) {
	if pattern == "" || pattern == "*" {
		return nil, nil
	}
	// Redis negates classes with [^...]; gobwas/glob uses [!...].
	return glob.Compile(strings.ReplaceAll(pattern, "[^", "[!"))
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
