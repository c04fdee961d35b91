package redis

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/typedcache/store"
)

func newTestStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s, err := New(Config{Client: client, CloseClient: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s, mr
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestGetSetDel(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte(`{"a":1}`), 0))
	b, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(b))

	n, err := s.Del(ctx, "k", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSetWithTTLAndTTLSentinels(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	require.NoError(t, s.Set(ctx, "ttl", []byte("1"), 30*time.Second))
	d, err := s.TTL(ctx, "ttl")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)

	require.NoError(t, s.Set(ctx, "forever", []byte("1"), 0))
	d, err = s.TTL(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, store.NoExpiry, d)

	d, err = s.TTL(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, store.KeyNotFound, d)

	mr.FastForward(31 * time.Second)
	_, ok, err := s.Get(ctx, "ttl")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpire(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	ok, err := s.Expire(ctx, "missing", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	ok, err = s.Expire(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	d, err := s.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)
}

func TestScanWalksAllPages(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	want := []string{"user:1", "user:2", "user:3", "user:4", "user:5"}
	for _, k := range want {
		require.NoError(t, s.Set(ctx, k, []byte("x"), 0))
	}
	require.NoError(t, s.Set(ctx, "order:1", []byte("x"), 0))

	var got []string
	var cursor uint64
	for {
		keys, next, err := s.Scan(ctx, cursor, "user:*", 2)
		require.NoError(t, err)
		got = append(got, keys...)
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestHashOps(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	added, err := s.HSet(ctx, "h", "a", []byte("1"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)

	added, err = s.HSet(ctx, "h", "a", []byte("2"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), added)

	require.NoError(t, s.HMSet(ctx, "h", []string{"b", "3", "c", ""}))

	b, ok, err := s.HGet(ctx, "h", "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", string(b))

	_, ok, err = s.HGet(ctx, "h", "zz")
	require.NoError(t, err)
	assert.False(t, ok)

	slots, err := s.HMGet(ctx, "h", "a", "zz", "b", "c")
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, "2", string(slots[0]))
	assert.Nil(t, slots[1])
	assert.Equal(t, "3", string(slots[2]))
	assert.NotNil(t, slots[3])
	assert.Empty(t, slots[3])

	all, err := s.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := s.HGetAll(ctx, "nohash")
	require.NoError(t, err)
	assert.Empty(t, empty)

	n, err := s.HDel(ctx, "h", "a", "b", "zz")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestWrongTypeSurfacesAsError(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.Set(ctx, "plain", []byte("v"), 0))
	_, err := s.HSet(ctx, "plain", "f", []byte("v"))
	assert.Error(t, err)
}

func TestServerDownReturnsError(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	s, err := New(Config{Client: client, CloseClient: true})
	require.NoError(t, err)
	defer s.Close(context.Background())

	_, _, err = s.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
}
