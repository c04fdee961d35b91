package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/typedcache/store"
)

var ErrNilClient = errors.New("redis store: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ store.Client = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // go-redis: 0 => no expiry, -1 => KEEPTTL
	}
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *Redis) Del(ctx context.Context, keys ...string) (int64, error) {
	return s.rdb.Del(ctx, keys...).Result()
}

func (s *Redis) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return s.rdb.Scan(ctx, cursor, match, count).Result()
}

func (s *Redis) HGet(ctx context.Context, hash, field string) ([]byte, bool, error) {
	b, err := s.rdb.HGet(ctx, hash, field).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *Redis) HMGet(ctx context.Context, hash string, fields ...string) ([][]byte, error) {
	vals, err := s.rdb.HMGet(ctx, hash, fields...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
			// absent field stays nil
		case string:
			out[i] = append([]byte{}, vv...)
		case []byte:
			out[i] = append([]byte{}, vv...)
		}
	}
	return out, nil
}

func (s *Redis) HGetAll(ctx context.Context, hash string) (map[string][]byte, error) {
	m, err := s.rdb.HGetAll(ctx, hash).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(m))
	for f, v := range m {
		out[f] = []byte(v)
	}
	return out, nil
}

func (s *Redis) HSet(ctx context.Context, hash, field string, value []byte) (int64, error) {
	return s.rdb.HSet(ctx, hash, field, value).Result()
}

func (s *Redis) HMSet(ctx context.Context, hash string, pairs []string) error {
	args := make([]any, len(pairs))
	for i, p := range pairs {
		args[i] = p
	}
	return s.rdb.HMSet(ctx, hash, args...).Err()
}

func (s *Redis) HDel(ctx context.Context, hash string, fields ...string) (int64, error) {
	return s.rdb.HDel(ctx, hash, fields...).Result()
}

func (s *Redis) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.rdb.Expire(ctx, key, ttl).Result()
}

// TTL relies on go-redis returning -1/-2 unscaled, which lines up with
// store.NoExpiry and store.KeyNotFound.
func (s *Redis) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.rdb.TTL(ctx, key).Result()
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
