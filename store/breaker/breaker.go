// Package breaker wraps a store.Client with a circuit breaker so a dead store
// fails fast instead of stalling every cache call on network timeouts.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/unkn0wn-root/typedcache"
	"github.com/unkn0wn-root/typedcache/store"
)

type Config struct {
	Name             string        // "" => "typedcache"
	MaxFailures      uint32        // consecutive failures before opening; 0 => 5
	OpenTimeout      time.Duration // time spent open before probing; 0 => 30s
	HalfOpenRequests uint32        // probes allowed while half-open; 0 => 1
	Logger           typedcache.Logger
}

type Breaker struct {
	next store.Client
	cb   *gobreaker.CircuitBreaker[struct{}]
}

var _ store.Client = (*Breaker)(nil)

func New(next store.Client, cfg Config) (*Breaker, error) {
	if next == nil {
		return nil, typedcache.ErrNilStore
	}
	maxFailures := coalesce(cfg.MaxFailures, 5)
	log := cfg.Logger
	if log == nil {
		log = typedcache.NopLogger{}
	}

	st := gobreaker.Settings{
		Name:        coalesce(cfg.Name, "typedcache"),
		MaxRequests: coalesce(cfg.HalfOpenRequests, 1),
		Timeout:     coalesce(cfg.OpenTimeout, 30*time.Second),
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		// a caller giving up is not a store failure
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("store breaker state changed", typedcache.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[struct{}](st)}, nil
}

// State exposes the current breaker state.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) do(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (b *Breaker) Get(ctx context.Context, key string) (v []byte, ok bool, err error) {
	err = b.do(func() (e error) {
		v, ok, e = b.next.Get(ctx, key)
		return e
	})
	return v, ok, err
}

func (b *Breaker) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return b.do(func() error { return b.next.Set(ctx, key, value, ttl) })
}

func (b *Breaker) Del(ctx context.Context, keys ...string) (n int64, err error) {
	err = b.do(func() (e error) {
		n, e = b.next.Del(ctx, keys...)
		return e
	})
	return n, err
}

func (b *Breaker) Scan(ctx context.Context, cursor uint64, match string, count int64) (keys []string, next uint64, err error) {
	err = b.do(func() (e error) {
		keys, next, e = b.next.Scan(ctx, cursor, match, count)
		return e
	})
	return keys, next, err
}

func (b *Breaker) HGet(ctx context.Context, hash, field string) (v []byte, ok bool, err error) {
	err = b.do(func() (e error) {
		v, ok, e = b.next.HGet(ctx, hash, field)
		return e
	})
	return v, ok, err
}

func (b *Breaker) HMGet(ctx context.Context, hash string, fields ...string) (vals [][]byte, err error) {
	err = b.do(func() (e error) {
		vals, e = b.next.HMGet(ctx, hash, fields...)
		return e
	})
	return vals, err
}

func (b *Breaker) HGetAll(ctx context.Context, hash string) (m map[string][]byte, err error) {
	err = b.do(func() (e error) {
		m, e = b.next.HGetAll(ctx, hash)
		return e
	})
	return m, err
}

func (b *Breaker) HSet(ctx context.Context, hash, field string, value []byte) (n int64, err error) {
	err = b.do(func() (e error) {
		n, e = b.next.HSet(ctx, hash, field, value)
		return e
	})
	return n, err
}

func (b *Breaker) HMSet(ctx context.Context, hash string, pairs []string) error {
	return b.do(func() error { return b.next.HMSet(ctx, hash, pairs) })
}

func (b *Breaker) HDel(ctx context.Context, hash string, fields ...string) (n int64, err error) {
	err = b.do(func() (e error) {
		n, e = b.next.HDel(ctx, hash, fields...)
		return e
	})
	return n, err
}

func (b *Breaker) Expire(ctx context.Context, key string, ttl time.Duration) (ok bool, err error) {
	err = b.do(func() (e error) {
		ok, e = b.next.Expire(ctx, key, ttl)
		return e
	})
	return ok, err
}

func (b *Breaker) TTL(ctx context.Context, key string) (d time.Duration, err error) {
	err = b.do(func() (e error) {
		d, e = b.next.TTL(ctx, key)
		return e
	})
	return d, err
}

func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
