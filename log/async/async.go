// Package async runs a typedcache.Logger off the request path.
//
//	zl := zaplog.New(zap.Must(zap.NewProduction()))
//	log := async.New(zl, 1, 1000) // 1 worker; queue 1000 entries
//	defer log.Close()
//
//	users, _ := typedcache.New[User](typedcache.Options[User]{
//	    Store:  redisStore,
//	    Logger: log,
//	})
//
// When the queue is full entries are dropped; Dropped reports how many.
package async

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/typedcache"
)

type Logger struct {
	inner   typedcache.Logger
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ typedcache.Logger = (*Logger)(nil)

func New(inner typedcache.Logger, workers, qlen int) *Logger {
	if inner == nil {
		inner = typedcache.NopLogger{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	l := &Logger{inner: inner, q: make(chan func(), qlen)}
	l.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer l.wg.Done()
			for f := range l.q {
				f()
			}
		}()
	}
	return l
}

// Close drains queued entries and stops the workers. Entries logged after
// Close are dropped.
func (l *Logger) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.q)
		l.mu.Unlock()
		l.wg.Wait()
	})
}

func (l *Logger) Dropped() uint64 { return l.dropped.Load() }

func (l *Logger) try(f func()) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.q <- f:
	default: // drop
		l.dropped.Add(1)
	}
}

// snapshot copies f and its slice values so callers may reuse them once the
// log call returns.
func snapshot(f typedcache.Fields) typedcache.Fields {
	if f == nil {
		return nil
	}
	out := make(typedcache.Fields, len(f))
	for k, v := range f {
		switch vv := v.(type) {
		case []string:
			out[k] = slices.Clone(vv)
		case []byte:
			out[k] = slices.Clone(vv)
		case []any:
			out[k] = slices.Clone(vv)
		default:
			out[k] = v
		}
	}
	return out
}

func (l *Logger) Debug(msg string, f typedcache.Fields) {
	f = snapshot(f)
	l.try(func() { l.inner.Debug(msg, f) })
}
func (l *Logger) Info(msg string, f typedcache.Fields) {
	f = snapshot(f)
	l.try(func() { l.inner.Info(msg, f) })
}
func (l *Logger) Warn(msg string, f typedcache.Fields) {
	f = snapshot(f)
	l.try(func() { l.inner.Warn(msg, f) })
}
func (l *Logger) Error(msg string, f typedcache.Fields) {
	f = snapshot(f)
	l.try(func() { l.inner.Error(msg, f) })
}
