// Package redact wraps a typedcache.Logger so cache keys never reach log
// output in clear text, and so failure floods can be sampled.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"

	"github.com/unkn0wn-root/typedcache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	WarnEvery  uint64
	ErrorEvery uint64
	// Field names whose values are redacted. Defaults to key, keys, hash,
	// field and fields.
	Fields []string
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Logger struct {
	inner  typedcache.Logger
	opts   Options
	fields map[string]struct{}

	warnCtr  atomic.Uint64
	errorCtr atomic.Uint64
}

var _ typedcache.Logger = (*Logger)(nil)

func New(inner typedcache.Logger, opts Options) *Logger {
	if inner == nil {
		inner = typedcache.NopLogger{}
	}
	names := opts.Fields
	if len(names) == 0 {
		names = []string{"key", "keys", "hash", "field", "fields"}
	}
	fields := make(map[string]struct{}, len(names))
	for _, n := range names {
		fields[n] = struct{}{}
	}
	return &Logger{inner: inner, opts: opts, fields: fields}
}

func (l *Logger) redact(k string) string {
	if l.opts.Redact != nil {
		return l.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

// scrub copies f with redacted values. f itself is left untouched.
func (l *Logger) scrub(f typedcache.Fields) typedcache.Fields {
	if len(f) == 0 {
		return f
	}
	out := make(typedcache.Fields, len(f))
	for k, v := range f {
		if _, ok := l.fields[k]; !ok {
			out[k] = v
			continue
		}
		switch vv := v.(type) {
		case string:
			out[k] = l.redact(vv)
		case []string:
			rs := make([]string, len(vv))
			for i, s := range vv {
				rs[i] = l.redact(s)
			}
			out[k] = rs
		default:
			out[k] = v
		}
	}
	return out
}

func (l *Logger) Debug(msg string, f typedcache.Fields) { l.inner.Debug(msg, l.scrub(f)) }
func (l *Logger) Info(msg string, f typedcache.Fields)  { l.inner.Info(msg, l.scrub(f)) }

func (l *Logger) Warn(msg string, f typedcache.Fields) {
	if !sample(l.opts.WarnEvery, &l.warnCtr) {
		return
	}
	l.inner.Warn(msg, l.scrub(f))
}

func (l *Logger) Error(msg string, f typedcache.Fields) {
	if !sample(l.opts.ErrorEvery, &l.errorCtr) {
		return
	}
	l.inner.Error(msg, l.scrub(f))
}
