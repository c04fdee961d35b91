package zap

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/typedcache"
)

var _ typedcache.Logger = ZapLogger{}

// ZapLogger adapts a *zap.Logger. Fields are emitted in key order.
type ZapLogger struct{ L *zap.Logger }

func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l.WithOptions(zap.AddCallerSkip(1))} }

func (z ZapLogger) Debug(msg string, f typedcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f typedcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f typedcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f typedcache.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f typedcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		switch v := f[k].(type) {
		case []string:
			out = append(out, zap.Strings(k, v))
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
