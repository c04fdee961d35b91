package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/typedcache"
	c "github.com/unkn0wn-root/typedcache/codec"
	"github.com/unkn0wn-root/typedcache/internal/config"
	"github.com/unkn0wn-root/typedcache/log/async"
	"github.com/unkn0wn-root/typedcache/log/redact"
	zaplog "github.com/unkn0wn-root/typedcache/log/zap"
	"github.com/unkn0wn-root/typedcache/store"
	"github.com/unkn0wn-root/typedcache/store/breaker"
	"github.com/unkn0wn-root/typedcache/store/memory"
	"github.com/unkn0wn-root/typedcache/store/redis"
)

// app is the wiring shared by every command.
type app struct {
	cache typedcache.Cache[any]
	codec c.Codec[any]
	out   io.Writer

	closers []func(context.Context) error
}

// storeOverride replaces the configured store; tests use it.
var storeOverride store.Client

func openApp(ctx context.Context, out io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if redisAddr != "" {
		cfg.Redis.Address = redisAddr
	}

	a := &app{out: out}

	zl, err := newZap(cfg.Log)
	if err != nil {
		return nil, err
	}
	var base typedcache.Logger = zaplog.New(zl)
	if cfg.Log.RedactKeys || cfg.Log.SampleErrors > 1 {
		opts := redact.Options{ErrorEvery: cfg.Log.SampleErrors}
		if !cfg.Log.RedactKeys {
			opts.Redact = func(s string) string { return s }
		}
		base = redact.New(base, opts)
	}
	alog := async.New(base, 1, 256)
	a.closers = append(a.closers, func(context.Context) error {
		alog.Close()
		_ = zl.Sync()
		return nil
	})

	st, err := a.openStore(cfg, alog)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.codec, err = c.Named[any](cfg.Cache.Codec, cfg.Cache.MaxDecodeBytes)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.cache, err = typedcache.New[any](typedcache.Options[any]{
		Store:        st,
		Codec:        a.codec,
		Logger:       alog,
		DefaultTTL:   cfg.Cache.DefaultTTL,
		ScanCount:    cfg.Cache.ScanCount,
		MaxScanPages: cfg.Cache.MaxScanPages,
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(cfg *config.Config, log typedcache.Logger) (store.Client, error) {
	var st store.Client
	switch {
	case storeOverride != nil:
		st = storeOverride
	case useMemory:
		m := memory.New()
		a.closers = append(a.closers, m.Close)
		st = m
	default:
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rs, err := redis.New(redis.Config{Client: rdb, CloseClient: true})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		st = rs
	}

	if !cfg.Breaker.Enabled {
		return st, nil
	}
	return breaker.New(st, breaker.Config{
		Name:             "cachectl",
		MaxFailures:      cfg.Breaker.MaxFailures,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
		HalfOpenRequests: cfg.Breaker.HalfOpenRequests,
		Logger:           log,
	})
}

// Close runs closers in reverse order and returns the first error.
func (a *app) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *app) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("format output: %w", err)
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

func newZap(lc config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = true
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func parseValue(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("value must be JSON: %w", err)
	}
	return v, nil
}
