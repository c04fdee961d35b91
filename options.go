package typedcache

import "time"

type setConfig struct {
	ttl         time.Duration
	hasTTL      bool
	notNullable bool
}

// SetOption tunes a single write.
type SetOption func(*setConfig)

// WithTTL expires the entry after ttl. A ttl <= 0 turns the write into a no-op;
// it never means "delete" or "keep forever". Hash writes ignore it.
func WithTTL(ttl time.Duration) SetOption {
	return func(c *setConfig) {
		c.ttl = ttl
		c.hasTTL = true
	}
}

// NotNullable skips the write when the value is nil.
func NotNullable() SetOption {
	return func(c *setConfig) { c.notNullable = true }
}

func collectSetOptions(opts []SetOption) setConfig {
	var cfg setConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
