package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/typedcache"
)

var (
	errNotFound   = errors.New("(nil)")
	errNotWritten = errors.New("value not written")
)

// run opens the app for the duration of fn.
func run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	err = fn(ctx, a)
	if cerr := a.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// setOptions passes ttl through whenever it was given, so an explicit zero
// skips the write instead of meaning "no expiry".
func setOptions(ttl time.Duration, hasTTL, notNullable bool) []typedcache.SetOption {
	var opts []typedcache.SetOption
	if hasTTL {
		opts = append(opts, typedcache.WithTTL(ttl))
	}
	if notNullable {
		opts = append(opts, typedcache.NotNullable())
	}
	return opts
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print a cached value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				v, ok := a.cache.Get(ctx, args[0])
				if !ok {
					return errNotFound
				}
				return a.print(v)
			})
		},
	}
}

func setCmd() *cobra.Command {
	var (
		ttl         time.Duration
		notNullable bool
	)

	cmd := &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Cache a value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseValue(args[1])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				opts := setOptions(ttl, cmd.Flags().Changed("ttl"), notNullable)
				if !a.cache.Set(ctx, args[0], v, opts...) {
					return errNotWritten
				}
				return a.print("OK")
			})
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Expire after this duration (<= 0 skips the write)")
	cmd.Flags().BoolVar(&notNullable, "not-nullable", false, "Skip the write when the value is null")
	return cmd
}

func delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <key> [key...]",
		Short: "Delete keys and print how many existed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				return a.print(a.cache.DeleteMany(ctx, args...))
			})
		},
	}
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan [pattern]",
		Short: "List keys matching a glob pattern (default *)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				keys, err := a.cache.Scan(ctx, pattern)
				if err != nil {
					return err
				}
				if keys == nil {
					keys = []string{}
				}
				return a.print(keys)
			})
		},
	}
}

func hgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hget <hash> <field>",
		Short: "Print one hash field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				v, ok := a.cache.HGet(ctx, args[0], args[1])
				if !ok {
					return errNotFound
				}
				return a.print(v)
			})
		},
	}
}

type slotOut struct {
	Field string `json:"field"`
	Found bool   `json:"found"`
	Value any    `json:"value,omitempty"`
}

func hmgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hmget <hash> <field> [field...]",
		Short: "Print several hash fields in order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := args[1:]
			return run(cmd, func(ctx context.Context, a *app) error {
				slots := a.cache.HMGet(ctx, args[0], fields...)
				if len(slots) != len(fields) {
					return fmt.Errorf("hmget %q failed", args[0])
				}
				out := make([]slotOut, len(fields))
				for i, s := range slots {
					out[i] = slotOut{Field: fields[i], Found: s.Found, Value: s.Value}
				}
				return a.print(out)
			})
		},
	}
}

func hgetallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hgetall <hash>",
		Short: "Print every field of a hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				m, ok := a.cache.HGetAll(ctx, args[0])
				if !ok {
					return fmt.Errorf("hgetall %q failed", args[0])
				}
				return a.print(m)
			})
		},
	}
}

func hsetCmd() *cobra.Command {
	var notNullable bool

	cmd := &cobra.Command{
		Use:   "hset <hash> <field> <json>",
		Short: "Set one hash field and print 1 if it was created",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseValue(args[2])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				n, err := a.cache.HSet(ctx, args[0], args[1], v, setOptions(0, false, notNullable)...)
				if err != nil {
					return err
				}
				return a.print(n)
			})
		},
	}

	cmd.Flags().BoolVar(&notNullable, "not-nullable", false, "Skip the write when the value is null")
	return cmd
}

func hmsetCmd() *cobra.Command {
	var keyField string

	cmd := &cobra.Command{
		Use:   "hmset <hash> (<field> <json>)... | hmset <hash> --key-field <name> <json-array>",
		Short: "Set several hash fields in one call",
		Long: "Set several hash fields in one call. With --key-field the single argument is a JSON array of\n" +
			"records; each record is stored under the value of its key field.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := args[0]
			if keyField != "" {
				if len(args) != 2 {
					return errors.New("--key-field takes exactly one JSON array")
				}
				var records []any
				if err := json.Unmarshal([]byte(args[1]), &records); err != nil {
					return fmt.Errorf("records must be a JSON array: %w", err)
				}
				return run(cmd, func(ctx context.Context, a *app) error {
					if err := a.cache.HMSetRecords(ctx, hash, records, keyField); err != nil {
						return err
					}
					return a.print("OK")
				})
			}

			rest := args[1:]
			if len(rest)%2 != 0 {
				return typedcache.ErrOddFieldValues
			}
			values := make([]any, 0, len(rest)/2)
			for i := 1; i < len(rest); i += 2 {
				v, err := parseValue(rest[i])
				if err != nil {
					return fmt.Errorf("field %q: %w", rest[i-1], err)
				}
				values = append(values, v)
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				pairs := make([]string, 0, len(rest))
				for i, v := range values {
					b, err := a.codec.Encode(v)
					if err != nil {
						return fmt.Errorf("field %q: %w", rest[2*i], err)
					}
					pairs = append(pairs, rest[2*i], string(b))
				}
				if err := a.cache.HMSet(ctx, hash, pairs); err != nil {
					return err
				}
				return a.print("OK")
			})
		},
	}

	cmd.Flags().StringVar(&keyField, "key-field", "", "Record field whose value names each hash field")
	return cmd
}

func hdelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hdel <hash> <field> [field...]",
		Short: "Delete hash fields and print how many existed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				n, err := a.cache.HDel(ctx, args[0], args[1:]...)
				if err != nil {
					return err
				}
				return a.print(n)
			})
		},
	}
}

func expireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire <key> <duration>",
		Short: "Set a key's time to live",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.ParseDuration(args[1])
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				ok, err := a.cache.Expire(ctx, args[0], d)
				if err != nil {
					return err
				}
				return a.print(ok)
			})
		},
	}
}

func ttlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ttl <key>",
		Short: "Print remaining seconds, -1 without expiry, -2 when missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				d, err := a.cache.TTL(ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(ttlSeconds(d))
			})
		},
	}
}

func ttlSeconds(d time.Duration) int64 {
	switch d {
	case typedcache.NoExpiry, typedcache.KeyNotFound:
		return int64(d)
	}
	return int64(d.Round(time.Second) / time.Second)
}
