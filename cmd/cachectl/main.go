package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	redisAddr  string
	useMemory  bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cachectl",
		Short:         "cachectl - typed cache client",
		Long:          "Inspect and edit typedcache entries in Redis. Values are read and printed as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: cachectl.yaml in ., $HOME/.config/cachectl, /etc/cachectl)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Redis address (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&useMemory, "memory", false, "Use an in-process store instead of Redis")

	rootCmd.AddCommand(
		getCmd(),
		setCmd(),
		delCmd(),
		scanCmd(),
		hgetCmd(),
		hmgetCmd(),
		hgetallCmd(),
		hsetCmd(),
		hmsetCmd(),
		hdelCmd(),
		expireCmd(),
		ttlCmd(),
	)
	return rootCmd
}
