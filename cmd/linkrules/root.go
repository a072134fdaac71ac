package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/liamcoop/linkrules/internal/logger"
)

// rootOptions holds flags shared by every subcommand
type rootOptions struct {
	rulesPath string
	logLevel  string
	facts     factOptions
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "linkrules",
		Short:         "linkrules - declarative link-quality rules",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := logger.ConfigFromEnv()
			cfg.Level = opts.logLevel
			cfg.Out = cmd.ErrOrStderr()
			return logger.Setup(cfg)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return logger.Shutdown(ctx)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.rulesPath, "rules", envOr("RULES_FILE", "configs/rules.yaml"), "Rule definition file")
	flags.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "Log level: trace, debug, info, warn, error")
	flags.StringVar(&opts.facts.kind, "facts", envOr("FACTS", factsReference), "Fact source: reference, postgres, redis")
	flags.StringVar(&opts.facts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres URL for --facts postgres")
	flags.StringVar(&opts.facts.redisAddr, "redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "Redis address for --facts redis")
	flags.BoolVar(&opts.facts.cache, "cache", true, "Memoize fact lookups within one run so conditions and reports share a query")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newServeCmd(opts))
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
