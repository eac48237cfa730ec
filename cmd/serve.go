package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/jeff-stratofied/loan-dashboard/server"
	"github.com/jeff-stratofied/loan-dashboard/store"
)

// serveCmd runs the thin loan-store proxy server.
type serveCmd struct{}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the loan-store proxy server" }
func (*serveCmd) Usage() string {
	return `loandash serve

  Runs the HTTP proxy exposing GET/PUT /api/loans over the remote store.
  Configuration comes from the environment: LOANDASH_ADDR,
  LOANDASH_STORE_URL, LOANDASH_STORE_KEY, LOANDASH_REDIS_ADDR.
`
}

func (*serveCmd) SetFlags(_ *flag.FlagSet) {}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := server.ParseEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	opts := []store.Option{}
	if cfg.RedisAddr != "" {
		opts = append(opts, store.WithCache(store.NewRedisCache(cfg.RedisAddr, cfg.CacheTTL)))
	}
	st := store.New(store.Config{
		BaseURL:    cfg.StoreURL,
		APIKey:     cfg.StoreKey,
		RecordPath: cfg.RecordPath,
	}, logger, opts...)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(st, logger).Run(ctx, cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
