package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rickgao/agri-market/internal/bidding"
	"github.com/rickgao/agri-market/internal/config"
	"github.com/rickgao/agri-market/internal/directory"
	"github.com/rickgao/agri-market/internal/notify"
	"github.com/rickgao/agri-market/internal/registry"
	"github.com/rickgao/agri-market/internal/shell"
	"github.com/rickgao/agri-market/internal/store/open"
	"github.com/rickgao/agri-market/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	info := version.Get()
	if *showVersion {
		fmt.Println(info)
		return
	}

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Menu text owns stdout; logs go to stderr.
	logger := newLogger(os.Stderr, cfg.Logging)
	slog.SetDefault(logger)

	logger.Debug("starting agrimarket", append(info.LogAttrs(),
		"config", *configPath,
		"backend", cfg.Storage.Backend,
	)...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, os.Stdin, os.Stdout); err != nil {
		logger.Error("agrimarket failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, in io.Reader, out io.Writer) error {
	backend, err := open.Backend(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	dir := directory.New(backend, directory.WithLogger(logger))
	svc := shell.Services{
		Accounts: dir,
		Listings: registry.New(backend, dir, registry.WithLogger(logger)),
		Bids: bidding.New(backend,
			bidding.WithLogger(logger),
			bidding.WithLateBids(cfg.Auction.AcceptLateBids),
		),
		Notifications: notify.New(backend, notify.WithLogger(logger)),
	}

	return shell.New(in, out, svc, logger).Run(ctx)
}

func newLogger(w io.Writer, cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
