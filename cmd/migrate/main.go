// Command migrate copies the marketplace collections from one storage
// backend to another, or imports the data files of the first
// release, which kept them in the working directory.
//
//	migrate -from configs/json.yaml -to configs/postgres.yaml
//	migrate -legacy-dir ./old-data -to configs/sqlite.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rickgao/agri-market/internal/config"
	"github.com/rickgao/agri-market/internal/model"
	"github.com/rickgao/agri-market/internal/store"
	"github.com/rickgao/agri-market/internal/store/open"
	"github.com/rickgao/agri-market/internal/version"
)

// source is anything collections can be read from.
type source interface {
	LoadListings(ctx context.Context) ([]model.Listing, error)
	LoadBids(ctx context.Context) ([]model.Bid, error)
	LoadFarmers(ctx context.Context) ([]model.Farmer, error)
}

// summary counts what a migration copied.
type summary struct {
	Listings   int
	Bids       int
	Farmers    int
	BidIDsMade int
}

func main() {
	fromPath := flag.String("from", "", "config file of the source backend")
	legacyDir := flag.String("legacy-dir", "", "directory holding products.json, bids.json and farmers.json from a first-release install")
	toPath := flag.String("to", "", "config file of the destination backend")
	dryRun := flag.Bool("dry-run", false, "read and convert, but write nothing")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := validateFlags(*fromPath, *legacyDir, *toPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting migration", version.Get().LogAttrs()...)

	var src source
	if *legacyDir != "" {
		src = &legacySource{dir: *legacyDir, logger: logger}
	} else {
		cfg, err := config.LoadAndValidate(*fromPath)
		if err != nil {
			logger.Error("failed to load source config", "error", err)
			os.Exit(1)
		}
		b, err := open.Backend(ctx, cfg.Storage, logger.With("side", "source"))
		if err != nil {
			logger.Error("failed to open source", "error", err)
			os.Exit(1)
		}
		defer b.Close()
		src = b
	}

	dstCfg, err := config.LoadAndValidate(*toPath)
	if err != nil {
		logger.Error("failed to load destination config", "error", err)
		os.Exit(1)
	}

	sum, err := run(ctx, src, dstCfg.Storage, *dryRun, logger)
	if err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	logger.Info("migration complete",
		"listings", sum.Listings,
		"bids", sum.Bids,
		"farmers", sum.Farmers,
		"bid_ids_assigned", sum.BidIDsMade,
		"dry_run", *dryRun,
	)
}

func validateFlags(from, legacy, to string) error {
	switch {
	case to == "":
		return errors.New("-to is required")
	case from == "" && legacy == "":
		return errors.New("one of -from or -legacy-dir is required")
	case from != "" && legacy != "":
		return errors.New("-from and -legacy-dir are mutually exclusive")
	}
	return nil
}

// run reads every collection from src and replaces the destination's
// collections with them. The destination is reopened afterwards so its
// listing counter catches up with the imported ids.
func run(ctx context.Context, src source, dst config.StorageConfig, dryRun bool, logger *slog.Logger) (summary, error) {
	farmers, err := src.LoadFarmers(ctx)
	if err != nil {
		return summary{}, fmt.Errorf("read farmers: %w", err)
	}
	listings, err := src.LoadListings(ctx)
	if err != nil {
		return summary{}, fmt.Errorf("read listings: %w", err)
	}
	bids, err := src.LoadBids(ctx)
	if err != nil {
		return summary{}, fmt.Errorf("read bids: %w", err)
	}

	sum := summary{Listings: len(listings), Bids: len(bids), Farmers: len(farmers)}
	for i := range bids {
		if bids[i].ID == uuid.Nil {
			bids[i].ID = uuid.New()
			sum.BidIDsMade++
		}
	}

	if dryRun {
		return sum, nil
	}

	backend, err := open.Backend(ctx, dst, logger.With("side", "destination"))
	if err != nil {
		return summary{}, err
	}
	if err := write(ctx, backend, farmers, listings, bids); err != nil {
		backend.Close()
		return summary{}, err
	}
	if err := backend.Close(); err != nil {
		return summary{}, fmt.Errorf("close destination: %w", err)
	}

	if dst.Backend != config.BackendMemory {
		reopened, err := open.Backend(ctx, dst, logger.With("side", "destination"))
		if err != nil {
			return summary{}, fmt.Errorf("reopen destination: %w", err)
		}
		reopened.Close()
	}
	return sum, nil
}

func write(ctx context.Context, dst store.Backend, farmers []model.Farmer, listings []model.Listing, bids []model.Bid) error {
	if err := dst.SaveFarmers(ctx, farmers); err != nil {
		return fmt.Errorf("write farmers: %w", err)
	}
	if err := dst.SaveListings(ctx, listings); err != nil {
		return fmt.Errorf("write listings: %w", err)
	}
	if err := dst.SaveBids(ctx, bids); err != nil {
		return fmt.Errorf("write bids: %w", err)
	}
	return nil
}
