// Package open selects and opens the storage backend named in the config.
package open

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/agri-market/internal/config"
	"github.com/rickgao/agri-market/internal/store"
	"github.com/rickgao/agri-market/internal/store/jsonfile"
	"github.com/rickgao/agri-market/internal/store/memory"
	"github.com/rickgao/agri-market/internal/store/postgres"
	"github.com/rickgao/agri-market/internal/store/sqlite"
)

// Backend opens the backend configured in cfg. The caller owns Close.
func Backend(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (store.Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("backend", cfg.Backend)

	var (
		b   store.Backend
		err error
	)
	switch cfg.Backend {
	case config.BackendJSON:
		b, err = unwrap(jsonfile.Open(ctx, cfg.DataDir, logger))
	case config.BackendSQLite:
		b, err = unwrap(sqlite.Open(ctx, cfg.SQLitePath, logger))
	case config.BackendPostgres:
		b, err = unwrap(postgres.Open(ctx, cfg.Postgres, logger))
	case config.BackendMemory:
		logger.Warn("memory backend selected; nothing will be persisted")
		b = memory.New()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return b, nil
}

// unwrap keeps a failed open from producing a non-nil interface around a nil pointer.
func unwrap[T store.Backend](b T, err error) (store.Backend, error) {
	if err != nil {
		return nil, err
	}
	return b, nil
}
