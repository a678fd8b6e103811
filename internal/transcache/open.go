package transcache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"bilingualtube/internal/config"
	"bilingualtube/internal/services"
)

const (
	sqliteFileName = "translations.db"
	jsonFileName   = "translations.json"
)

// Open builds a Cache for the configured backend.
func Open(ctx context.Context, cfg config.Cache, logger *slog.Logger) (*Cache, error) {
	backend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(backend, logger), nil
}

// OpenBackend opens the storage named by cfg.Backend.
func OpenBackend(ctx context.Context, cfg config.Cache) (Backend, error) {
	switch cfg.Backend {
	case config.CacheBackendMemory:
		return NewMemoryBackend(), nil
	case config.CacheBackendJSON:
		return OpenJSON(filepath.Join(cfg.Dir, jsonFileName))
	case config.CacheBackendSQLite, "":
		return OpenSQLite(ctx, filepath.Join(cfg.Dir, sqliteFileName))
	default:
		return nil, services.Wrap(services.ErrConfiguration, "transcache", "open",
			fmt.Sprintf("unsupported cache backend %q", cfg.Backend), nil)
	}
}
