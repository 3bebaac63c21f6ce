package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rpgo/fiscal-projection/internal/cache"
	"github.com/rpgo/fiscal-projection/internal/config"
	"github.com/rpgo/fiscal-projection/internal/storage/badger"
	"github.com/rpgo/fiscal-projection/internal/storage/sqlite"
)

// PersistentStore is a cache.Store that owns an open handle.
type PersistentStore interface {
	cache.Store
	io.Closer
}

// OpenStore opens the persistent cache backend named by cfg. The memory
// backend has no store and returns nil.
func OpenStore(cfg config.EngineConfig, logger *slog.Logger) (PersistentStore, error) {
	switch cfg.CacheBackend {
	case "", config.BackendMemory:
		return nil, nil
	case config.BackendBadger:
		bc := badger.DefaultConfig(cfg.CachePath)
		bc.Logger = logger
		s, err := badger.Open(bc)
		if err != nil {
			return nil, fmt.Errorf("open badger cache store: %w", err)
		}
		return s, nil
	case config.BackendSQLite:
		s, err := sqlite.Open(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite cache store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
