package pipeline

import (
	"fmt"
	"path/filepath"

	"illiterate/internal/config"
	"illiterate/internal/convert"
	"illiterate/internal/storage"
	"illiterate/internal/syntax"
)

// NewEngine builds a conversion engine from the configuration.
func NewEngine(cfg *config.Config) (*convert.Engine, error) {
	matcher, err := cfg.Matcher()
	if err != nil {
		return nil, fmt.Errorf("failed to build wrapper matcher: %w", err)
	}

	opts := convert.Options{
		Language:  cfg.Language,
		Qualifier: cfg.Qualifier,
		Matcher:   matcher,
	}
	if cfg.StrictSyntax {
		v, err := syntax.NewValidator(cfg.Language)
		if err != nil {
			return nil, fmt.Errorf("failed to create syntax validator: %w", err)
		}
		opts.Validator = v
	}
	return convert.New(opts), nil
}

// OpenCache opens the conversion cache described by cfg. A relative cache
// path is resolved against root. It returns nil when caching is disabled.
func OpenCache(cfg *config.Config, root string) (storage.Cache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	var backing storage.Cache
	if path := CachePath(cfg, root); path != "" {
		store, err := storage.NewSQLiteCache(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
		}
		backing = store
	}

	if cfg.Cache.MemoryEntries == 0 {
		return backing, nil
	}
	mem, err := storage.NewMemoryCache(cfg.Cache.MemoryEntries, backing)
	if err != nil {
		if backing != nil {
			backing.Close()
		}
		return nil, err
	}
	return mem, nil
}

// CachePath returns the SQLite cache location for root, or "" when the
// cache has no on-disk layer.
func CachePath(cfg *config.Config, root string) string {
	path := cfg.Cache.Path
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
