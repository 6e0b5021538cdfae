package database

import (
	"fmt"
	"path/filepath"

	"drivecache/internal/config"
)

// NewStoreFromConfig creates a Store based on the database config type.
// The cache ID names the database file so multiple mirrors can share a
// data directory.
func NewStoreFromConfig(cfg config.DatabaseConfig, cacheID string) (*Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		return Open(filepath.Join(cfg.DataDir, cacheID+".db"))
	case "memory":
		return Open(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
