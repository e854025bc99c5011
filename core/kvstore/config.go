package kvstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const (
	BackendMemory   = "memory"
	BackendDatabase = "database"
)

// Config selects the persistence backend.
type Config struct {
	// Backend is memory or database.
	Backend string `mapstructure:"backend" default:"memory"`
	// Table is the key/value table used by the database backend.
	Table string `mapstructure:"table" default:"kv_entries"`
}

// Open builds the configured store. The database backend migrates its table
// and needs a connection.
func Open(ctx context.Context, cfg Config, db *gorm.DB) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendDatabase:
		if db == nil {
			return nil, errors.New("kvstore: database backend requires a database connection")
		}
		store := NewGormStore(db, cfg.Table)
		if err := store.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("kvstore: migrate %s: %w", store.Table(), err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("kvstore: unknown backend %q", cfg.Backend)
	}
}
