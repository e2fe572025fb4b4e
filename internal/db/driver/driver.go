// Package driver opens the db.Store named in configuration.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/db"
	dbSqlite "github.com/wilfordwoodruff/recommend-streamlit/internal/db/sqlite"
	dbValkey "github.com/wilfordwoodruff/recommend-streamlit/internal/db/valkey"
)

// Driver names.
const (
	Valkey = "valkey"
	SQLite = "sqlite"
)

// Config selects and parameterizes a driver.
type Config struct {
	Driver           string
	Addrs            []string
	Password         string
	SQLitePath       string
	ReadinessTimeout time.Duration
}

// Open connects the configured store and waits until it answers.
func Open(ctx context.Context, cfg Config) (db.Store, error) {
	var store db.Store
	switch cfg.Driver {
	case Valkey:
		s, err := dbValkey.NewStore(dbValkey.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, fmt.Errorf("create valkey store: %w", err)
		}
		store = s
	case SQLite:
		s, err := dbSqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	timeout := cfg.ReadinessTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if err := store.WaitForReady(ctx, timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s store not ready: %w", cfg.Driver, err)
	}
	return store, nil
}
