// Package storage persists ledgers. Two backends are available: the classic
// JSON state file and a SQLite database.
package storage

import (
	"context"
	"fmt"

	"github.com/robinvdvleuten/mininab/config"
	"github.com/robinvdvleuten/mininab/ledger"
)

// Store loads and saves a whole ledger.
type Store interface {
	// Load returns the persisted ledger, or a fresh one when nothing has
	// been saved yet.
	Load(ctx context.Context) (*ledger.Ledger, error)
	// Save replaces the persisted ledger with l.
	Save(ctx context.Context, l *ledger.Ledger) error
	Close() error
	// Path returns the location the store reads from.
	Path() string
}

// SaveError is returned when persisting a ledger fails.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save state to %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Open returns the store selected by cfg.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Backend {
	case config.BackendJSON, "":
		return NewJSON(cfg.Ledger), nil
	case config.BackendSQLite:
		return NewSQLite(cfg.Ledger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
