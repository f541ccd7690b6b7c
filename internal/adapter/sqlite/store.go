package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Strob0t/MissionControl/internal/port/database"
)

// Store implements database.Store on SQLite.
type Store struct {
	sqlDB *sql.DB
	db    querier
	inTx  bool
}

// NewStore wraps an already migrated database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{sqlDB: db, db: db}
}

var _ database.Store = (*Store)(nil)

// InTx runs fn inside a transaction. Nested calls join the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx database.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(&Store{sqlDB: s.sqlDB, db: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}
