// Package repository implements the engine's persistence contracts on MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/mgmcelwee/evony/internal/game"
)

// MySQL error numbers that indicate a lost lock race worth retrying.
const (
	mysqlErrLockDeadlock    = 1213
	mysqlErrLockWaitTimeout = 1205
)

// txRetries bounds how often WithTx replays a transaction that lost its
// locks before giving up with ErrConcurrentModification.
const txRetries = 3

// Store implements game.Store on a MySQL database.  Raid transitions rely on
// SELECT ... FOR UPDATE row locks inside WithTx, so InnoDB is required.
type Store struct {
	db *sql.DB
}

// NewStore constructs a Store with the given DB handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a database transaction and commits only when fn
// returns nil.  Deadlocks and lock wait timeouts are replayed a bounded
// number of times; exhausting the budget surfaces ErrConcurrentModification
// so callers can retry the whole operation.
func (s *Store) WithTx(ctx context.Context, fn func(tx game.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= txRetries; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", game.ErrConcurrentModification, lastErr)
}

func (s *Store) runTx(ctx context.Context, fn func(tx game.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	err = fn(&sqlTx{tx: tx})
	return err
}

// isRetryable reports whether the error is a MySQL lock conflict that a
// replay can resolve.
func isRetryable(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlErrLockDeadlock || me.Number == mysqlErrLockWaitTimeout
}

// sqlTx implements game.Tx over one *sql.Tx.  Its methods live in the
// per-entity files of this package.
type sqlTx struct {
	tx *sql.Tx
}

var (
	_ game.Store = (*Store)(nil)
	_ game.Tx    = (*sqlTx)(nil)
)

// querier is the common surface of *sql.DB and *sql.Tx, letting the row
// scanners below serve both the transactional and the snapshot paths.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// notFound maps sql.ErrNoRows onto the engine's sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return game.ErrNotFound
	}
	return err
}
