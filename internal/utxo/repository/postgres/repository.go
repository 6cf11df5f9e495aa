// Package postgres implements the ledger store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockinsight7000-ledger/internal/utxo/store"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

type Repository struct {
	db      *sqlx.DB
	metrics Metrics
}

var _ store.Repository = (*Repository)(nil)

func NewRepository(ctx context.Context, dsn string, metrics Metrics) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	if metrics == nil {
		return nil, errors.New("postgres metrics is nil")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return &Repository{db: db, metrics: metrics}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// ledgerLock is the advisory lock key held by every ledger transaction.
const ledgerLock int64 = 7000

// Begin opens a transaction and waits for the ledger lock, so ledger
// transactions of all processes run one at a time.
func (r *Repository) Begin(ctx context.Context) (_ store.Tx, err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("begin", err, start)
	}()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", ledgerLock); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("acquire ledger lock: %w", err)
	}
	return &Tx{tx: tx, metrics: r.metrics}, nil
}

// Tx is a ledger transaction backed by a database transaction.
type Tx struct {
	tx      *sqlx.Tx
	metrics Metrics
}

var _ store.Tx = (*Tx)(nil)

func (t *Tx) Commit() (err error) {
	start := time.Now()
	defer func() {
		t.metrics.Observe("commit", err, start)
	}()

	if err = t.tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. It is a no-op after Commit.
func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}
