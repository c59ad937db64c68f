package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cogzy/cogzy-api/repositories"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ErrRollbackOnly is returned when committing a transaction that a joined
// participant already rolled back
var ErrRollbackOnly = errors.New("transaction marked rollback-only")

type transactionContextKey struct{}

// TransactionManager starts transactions on the main pool. A Begin on a context
// that already carries a transaction joins it instead of opening a second one,
// so service operations compose without nesting database transactions.
type TransactionManager struct {
	db     *DB
	logger *zap.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *DB, logger *zap.Logger) repositories.TransactionManager {
	return &TransactionManager{
		db:     db,
		logger: logger,
	}
}

// Begin starts a transaction, or joins the one carried by ctx
func (tm *TransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	if outer, ok := GetTransactionFromContext(ctx); ok {
		return &Transaction{state: outer.state, ctx: ctx, joined: true, logger: tm.logger}, nil
	}

	sqlTx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	tm.logger.Debug("transaction started")

	t := &Transaction{state: &txState{tx: sqlTx}, logger: tm.logger}
	t.ctx = context.WithValue(ctx, transactionContextKey{}, t)
	return t, nil
}

// InTransaction runs fn inside a transaction. fn's error or panic rolls back.
func (tm *TransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx.Context(), tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			tm.logger.Error("failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("original_error", err))
		}
		return err
	}
	return tx.Commit()
}

// txState is shared by a transaction and every participant that joined it
type txState struct {
	tx           *sqlx.Tx
	rollbackOnly atomic.Bool
}

// Transaction is a database transaction or a participant joined to one.
// Joined participants never commit; their rollback marks the owner rollback-only.
type Transaction struct {
	state  *txState
	ctx    context.Context
	joined bool
	logger *zap.Logger
}

// Commit commits the transaction. On a joined participant it is a no-op.
func (t *Transaction) Commit() error {
	if t.joined {
		return nil
	}
	if t.state.rollbackOnly.Load() {
		if err := t.state.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback transaction: %w", err)
		}
		return ErrRollbackOnly
	}
	if err := t.state.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	t.logger.Debug("transaction committed")
	return nil
}

// Rollback rolls back the transaction. Rolling back a finished transaction is not an error.
func (t *Transaction) Rollback() error {
	if t.joined {
		t.state.rollbackOnly.Store(true)
		return nil
	}
	if err := t.state.tx.Rollback(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return nil
		}
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	t.logger.Debug("transaction rolled back")
	return nil
}

// Context returns a context carrying the transaction
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// GetTransactionFromContext retrieves the transaction carried by ctx
func GetTransactionFromContext(ctx context.Context) (*Transaction, bool) {
	tx, ok := ctx.Value(transactionContextKey{}).(*Transaction)
	return tx, ok
}

// Executor is satisfied by both *sqlx.DB and *sqlx.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// GetExecutor returns the transaction carried by ctx, or the pool when there is none
func GetExecutor(ctx context.Context, db *DB) Executor {
	if tx, ok := GetTransactionFromContext(ctx); ok {
		return tx.state.tx
	}
	return db.DB
}
