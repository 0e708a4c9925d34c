package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Beginner starts transactions.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxManager runs a function inside a single unit of work. Repositories called
// with the context passed to fn join the transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type afterCommitKey struct{}

type afterCommitHooks struct {
	fns []func(context.Context)
}

// WithAfterCommit returns a context that collects AfterCommit hooks, and the
// function that runs them. TxManager implementations call it when opening
// the outermost unit of work.
func WithAfterCommit(ctx context.Context) (context.Context, func(context.Context)) {
	hooks := &afterCommitHooks{}
	run := func(ctx context.Context) {
		for _, fn := range hooks.fns {
			fn(ctx)
		}
	}
	return context.WithValue(ctx, afterCommitKey{}, hooks), run
}

// AfterCommit runs fn once the unit of work bound to ctx has committed, or
// right away when ctx carries none. Hooks are discarded on rollback.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if hooks, ok := ctx.Value(afterCommitKey{}).(*afterCommitHooks); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn(ctx)
}

type pgTxManager struct {
	db Beginner
}

// NewTxManager returns a Postgres-backed TxManager.
func NewTxManager(db Beginner) TxManager {
	return &pgTxManager{db: db}
}

func (m *pgTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return err
	}
	txCtx, runHooks := WithAfterCommit(context.WithValue(ctx, txKey{}, tx))
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	runHooks(context.WithoutCancel(ctx))
	return nil
}

// conn returns the transaction bound to ctx, or db.
func conn(ctx context.Context, db DBTX) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

type rowScanner interface {
	Scan(dest ...any) error
}

func requireAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
