// Package dbx holds what the users and messages repositories share about
// the database: the handle they run statements on, transactions for
// multi-step writes such as registration, and Postgres error classification.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is what a repository needs to run its statements. Passing a *sql.Tx
// instead of the *sql.DB puts the repository inside that transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the unit of work executed by WithTx.
type TxFunc func(ctx context.Context, tx DBTX) error

// WithTx runs fn in a single transaction. It commits when fn returns nil and
// rolls back otherwise; a panic in fn rolls back and is re-raised. Failing to
// begin because the database is unreachable matches common.ErrorUpstream.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    taken, err := s.repomanager.Users(tx).Exists(ctx, in.UserName)
//	    ...
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return WrapError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
