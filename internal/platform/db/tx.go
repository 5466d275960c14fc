package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"KCMS-gateway/internal/platform/logging"
)

// DBTX: *sql.DB と *sql.Tx の共通部分。ストアはこれだけに依存する
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunInTx: fn が nil なら COMMIT、エラーか panic なら ROLLBACK。
// panic はロールバック後にそのまま投げ直す
func RunInTx(ctx context.Context, conn *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.FromContext(ctx).WithError(rbErr).Warn("rollback failed")
			err = errors.Join(err, rbErr)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	done = true
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ReadOnly: 一覧と件数を同じスナップショットから読む
func ReadOnly(ctx context.Context, conn *sql.DB, fn func(ctx context.Context, tx DBTX) error) error {
	return RunInTx(ctx, conn, &sql.TxOptions{ReadOnly: true}, fn)
}
