package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hostelbites/api/internal/database"
	"github.com/hostelbites/api/internal/logging"
	"github.com/hostelbites/api/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const maxTxAttempts = 3

// Pool is the subset of *pgxpool.Pool the services need.
type Pool interface {
	database.DBTX
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Reads inside a snapshot transaction all see the same state, and writing a
// row another transaction committed after that snapshot fails with 40001.
var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead}

// isConflict reports serialization failures and deadlocks (40001, 40P01).
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// retryOnConflict runs fn up to maxTxAttempts times while it fails with a
// serialization conflict, then gives up with ErrTransactionConflict.
func retryOnConflict[T any](ctx context.Context, op string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !isConflict(err) {
			return zero, err
		}
		lastErr = err
		metrics.TransactionRetries.WithLabelValues(op).Inc()
		logging.Ctx(ctx).Debug().Err(err).Str("op", op).Int("attempt", attempt).Msg("serialization conflict")
		if ctx.Err() != nil {
			break
		}
	}
	return zero, fmt.Errorf("%s: %w (%v)", op, ErrTransactionConflict, lastErr)
}
