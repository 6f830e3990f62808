// Package service holds the workflow business logic. Every mutation runs in a
// single transaction and publishes its event only after commit.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kotpos/api/internal/billing"
	"github.com/kotpos/api/internal/events"
	"github.com/kotpos/api/internal/ledger"
)

// Values outside what the money and stock columns can hold.
var (
	ErrAmountTooLarge = billing.ErrAmountTooLarge
	ErrStockTooLarge  = ledger.ErrQuantityTooLarge
)

// maxNumberRetries bounds the retries after a KOT or bill number collision.
const maxNumberRetries = 3

// Unique constraints that signal a lost numbering race.
const (
	kotNumberConstraint  = "kots_kot_number_key"
	billNumberConstraint = "bills_bill_number_key"
	billKotConstraint    = "bills_kot_id_key"
	pendingReversalIndex = "order_reversals_one_pending_per_kot"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// isUniqueViolation checks for pgconn error code 23505 on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

// withNumberRetry reruns fn while it fails on the given number constraint.
func withNumberRetry[T any](constraint string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < maxNumberRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if isUniqueViolation(err, constraint) {
			slog.Debug("sequence number collision, retrying", "constraint", constraint, "attempt", attempt+1)
			lastErr = err
			continue
		}
		return zero, err
	}
	return zero, lastErr
}

// publish is fire-and-forget: the transaction has already committed.
func publish(ctx context.Context, pub events.Publisher, t events.Type, payload any, roles ...string) {
	if pub == nil {
		return
	}
	e, err := events.New(t, payload, roles...)
	if err != nil {
		slog.Warn("build event failed", "type", t, "error", err)
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		slog.Warn("publish event failed", "type", t, "error", err)
	}
}
