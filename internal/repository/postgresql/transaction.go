package postgresql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

// WithTransaction executes fn inside a database transaction
func WithTransaction(ctx context.Context, db *database.DB, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("rollback error during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// WithTx stores tx in ctx so repositories pick it up through GetQuerier.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetQuerier returns either transaction or pool
// Used in repositories to support both transactional and non-transactional operations
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}

// payrollLockClass namespaces the advisory locks taken for payroll periods.
const payrollLockClass int32 = 7301

type periodLocker struct {
	db *database.DB
}

// NewPeriodLocker returns a locker backed by transaction-scoped advisory
// locks, so it also serialises writers running in other processes.
func NewPeriodLocker(db *database.DB) payroll.PeriodLocker {
	return &periodLocker{db: db}
}

func (l *periodLocker) WithSharedLock(ctx context.Context, period payroll.Period, fn func(ctx context.Context) error) error {
	return l.withLock(ctx, "SELECT pg_advisory_xact_lock_shared($1, $2)", period, fn)
}

func (l *periodLocker) WithExclusiveLock(ctx context.Context, period payroll.Period, fn func(ctx context.Context) error) error {
	return l.withLock(ctx, "SELECT pg_advisory_xact_lock($1, $2)", period, fn)
}

func (l *periodLocker) withLock(ctx context.Context, lockSQL string, period payroll.Period, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, l.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockSQL, payrollLockClass, period.Key()); err != nil {
			return fmt.Errorf("lock payroll period %s: %w", period, err)
		}
		return fn(WithTx(ctx, tx))
	})
}
