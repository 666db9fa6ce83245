package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type txKey struct{}

// WithTransaction executes fn inside a database transaction
func WithTransaction(ctx context.Context, db *database.SQLiteDB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("rollback error during panic recovery", "error", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetQuerier returns the transaction stored in ctx, or the database itself.
func GetQuerier(ctx context.Context, db *database.SQLiteDB) database.SQLQuerier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.DB
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// periodLocker keeps one RWMutex per period. It only serialises writers of
// this process, which is all an embedded database can have.
type periodLocker struct {
	db    *database.SQLiteDB
	mu    sync.Mutex
	locks map[int32]*sync.RWMutex
}

func NewPeriodLocker(db *database.SQLiteDB) payroll.PeriodLocker {
	return &periodLocker{db: db, locks: make(map[int32]*sync.RWMutex)}
}

func (l *periodLocker) lockFor(period payroll.Period) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := period.Key()
	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[key] = lock
	}
	return lock
}

// The lock is taken before the transaction begins: with a single connection,
// waiting for a lock while holding the connection would deadlock.
func (l *periodLocker) WithSharedLock(ctx context.Context, period payroll.Period, fn func(ctx context.Context) error) error {
	lock := l.lockFor(period)
	lock.RLock()
	defer lock.RUnlock()

	return l.inTx(ctx, fn)
}

func (l *periodLocker) WithExclusiveLock(ctx context.Context, period payroll.Period, fn func(ctx context.Context) error) error {
	lock := l.lockFor(period)
	lock.Lock()
	defer lock.Unlock()

	return l.inTx(ctx, fn)
}

func (l *periodLocker) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, l.db, func(tx *sql.Tx) error {
		return fn(WithTx(ctx, tx))
	})
}
