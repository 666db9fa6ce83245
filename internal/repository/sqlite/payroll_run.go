package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type payrollRunRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewPayrollRunRepository(db *database.SQLiteDB) payroll.PayrollRunRepository {
	return &payrollRunRepositoryImpl{db: db}
}

func (r *payrollRunRepositoryImpl) Get(ctx context.Context, period payroll.Period) (*payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT period_year, period_month, status, receipt_count, commission_count,
			   total_net, generated_at, closed_at, created_at
		FROM payroll_runs
		WHERE period_year = ? AND period_month = ?
	`

	var run payroll.PayrollRun
	err := q.QueryRowContext(ctx, query, period.Year, period.Month).Scan(
		&run.Period.Year, &run.Period.Month, &run.Status, &run.ReceiptCount, &run.CommissionCount,
		&run.TotalNet, &run.GeneratedAt, &run.ClosedAt, &run.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payroll.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return &run, nil
}

func (r *payrollRunRepositoryImpl) Ensure(ctx context.Context, period payroll.Period, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_runs (period_year, period_month, status, total_net, generated_at, created_at)
		VALUES (?1, ?2, 'open', '0', ?3, ?3)
		ON CONFLICT (period_year, period_month) DO UPDATE
			SET generated_at = excluded.generated_at
			WHERE payroll_runs.status = 'open'
	`

	if _, err := q.ExecContext(ctx, query, period.Year, period.Month, at); err != nil {
		return fmt.Errorf("failed to ensure payroll run: %w", err)
	}
	return nil
}

func (r *payrollRunRepositoryImpl) MarkClosed(ctx context.Context, period payroll.Period, totals payroll.RunTotals, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs SET
			status = 'closed',
			receipt_count = ?,
			commission_count = ?,
			total_net = ?,
			closed_at = ?
		WHERE period_year = ? AND period_month = ? AND status = 'open'
	`

	res, err := q.ExecContext(ctx, query,
		totals.ReceiptCount, totals.CommissionCount, totals.TotalNet, at, period.Year, period.Month,
	)
	if err != nil {
		return fmt.Errorf("failed to close payroll run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrRunAlreadyClosed
	}
	return nil
}
