package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRunRepositoryImpl struct {
	db *database.DB
}

func NewPayrollRunRepository(db *database.DB) payroll.PayrollRunRepository {
	return &payrollRunRepositoryImpl{db: db}
}

func (r *payrollRunRepositoryImpl) Get(ctx context.Context, period payroll.Period) (*payroll.PayrollRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT period_year, period_month, status, receipt_count, commission_count,
			   total_net, generated_at, closed_at, created_at
		FROM payroll_runs
		WHERE period_year = $1 AND period_month = $2
	`

	var run payroll.PayrollRun
	err := q.QueryRow(ctx, query, period.Year, period.Month).Scan(
		&run.Period.Year, &run.Period.Month, &run.Status, &run.ReceiptCount, &run.CommissionCount,
		&run.TotalNet, &run.GeneratedAt, &run.ClosedAt, &run.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, payroll.ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return &run, nil
}

func (r *payrollRunRepositoryImpl) Ensure(ctx context.Context, period payroll.Period, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_runs (period_year, period_month, status, generated_at, created_at)
		VALUES ($1, $2, 'open', $3, $3)
		ON CONFLICT (period_year, period_month) DO UPDATE
			SET generated_at = EXCLUDED.generated_at
			WHERE payroll_runs.status = 'open'
	`

	if _, err := q.Exec(ctx, query, period.Year, period.Month, at); err != nil {
		return fmt.Errorf("failed to ensure payroll run: %w", err)
	}
	return nil
}

func (r *payrollRunRepositoryImpl) MarkClosed(ctx context.Context, period payroll.Period, totals payroll.RunTotals, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs SET
			status = 'closed',
			receipt_count = $3,
			commission_count = $4,
			total_net = $5,
			closed_at = $6
		WHERE period_year = $1 AND period_month = $2 AND status = 'open'
	`

	tag, err := q.Exec(ctx, query,
		period.Year, period.Month, totals.ReceiptCount, totals.CommissionCount, totals.TotalNet, at,
	)
	if err != nil {
		return fmt.Errorf("failed to close payroll run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRunAlreadyClosed
	}
	return nil
}
