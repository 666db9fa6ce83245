package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type commissionReceiptRepositoryImpl struct {
	db *database.DB
}

func NewCommissionReceiptRepository(db *database.DB) payroll.CommissionReceiptRepository {
	return &commissionReceiptRepositoryImpl{db: db}
}

const commissionReceiptColumns = `
	id, employee_id, employee_name, branch_id, period_year, period_month,
	production_amount, target_achieved_percent, commission_amount, status, notes,
	sent_at, created_at, updated_at`

func scanCommissionReceipt(row pgx.Row) (*payroll.CommissionReceipt, error) {
	var c payroll.CommissionReceipt
	err := row.Scan(
		&c.ID, &c.EmployeeID, &c.EmployeeName, &c.BranchID, &c.Period.Year, &c.Period.Month,
		&c.ProductionAmount, &c.TargetAchievedPercent, &c.CommissionAmount, &c.Status, &c.Notes,
		&c.SentAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *commissionReceiptRepositoryImpl) Create(ctx context.Context, receipt *payroll.CommissionReceipt) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO commission_receipts (
			id, employee_id, employee_name, branch_id, period_year, period_month,
			production_amount, target_achieved_percent, commission_amount, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := q.Exec(ctx, query,
		receipt.ID, receipt.EmployeeID, receipt.EmployeeName, receipt.BranchID, receipt.Period.Year, receipt.Period.Month,
		receipt.ProductionAmount, receipt.TargetAchievedPercent, receipt.CommissionAmount, receipt.Status, receipt.Notes,
		receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "uk_commission_receipts_employee_period") {
			return fmt.Errorf("%s %s: %w", receipt.EmployeeID, receipt.Period, payroll.ErrDuplicatePeriod)
		}
		return fmt.Errorf("failed to create commission receipt: %w", err)
	}
	return nil
}

func (r *commissionReceiptRepositoryImpl) GetByID(ctx context.Context, id string) (*payroll.CommissionReceipt, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + commissionReceiptColumns + ` FROM commission_receipts WHERE id = $1`

	receipt, err := scanCommissionReceipt(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, payroll.ErrCommissionNotFound
		}
		return nil, fmt.Errorf("failed to get commission receipt: %w", err)
	}
	return receipt, nil
}

func (r *commissionReceiptRepositoryImpl) EmployeeIDsByPeriod(ctx context.Context, period payroll.Period) (map[string]struct{}, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT employee_id FROM commission_receipts WHERE period_year = $1 AND period_month = $2`,
		period.Year, period.Month,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query commission employees: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (r *commissionReceiptRepositoryImpl) List(ctx context.Context, filter payroll.CommissionFilter) ([]payroll.CommissionReceipt, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.BranchID != nil {
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", argIdx))
		args = append(args, *filter.BranchID)
		argIdx++
	}
	if filter.Year != nil {
		conditions = append(conditions, fmt.Sprintf("period_year = $%d", argIdx))
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Month != nil {
		conditions = append(conditions, fmt.Sprintf("period_month = $%d", argIdx))
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
	}

	query := fmt.Sprintf(`SELECT %s FROM commission_receipts WHERE %s
		ORDER BY period_year, period_month, employee_id`,
		commissionReceiptColumns, strings.Join(conditions, " AND "))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission receipts: %w", err)
	}
	defer rows.Close()

	receipts := []payroll.CommissionReceipt{}
	for rows.Next() {
		receipt, err := scanCommissionReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission receipt: %w", err)
		}
		receipts = append(receipts, *receipt)
	}
	return receipts, rows.Err()
}

func (r *commissionReceiptRepositoryImpl) UpdateStatus(ctx context.Context, id string, status payroll.CommissionStatus, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE commission_receipts SET
			status = $2,
			sent_at = CASE WHEN $2 = 'sent' AND sent_at IS NULL THEN $3 ELSE sent_at END,
			updated_at = $3
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id, string(status), at)
	if err != nil {
		return fmt.Errorf("failed to update commission receipt status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrCommissionNotFound
	}
	return nil
}

func (r *commissionReceiptRepositoryImpl) Totals(ctx context.Context, period payroll.Period) (payroll.RunTotals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*), COALESCE(SUM(commission_amount), 0)
		FROM commission_receipts
		WHERE period_year = $1 AND period_month = $2
	`

	var t payroll.RunTotals
	if err := q.QueryRow(ctx, query, period.Year, period.Month).Scan(&t.CommissionCount, &t.TotalCommission); err != nil {
		return payroll.RunTotals{}, fmt.Errorf("failed to aggregate commission receipts: %w", err)
	}
	return t, nil
}
