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

type commissionReceiptRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewCommissionReceiptRepository(db *database.SQLiteDB) payroll.CommissionReceiptRepository {
	return &commissionReceiptRepositoryImpl{db: db}
}

const commissionReceiptColumns = `
	id, employee_id, employee_name, branch_id, period_year, period_month,
	production_amount, target_achieved_percent, commission_amount, status, notes,
	sent_at, created_at, updated_at`

func scanCommissionReceipt(row rowScanner) (*payroll.CommissionReceipt, error) {
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		receipt.ID, receipt.EmployeeID, receipt.EmployeeName, receipt.BranchID, receipt.Period.Year, receipt.Period.Month,
		receipt.ProductionAmount, receipt.TargetAchievedPercent, receipt.CommissionAmount, string(receipt.Status), receipt.Notes,
		receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s: %w", receipt.EmployeeID, receipt.Period, payroll.ErrDuplicatePeriod)
		}
		return fmt.Errorf("failed to create commission receipt: %w", err)
	}
	return nil
}

func (r *commissionReceiptRepositoryImpl) GetByID(ctx context.Context, id string) (*payroll.CommissionReceipt, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + commissionReceiptColumns + ` FROM commission_receipts WHERE id = ?`

	receipt, err := scanCommissionReceipt(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payroll.ErrCommissionNotFound
		}
		return nil, fmt.Errorf("failed to get commission receipt: %w", err)
	}
	return receipt, nil
}

func (r *commissionReceiptRepositoryImpl) EmployeeIDsByPeriod(ctx context.Context, period payroll.Period) (map[string]struct{}, error) {
	return employeeIDsByPeriod(ctx, GetQuerier(ctx, r.db), "commission_receipts", period)
}

func (r *commissionReceiptRepositoryImpl) List(ctx context.Context, filter payroll.CommissionFilter) ([]payroll.CommissionReceipt, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	where, args := receiptFilterClause(filter.EmployeeID, filter.BranchID, filter.Year, filter.Month, status)

	query := `SELECT ` + commissionReceiptColumns + ` FROM commission_receipts WHERE ` + where + `
		ORDER BY period_year, period_month, employee_id`

	rows, err := GetQuerier(ctx, r.db).QueryContext(ctx, query, args...)
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
			status = ?1,
			sent_at = CASE WHEN ?1 = 'sent' AND sent_at IS NULL THEN ?2 ELSE sent_at END,
			updated_at = ?2
		WHERE id = ?3
	`

	res, err := q.ExecContext(ctx, query, string(status), at, id)
	if err != nil {
		return fmt.Errorf("failed to update commission receipt status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrCommissionNotFound
	}
	return nil
}

func (r *commissionReceiptRepositoryImpl) Totals(ctx context.Context, period payroll.Period) (payroll.RunTotals, error) {
	p := period
	receipts, err := r.List(ctx, payroll.CommissionFilter{Year: &p.Year, Month: &p.Month})
	if err != nil {
		return payroll.RunTotals{}, err
	}

	t := payroll.RunTotals{CommissionCount: len(receipts)}
	for _, c := range receipts {
		t.TotalCommission = t.TotalCommission.Add(c.CommissionAmount)
	}
	return t, nil
}
