package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type rowScanner interface {
	Scan(dest ...any) error
}

type salaryReceiptRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewSalaryReceiptRepository(db *database.SQLiteDB) payroll.SalaryReceiptRepository {
	return &salaryReceiptRepositoryImpl{db: db}
}

const salaryReceiptColumns = `
	id, employee_id, employee_name, branch_id, bank_account_ref,
	period_year, period_month, gross, bonuses, statutory_deduction,
	attendance_deduction, fixed_deductions, advance_deduction, other_deductions, net,
	absence_days, lateness_minutes, status, payment_date, notes,
	sent_at, downloaded_at, created_at, updated_at`

func scanSalaryReceipt(row rowScanner) (*payroll.SalaryReceipt, error) {
	var r payroll.SalaryReceipt
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.EmployeeName, &r.BranchID, &r.BankAccountRef,
		&r.Period.Year, &r.Period.Month, &r.Gross, &r.Bonuses, &r.StatutoryDeduction,
		&r.AttendanceDeduction, &r.FixedDeductions, &r.AdvanceDeduction, &r.OtherDeductions, &r.Net,
		&r.AbsenceDays, &r.LatenessMinutes, &r.Status, &r.PaymentDate, &r.Notes,
		&r.SentAt, &r.DownloadedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *salaryReceiptRepositoryImpl) Create(ctx context.Context, receipt *payroll.SalaryReceipt) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_receipts (
			id, employee_id, employee_name, branch_id, bank_account_ref,
			period_year, period_month, gross, bonuses, statutory_deduction,
			attendance_deduction, fixed_deductions, advance_deduction, other_deductions, net,
			absence_days, lateness_minutes, status, payment_date, notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		receipt.ID, receipt.EmployeeID, receipt.EmployeeName, receipt.BranchID, receipt.BankAccountRef,
		receipt.Period.Year, receipt.Period.Month, receipt.Gross, receipt.Bonuses, receipt.StatutoryDeduction,
		receipt.AttendanceDeduction, receipt.FixedDeductions, receipt.AdvanceDeduction, receipt.OtherDeductions, receipt.Net,
		receipt.AbsenceDays, receipt.LatenessMinutes, string(receipt.Status), receipt.PaymentDate, receipt.Notes,
		receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s %s: %w", receipt.EmployeeID, receipt.Period, payroll.ErrDuplicatePeriod)
		}
		return fmt.Errorf("failed to create salary receipt: %w", err)
	}
	return nil
}

func (r *salaryReceiptRepositoryImpl) GetByID(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryReceiptColumns + ` FROM salary_receipts WHERE id = ?`

	receipt, err := scanSalaryReceipt(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payroll.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to get salary receipt: %w", err)
	}
	return receipt, nil
}

func (r *salaryReceiptRepositoryImpl) GetByEmployeePeriod(ctx context.Context, employeeID string, period payroll.Period) (*payroll.SalaryReceipt, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryReceiptColumns + `
		FROM salary_receipts
		WHERE employee_id = ? AND period_year = ? AND period_month = ?`

	receipt, err := scanSalaryReceipt(q.QueryRowContext(ctx, query, employeeID, period.Year, period.Month))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payroll.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to get salary receipt: %w", err)
	}
	return receipt, nil
}

func (r *salaryReceiptRepositoryImpl) EmployeeIDsByPeriod(ctx context.Context, period payroll.Period) (map[string]struct{}, error) {
	return employeeIDsByPeriod(ctx, GetQuerier(ctx, r.db), "salary_receipts", period)
}

func (r *salaryReceiptRepositoryImpl) List(ctx context.Context, filter payroll.ReceiptFilter) ([]payroll.SalaryReceipt, error) {
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}
	where, args := receiptFilterClause(filter.EmployeeID, filter.BranchID, filter.Year, filter.Month, status)

	query := `SELECT ` + salaryReceiptColumns + ` FROM salary_receipts WHERE ` + where + `
		ORDER BY period_year, period_month, employee_id`

	return r.query(ctx, query, args...)
}

func (r *salaryReceiptRepositoryImpl) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]payroll.SalaryReceipt, error) {
	query := `SELECT ` + salaryReceiptColumns + `
		FROM salary_receipts
		WHERE employee_id = ? AND period_year = ?
		ORDER BY period_month`

	return r.query(ctx, query, employeeID, year)
}

func (r *salaryReceiptRepositoryImpl) query(ctx context.Context, query string, args ...any) ([]payroll.SalaryReceipt, error) {
	rows, err := GetQuerier(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary receipts: %w", err)
	}
	defer rows.Close()

	receipts := []payroll.SalaryReceipt{}
	for rows.Next() {
		receipt, err := scanSalaryReceipt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary receipt: %w", err)
		}
		receipts = append(receipts, *receipt)
	}
	return receipts, rows.Err()
}

func (r *salaryReceiptRepositoryImpl) UpdateStatus(ctx context.Context, id string, status payroll.ReceiptStatus, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_receipts SET
			status = ?1,
			sent_at = CASE WHEN ?1 = 'sent' AND sent_at IS NULL THEN ?2 ELSE sent_at END,
			downloaded_at = CASE WHEN ?1 = 'downloaded' AND downloaded_at IS NULL THEN ?2 ELSE downloaded_at END,
			updated_at = ?2
		WHERE id = ?3
	`

	res, err := q.ExecContext(ctx, query, string(status), at, id)
	if err != nil {
		return fmt.Errorf("failed to update salary receipt status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrReceiptNotFound
	}
	return nil
}

func (r *salaryReceiptRepositoryImpl) Replace(ctx context.Context, receipt *payroll.SalaryReceipt) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_receipts SET
			employee_name = ?, branch_id = ?, bank_account_ref = ?,
			gross = ?, bonuses = ?, statutory_deduction = ?, attendance_deduction = ?,
			fixed_deductions = ?, advance_deduction = ?, other_deductions = ?, net = ?,
			absence_days = ?, lateness_minutes = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := q.ExecContext(ctx, query,
		receipt.EmployeeName, receipt.BranchID, receipt.BankAccountRef,
		receipt.Gross, receipt.Bonuses, receipt.StatutoryDeduction, receipt.AttendanceDeduction,
		receipt.FixedDeductions, receipt.AdvanceDeduction, receipt.OtherDeductions, receipt.Net,
		receipt.AbsenceDays, receipt.LatenessMinutes, receipt.Notes, receipt.UpdatedAt,
		receipt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to replace salary receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrReceiptNotFound
	}
	return nil
}

// Totals sums in Go; SQLite would coerce the stored decimal strings to floats.
func (r *salaryReceiptRepositoryImpl) Totals(ctx context.Context, period payroll.Period) (payroll.RunTotals, error) {
	receipts, err := r.List(ctx, payroll.ForPeriod(period))
	if err != nil {
		return payroll.RunTotals{}, err
	}

	t := payroll.RunTotals{ReceiptCount: len(receipts)}
	for _, rc := range receipts {
		t.TotalGross = t.TotalGross.Add(rc.Gross)
		t.TotalBonuses = t.TotalBonuses.Add(rc.Bonuses)
		t.TotalDeductions = t.TotalDeductions.Add(payroll.Sum(rc.StatutoryDeduction, rc.AttendanceDeduction, rc.OtherDeductions))
		t.TotalNet = t.TotalNet.Add(rc.Net)
	}
	return t, nil
}

func employeeIDsByPeriod(ctx context.Context, q database.SQLQuerier, table string, period payroll.Period) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT employee_id FROM `+table+` WHERE period_year = ? AND period_month = ?`,
		period.Year, period.Month,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s employees: %w", table, err)
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

func receiptFilterClause(employeeID, branchID *string, year, month *int, status *string) (string, []any) {
	conditions := []string{"1=1"}
	args := []any{}

	if employeeID != nil {
		conditions = append(conditions, "employee_id = ?")
		args = append(args, *employeeID)
	}
	if branchID != nil {
		conditions = append(conditions, "branch_id = ?")
		args = append(args, *branchID)
	}
	if year != nil {
		conditions = append(conditions, "period_year = ?")
		args = append(args, *year)
	}
	if month != nil {
		conditions = append(conditions, "period_month = ?")
		args = append(args, *month)
	}
	if status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *status)
	}
	return strings.Join(conditions, " AND "), args
}
