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

type salaryReceiptRepositoryImpl struct {
	db *database.DB
}

func NewSalaryReceiptRepository(db *database.DB) payroll.SalaryReceiptRepository {
	return &salaryReceiptRepositoryImpl{db: db}
}

const salaryReceiptColumns = `
	id, employee_id, employee_name, branch_id, bank_account_ref,
	period_year, period_month, gross, bonuses, statutory_deduction,
	attendance_deduction, fixed_deductions, advance_deduction, other_deductions, net,
	absence_days, lateness_minutes, status, payment_date, notes,
	sent_at, downloaded_at, created_at, updated_at`

func scanSalaryReceipt(row pgx.Row) (*payroll.SalaryReceipt, error) {
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
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := q.Exec(ctx, query,
		receipt.ID, receipt.EmployeeID, receipt.EmployeeName, receipt.BranchID, receipt.BankAccountRef,
		receipt.Period.Year, receipt.Period.Month, receipt.Gross, receipt.Bonuses, receipt.StatutoryDeduction,
		receipt.AttendanceDeduction, receipt.FixedDeductions, receipt.AdvanceDeduction, receipt.OtherDeductions, receipt.Net,
		receipt.AbsenceDays, receipt.LatenessMinutes, receipt.Status, receipt.PaymentDate, receipt.Notes,
		receipt.CreatedAt, receipt.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "uk_salary_receipts_employee_period") {
			return fmt.Errorf("%s %s: %w", receipt.EmployeeID, receipt.Period, payroll.ErrDuplicatePeriod)
		}
		return fmt.Errorf("failed to create salary receipt: %w", err)
	}

	return nil
}

func (r *salaryReceiptRepositoryImpl) GetByID(ctx context.Context, id string) (*payroll.SalaryReceipt, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryReceiptColumns + ` FROM salary_receipts WHERE id = $1`

	receipt, err := scanSalaryReceipt(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
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
		WHERE employee_id = $1 AND period_year = $2 AND period_month = $3`

	receipt, err := scanSalaryReceipt(q.QueryRow(ctx, query, employeeID, period.Year, period.Month))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, payroll.ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to get salary receipt: %w", err)
	}
	return receipt, nil
}

func (r *salaryReceiptRepositoryImpl) EmployeeIDsByPeriod(ctx context.Context, period payroll.Period) (map[string]struct{}, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx,
		`SELECT employee_id FROM salary_receipts WHERE period_year = $1 AND period_month = $2`,
		period.Year, period.Month,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipt employees: %w", err)
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

func (r *salaryReceiptRepositoryImpl) List(ctx context.Context, filter payroll.ReceiptFilter) ([]payroll.SalaryReceipt, error) {
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

	query := fmt.Sprintf(`SELECT %s FROM salary_receipts WHERE %s
		ORDER BY period_year, period_month, employee_id`,
		salaryReceiptColumns, strings.Join(conditions, " AND "))

	return r.query(ctx, q, query, args...)
}

func (r *salaryReceiptRepositoryImpl) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]payroll.SalaryReceipt, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + salaryReceiptColumns + `
		FROM salary_receipts
		WHERE employee_id = $1 AND period_year = $2
		ORDER BY period_month`

	return r.query(ctx, q, query, employeeID, year)
}

func (r *salaryReceiptRepositoryImpl) query(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]payroll.SalaryReceipt, error) {
	rows, err := q.Query(ctx, query, args...)
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
			status = $2,
			sent_at = CASE WHEN $2 = 'sent' AND sent_at IS NULL THEN $3 ELSE sent_at END,
			downloaded_at = CASE WHEN $2 = 'downloaded' AND downloaded_at IS NULL THEN $3 ELSE downloaded_at END,
			updated_at = $3
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id, string(status), at)
	if err != nil {
		return fmt.Errorf("failed to update salary receipt status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrReceiptNotFound
	}
	return nil
}

func (r *salaryReceiptRepositoryImpl) Replace(ctx context.Context, receipt *payroll.SalaryReceipt) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_receipts SET
			employee_name = $2, branch_id = $3, bank_account_ref = $4,
			gross = $5, bonuses = $6, statutory_deduction = $7, attendance_deduction = $8,
			fixed_deductions = $9, advance_deduction = $10, other_deductions = $11, net = $12,
			absence_days = $13, lateness_minutes = $14, notes = $15, updated_at = $16
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		receipt.ID, receipt.EmployeeName, receipt.BranchID, receipt.BankAccountRef,
		receipt.Gross, receipt.Bonuses, receipt.StatutoryDeduction, receipt.AttendanceDeduction,
		receipt.FixedDeductions, receipt.AdvanceDeduction, receipt.OtherDeductions, receipt.Net,
		receipt.AbsenceDays, receipt.LatenessMinutes, receipt.Notes, receipt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to replace salary receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrReceiptNotFound
	}
	return nil
}

func (r *salaryReceiptRepositoryImpl) Totals(ctx context.Context, period payroll.Period) (payroll.RunTotals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(gross), 0),
			COALESCE(SUM(bonuses), 0),
			COALESCE(SUM(statutory_deduction + attendance_deduction + other_deductions), 0),
			COALESCE(SUM(net), 0)
		FROM salary_receipts
		WHERE period_year = $1 AND period_month = $2
	`

	var t payroll.RunTotals
	err := q.QueryRow(ctx, query, period.Year, period.Month).Scan(
		&t.ReceiptCount, &t.TotalGross, &t.TotalBonuses, &t.TotalDeductions, &t.TotalNet,
	)
	if err != nil {
		return payroll.RunTotals{}, fmt.Errorf("failed to aggregate salary receipts: %w", err)
	}
	return t, nil
}
