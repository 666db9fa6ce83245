package sqlite

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type advanceRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewAdvanceRepository(db *database.SQLiteDB) payroll.AdvanceRepository {
	return &advanceRepositoryImpl{db: db}
}

func (r *advanceRepositoryImpl) Create(ctx context.Context, advance *payroll.SalaryAdvance) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_advances (id, employee_id, period_year, period_month, amount, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		advance.ID, advance.EmployeeID, advance.Period.Year, advance.Period.Month,
		advance.Amount, advance.Note, advance.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create salary advance: %w", err)
	}
	return nil
}

func (r *advanceRepositoryImpl) SumByEmployeePeriod(ctx context.Context, employeeID string, period payroll.Period) (payroll.Money, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.QueryContext(ctx,
		`SELECT amount FROM salary_advances WHERE employee_id = ? AND period_year = ? AND period_month = ?`,
		employeeID, period.Year, period.Month,
	)
	if err != nil {
		return payroll.Zero(), fmt.Errorf("failed to query salary advances: %w", err)
	}
	defer rows.Close()

	total := payroll.Zero()
	for rows.Next() {
		var amount payroll.Money
		if err := rows.Scan(&amount); err != nil {
			return payroll.Zero(), fmt.Errorf("failed to scan salary advance: %w", err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}
