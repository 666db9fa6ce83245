package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type advanceRepositoryImpl struct {
	db *database.DB
}

func NewAdvanceRepository(db *database.DB) payroll.AdvanceRepository {
	return &advanceRepositoryImpl{db: db}
}

func (r *advanceRepositoryImpl) Create(ctx context.Context, advance *payroll.SalaryAdvance) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_advances (id, employee_id, period_year, period_month, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
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

	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM salary_advances
		WHERE employee_id = $1 AND period_year = $2 AND period_month = $3
	`

	var total payroll.Money
	if err := q.QueryRow(ctx, query, employeeID, period.Year, period.Month).Scan(&total); err != nil {
		return payroll.Zero(), fmt.Errorf("failed to sum salary advances: %w", err)
	}
	return total, nil
}
