package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, full_name, email, branch_id, hire_date, status, bank_name, bank_account_ref,
	gross_salary, bonuses, created_at, updated_at`

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e     employee.Employee
		gross decimal.NullDecimal
	)
	err := row.Scan(
		&e.ID, &e.FullName, &e.Email, &e.BranchID, &e.HireDate, &e.Status, &e.BankName, &e.BankAccountRef,
		&gross, &e.Bonuses, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if gross.Valid {
		e.GrossSalary = &gross.Decimal
	}
	return &e, nil
}

func (e *employeeRepositoryImpl) ListActive(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE status = 'active' ORDER BY id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	employees := []employee.Employee{}
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (*employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee *employee.Employee) error {
	q := GetQuerier(ctx, e.db)

	var gross decimal.NullDecimal
	if newEmployee.GrossSalary != nil {
		gross = decimal.NewNullDecimal(*newEmployee.GrossSalary)
	}

	query := `
		INSERT INTO employees (
			id, full_name, email, branch_id, hire_date, status, bank_name, bank_account_ref,
			gross_salary, bonuses, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := q.Exec(ctx, query,
		newEmployee.ID, newEmployee.FullName, newEmployee.Email, newEmployee.BranchID, newEmployee.HireDate,
		newEmployee.Status, newEmployee.BankName, newEmployee.BankAccountRef,
		gross, newEmployee.Bonuses, newEmployee.CreatedAt, newEmployee.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "employees_pkey") {
			return employee.ErrEmployeeExists
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}
