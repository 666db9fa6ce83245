package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *database.SQLiteDB
}

func NewEmployeeRepository(db *database.SQLiteDB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeColumns = `
	id, full_name, email, branch_id, hire_date, status, bank_name, bank_account_ref,
	gross_salary, bonuses, created_at, updated_at`

func scanEmployee(row rowScanner) (*employee.Employee, error) {
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
	rows, err := GetQuerier(ctx, e.db).QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE status = 'active' ORDER BY id`,
	)
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
	emp, err := scanEmployee(GetQuerier(ctx, e.db).QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee *employee.Employee) error {
	var gross decimal.NullDecimal
	if newEmployee.GrossSalary != nil {
		gross = decimal.NewNullDecimal(*newEmployee.GrossSalary)
	}

	query := `
		INSERT INTO employees (
			id, full_name, email, branch_id, hire_date, status, bank_name, bank_account_ref,
			gross_salary, bonuses, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := GetQuerier(ctx, e.db).ExecContext(ctx, query,
		newEmployee.ID, newEmployee.FullName, newEmployee.Email, newEmployee.BranchID, newEmployee.HireDate,
		string(newEmployee.Status), newEmployee.BankName, newEmployee.BankAccountRef,
		gross, newEmployee.Bonuses, newEmployee.CreatedAt, newEmployee.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return employee.ErrEmployeeExists
		}
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}
