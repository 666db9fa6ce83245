package payroll

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) DeliverReceipt(ctx context.Context, d notification.ReceiptDelivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// testEnv wires the payroll services over a throwaway SQLite database.
type testEnv struct {
	db          *database.SQLiteDB
	employees   employee.EmployeeRepository
	attendance  attendance.AttendanceRepository
	receipts    payroll.SalaryReceiptRepository
	commissions payroll.CommissionReceiptRepository
	runs        payroll.PayrollRunRepository
	advances    payroll.AdvanceRepository
	locker      payroll.PeriodLocker
	notifier    *mockNotifier

	salary     payroll.SalaryService
	commission payroll.CommissionService
	aguinaldo  payroll.AguinaldoService
	run        payroll.RunService
}

func defaultPayrollConfig() config.PayrollConfig {
	return config.PayrollConfig{
		StatutoryRate: decimal.NewFromInt(9),
		DaysPerMonth:  30,
		Workers:       4,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithConfig(t, defaultPayrollConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg config.PayrollConfig) *testEnv {
	t.Helper()

	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "payroll.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateSQLite(db))

	calculator, err := NewDeductionCalculator(cfg)
	require.NoError(t, err)

	env := &testEnv{
		db:          db,
		employees:   sqlite.NewEmployeeRepository(db),
		attendance:  sqlite.NewAttendanceRepository(db),
		receipts:    sqlite.NewSalaryReceiptRepository(db),
		commissions: sqlite.NewCommissionReceiptRepository(db),
		runs:        sqlite.NewPayrollRunRepository(db),
		advances:    sqlite.NewAdvanceRepository(db),
		locker:      sqlite.NewPeriodLocker(db),
		notifier:    new(mockNotifier),
	}
	env.salary = NewSalaryService(env.receipts, env.advances, env.runs, env.locker,
		env.employees, env.attendance, env.notifier, calculator, cfg.Workers)
	env.commission = NewCommissionService(env.commissions, env.runs, env.locker,
		env.employees, env.notifier, cfg.Workers)
	env.aguinaldo = NewAguinaldoService(env.receipts, env.employees)
	env.run = NewRunService(env.runs, env.receipts, env.commissions, env.locker)
	return env
}

type employeeOption func(*employee.Employee)

func withBonuses(amount int64) employeeOption {
	return func(e *employee.Employee) { e.Bonuses = decimal.NewFromInt(amount) }
}

func withoutSalary() employeeOption {
	return func(e *employee.Employee) { e.GrossSalary = nil }
}

func withGross(amount int64) employeeOption {
	return func(e *employee.Employee) {
		gross := decimal.NewFromInt(amount)
		e.GrossSalary = &gross
	}
}

func withStatus(s employee.EmploymentStatus) employeeOption {
	return func(e *employee.Employee) { e.Status = s }
}

func withoutEmail() employeeOption {
	return func(e *employee.Employee) { e.Email = "" }
}

func (env *testEnv) addEmployee(t *testing.T, id string, gross int64, opts ...employeeOption) *employee.Employee {
	t.Helper()

	salary := decimal.NewFromInt(gross)
	now := time.Now()
	e := &employee.Employee{
		ID:             id,
		FullName:       "Employee " + id,
		Email:          id + "@example.com",
		HireDate:       time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC),
		Status:         employee.EmploymentStatusActive,
		BankName:       "BCA",
		BankAccountRef: "ACC-" + id,
		GrossSalary:    &salary,
		Bonuses:        decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(e)
	}
	require.NoError(t, env.employees.Create(context.Background(), e))
	return e
}

func (env *testEnv) addAbsences(t *testing.T, employeeID string, period payroll.Period, days int) {
	t.Helper()
	for d := 1; d <= days; d++ {
		require.NoError(t, env.attendance.Create(context.Background(), &attendance.Record{
			ID:         fmt.Sprintf("%s-%s-%d", employeeID, period, d),
			EmployeeID: employeeID,
			Date:       period.Start().AddDate(0, 0, d-1),
			Status:     attendance.StatusAbsent,
			CreatedAt:  time.Now(),
		}))
	}
}

func (env *testEnv) setStatus(t *testing.T, employeeID string, status employee.EmploymentStatus) {
	t.Helper()
	_, err := env.db.ExecContext(context.Background(),
		`UPDATE employees SET status = ? WHERE id = ?`, string(status), employeeID)
	require.NoError(t, err)
}

func mustPeriod(t *testing.T, s string) payroll.Period {
	t.Helper()
	p, err := payroll.ParsePeriod(s)
	require.NoError(t, err)
	return p
}
