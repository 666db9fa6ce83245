package repository

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/sqlite"
)

// Store bundles the repositories of one backing database.
type Store struct {
	Employees   employee.EmployeeRepository
	Attendance  attendance.AttendanceRepository
	Receipts    payroll.SalaryReceiptRepository
	Commissions payroll.CommissionReceiptRepository
	Runs        payroll.PayrollRunRepository
	Advances    payroll.AdvanceRepository
	Locker      payroll.PeriodLocker

	close func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the configured driver, applies pending migrations and
// returns the matching repositories.
func Open(cfg config.DatabaseConfig, dsn string) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgreSQLDB(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := database.MigratePostgres(db); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{
			Employees:   postgresql.NewEmployeeRepository(db),
			Attendance:  postgresql.NewAttendanceRepository(db),
			Receipts:    postgresql.NewSalaryReceiptRepository(db),
			Commissions: postgresql.NewCommissionReceiptRepository(db),
			Runs:        postgresql.NewPayrollRunRepository(db),
			Advances:    postgresql.NewAdvanceRepository(db),
			Locker:      postgresql.NewPeriodLocker(db),
			close:       db.Close,
		}, nil

	case config.DriverSQLite:
		db, err := database.NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		if err := database.MigrateSQLite(db); err != nil {
			db.Close()
			return nil, err
		}
		return &Store{
			Employees:   sqlite.NewEmployeeRepository(db),
			Attendance:  sqlite.NewAttendanceRepository(db),
			Receipts:    sqlite.NewSalaryReceiptRepository(db),
			Commissions: sqlite.NewCommissionReceiptRepository(db),
			Runs:        sqlite.NewPayrollRunRepository(db),
			Advances:    sqlite.NewAdvanceRepository(db),
			Locker:      sqlite.NewPeriodLocker(db),
			close:       func() { _ = db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
