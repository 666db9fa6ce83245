package payroll

import (
	"context"
	"time"
)

type SalaryReceiptRepository interface {
	// Create fails with ErrDuplicatePeriod when (employee, period) already has a receipt.
	Create(ctx context.Context, receipt *SalaryReceipt) error
	GetByID(ctx context.Context, id string) (*SalaryReceipt, error)
	GetByEmployeePeriod(ctx context.Context, employeeID string, period Period) (*SalaryReceipt, error)
	// EmployeeIDsByPeriod returns the set of employees that already hold a receipt for period.
	EmployeeIDsByPeriod(ctx context.Context, period Period) (map[string]struct{}, error)
	// List is ordered by period then employee id.
	List(ctx context.Context, filter ReceiptFilter) ([]SalaryReceipt, error)
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]SalaryReceipt, error)
	UpdateStatus(ctx context.Context, id string, status ReceiptStatus, at time.Time) error
	// Replace overwrites the computed amounts of an existing receipt.
	Replace(ctx context.Context, receipt *SalaryReceipt) error
	Totals(ctx context.Context, period Period) (RunTotals, error)
}

type CommissionReceiptRepository interface {
	Create(ctx context.Context, receipt *CommissionReceipt) error
	GetByID(ctx context.Context, id string) (*CommissionReceipt, error)
	EmployeeIDsByPeriod(ctx context.Context, period Period) (map[string]struct{}, error)
	List(ctx context.Context, filter CommissionFilter) ([]CommissionReceipt, error)
	UpdateStatus(ctx context.Context, id string, status CommissionStatus, at time.Time) error
	// Totals fills only the commission fields of RunTotals.
	Totals(ctx context.Context, period Period) (RunTotals, error)
}

type PayrollRunRepository interface {
	Get(ctx context.Context, period Period) (*PayrollRun, error)
	// Ensure creates an open run for period if none exists and stamps generated_at.
	Ensure(ctx context.Context, period Period, at time.Time) error
	MarkClosed(ctx context.Context, period Period, totals RunTotals, at time.Time) error
}

type AdvanceRepository interface {
	Create(ctx context.Context, advance *SalaryAdvance) error
	SumByEmployeePeriod(ctx context.Context, employeeID string, period Period) (Money, error)
}

// PeriodLocker serialises run state changes against receipt writes of the same period.
// Writers hold the shared lock, close holds the exclusive one. fn runs inside a
// transaction carried by the context it receives.
type PeriodLocker interface {
	WithSharedLock(ctx context.Context, period Period, fn func(ctx context.Context) error) error
	WithExclusiveLock(ctx context.Context, period Period, fn func(ctx context.Context) error) error
}
