package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the directory snapshot the payroll engine reads. It is never
// written by payroll code; fixtures are the only writer in this service.
type Employee struct {
	ID             string
	FullName       string
	Email          string
	BranchID       *string
	HireDate       time.Time
	Status         EmploymentStatus
	BankName       string
	BankAccountRef string
	// GrossSalary is nil when no salary has been configured yet.
	GrossSalary *decimal.Decimal
	// Bonuses are fixed monthly allowances (e.g. position bonus).
	Bonuses   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusInactive   EmploymentStatus = "inactive"
	EmploymentStatusSuspended  EmploymentStatus = "suspended"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.Status == EmploymentStatusActive
}
