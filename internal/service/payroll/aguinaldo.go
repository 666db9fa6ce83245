package payroll

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// monthsPerYear is the divisor of the projection regardless of months worked.
const monthsPerYear = 12

type AguinaldoServiceImpl struct {
	receiptRepo payroll.SalaryReceiptRepository
	directory   employee.Directory
}

func NewAguinaldoService(receiptRepo payroll.SalaryReceiptRepository, directory employee.Directory) payroll.AguinaldoService {
	return &AguinaldoServiceImpl{
		receiptRepo: receiptRepo,
		directory:   directory,
	}
}

// Project sums gross plus bonuses over every receipt of the year, in any
// status, and divides by twelve. Read only; open runs give an under-estimate.
func (s *AguinaldoServiceImpl) Project(ctx context.Context, employeeID string, year int) (*payroll.AguinaldoProjection, error) {
	var errs validator.ValidationErrors
	if validator.IsEmpty(employeeID) {
		errs = errs.Add("employee_id", "is required")
	}
	if year < 1 || year > 9999 {
		errs = errs.Add("year", "must be between 1 and 9999")
	}
	if err := errs.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.directory.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	receipts, err := s.receiptRepo.ListByEmployeeYear(ctx, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}

	total := payroll.Zero()
	for _, r := range receipts {
		total = total.Add(r.TaxableIncome())
	}

	return &payroll.AguinaldoProjection{
		EmployeeID:   employeeID,
		Year:         year,
		ReceiptCount: len(receipts),
		AnnualTotal:  total,
		Amount:       total.ProratedOver(monthsPerYear),
	}, nil
}
