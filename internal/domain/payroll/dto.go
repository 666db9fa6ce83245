package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== RECEIPT DTOs ==========

type CreateReceiptRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Year       int    `json:"year" validate:"min=1,max=9999"`
	Month      int    `json:"month" validate:"min=1,max=12"`
}

func (r *CreateReceiptRequest) Validate() error {
	return validator.Struct(r)
}

func (r *CreateReceiptRequest) Period() Period {
	return Period{Year: r.Year, Month: r.Month}
}

type ReceiptFilter struct {
	EmployeeID *string
	BranchID   *string
	Year       *int
	Month      *int
	Status     *ReceiptStatus
}

func (f ReceiptFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		errs = errs.Add("month", "must be between 1 and 12")
	}
	if f.Year != nil && *f.Year < 1 {
		errs = errs.Add("year", "must be positive")
	}
	return errs.OrNil()
}

// ForPeriod narrows a filter to a single period.
func ForPeriod(p Period) ReceiptFilter {
	return ReceiptFilter{Year: &p.Year, Month: &p.Month}
}

// ========== ADVANCE DTOs ==========

type RecordAdvanceRequest struct {
	EmployeeID string          `json:"employee_id" validate:"required"`
	Year       int             `json:"year" validate:"min=1,max=9999"`
	Month      int             `json:"month" validate:"min=1,max=12"`
	Amount     decimal.Decimal `json:"amount" validate:"nonnegative"`
	Note       string          `json:"note" validate:"max=255"`
}

func (r *RecordAdvanceRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}
	if r.Amount.IsZero() {
		return validator.ValidationErrors{}.Add("amount", "must be greater than zero")
	}
	return nil
}

func (r *RecordAdvanceRequest) Period() Period {
	return Period{Year: r.Year, Month: r.Month}
}

// ========== COMMISSION DTOs ==========

// CommissionEntry carries externally supplied production figures; the
// commission amount is a business input and is not re-derived here.
type CommissionEntry struct {
	EmployeeID            string          `json:"employee_id" validate:"required"`
	ProductionAmount      decimal.Decimal `json:"production_amount" validate:"nonnegative"`
	TargetAchievedPercent decimal.Decimal `json:"target_achieved_percent" validate:"nonnegative"`
	CommissionAmount      decimal.Decimal `json:"commission_amount" validate:"nonnegative"`
	Notes                 string          `json:"notes" validate:"max=500"`
}

func (e *CommissionEntry) Validate() error {
	return validator.Struct(e)
}

type CreateCommissionRequest struct {
	Year  int `json:"year" validate:"min=1,max=9999"`
	Month int `json:"month" validate:"min=1,max=12"`
	CommissionEntry
}

func (r *CreateCommissionRequest) Validate() error {
	return validator.Struct(r)
}

func (r *CreateCommissionRequest) Period() Period {
	return Period{Year: r.Year, Month: r.Month}
}

type GenerateCommissionRunRequest struct {
	Year    int               `json:"year" validate:"min=1,max=9999"`
	Month   int               `json:"month" validate:"min=1,max=12"`
	Entries []CommissionEntry `json:"entries" validate:"required,min=1"`
}

// Validate checks the envelope only; entries are validated one by one during
// generation so a bad entry is skipped instead of failing the batch.
func (r *GenerateCommissionRunRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Year < 1 || r.Year > 9999 {
		errs = errs.Add("year", "must be between 1 and 9999")
	}
	if r.Month < 1 || r.Month > 12 {
		errs = errs.Add("month", "must be between 1 and 12")
	}
	if len(r.Entries) == 0 {
		errs = errs.Add("entries", "is required")
	}
	return errs.OrNil()
}

func (r *GenerateCommissionRunRequest) Period() Period {
	return Period{Year: r.Year, Month: r.Month}
}

type CommissionFilter struct {
	EmployeeID *string
	BranchID   *string
	Year       *int
	Month      *int
	Status     *CommissionStatus
}
