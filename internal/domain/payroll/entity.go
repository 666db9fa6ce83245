package payroll

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== STATUSES ==========

// ReceiptStatus is the lifecycle of a salary receipt: generated -> sent -> downloaded.
type ReceiptStatus string

const (
	ReceiptStatusGenerated  ReceiptStatus = "generated"
	ReceiptStatusSent       ReceiptStatus = "sent"
	ReceiptStatusDownloaded ReceiptStatus = "downloaded"
)

func ParseReceiptStatus(s string) (ReceiptStatus, error) {
	switch st := ReceiptStatus(strings.ToLower(s)); st {
	case ReceiptStatusGenerated, ReceiptStatusSent, ReceiptStatusDownloaded:
		return st, nil
	}
	return "", fmt.Errorf("unknown receipt status %q", s)
}

// AfterDelivery returns the status a receipt holds once it has been (re)delivered.
// A downloaded receipt stays downloaded; the retrieval already happened.
func (s ReceiptStatus) AfterDelivery() (ReceiptStatus, error) {
	switch s {
	case ReceiptStatusGenerated, ReceiptStatusSent:
		return ReceiptStatusSent, nil
	case ReceiptStatusDownloaded:
		return ReceiptStatusDownloaded, nil
	}
	return "", fmt.Errorf("%w: deliver from %q", ErrInvalidTransition, s)
}

func (s ReceiptStatus) AfterDownload() (ReceiptStatus, error) {
	switch s {
	case ReceiptStatusSent, ReceiptStatusDownloaded:
		return ReceiptStatusDownloaded, nil
	}
	return "", fmt.Errorf("%w: download from %q", ErrInvalidTransition, s)
}

// CommissionStatus is the lifecycle of a commission receipt: draft -> generated -> sent.
type CommissionStatus string

const (
	CommissionStatusDraft     CommissionStatus = "draft"
	CommissionStatusGenerated CommissionStatus = "generated"
	CommissionStatusSent      CommissionStatus = "sent"
)

func ParseCommissionStatus(s string) (CommissionStatus, error) {
	switch st := CommissionStatus(strings.ToLower(s)); st {
	case CommissionStatusDraft, CommissionStatusGenerated, CommissionStatusSent:
		return st, nil
	}
	return "", fmt.Errorf("unknown commission status %q", s)
}

func (s CommissionStatus) AfterFinalize() (CommissionStatus, error) {
	if s == CommissionStatusDraft {
		return CommissionStatusGenerated, nil
	}
	return "", fmt.Errorf("%w: finalize from %q", ErrInvalidTransition, s)
}

func (s CommissionStatus) AfterDelivery() (CommissionStatus, error) {
	switch s {
	case CommissionStatusGenerated, CommissionStatusSent:
		return CommissionStatusSent, nil
	}
	return "", fmt.Errorf("%w: deliver from %q", ErrInvalidTransition, s)
}

type RunStatus string

const (
	RunStatusOpen   RunStatus = "open"
	RunStatusClosed RunStatus = "closed"
)

// ========== DEDUCTIONS ==========

// DeductionBreakdown is the full computation for one employee and period.
// Every category is kept separately so receipts never need to reconstruct it.
type DeductionBreakdown struct {
	Gross               Money
	Bonuses             Money
	TaxableIncome       Money
	StatutoryDeduction  Money
	DailyRate           Money
	AbsenceDays         int
	LatenessMinutes     int
	AttendanceDeduction Money
	FixedDeductions     Money
	AdvanceDeduction    Money
	OtherDeductions     Money
	Net                 Money
}

// NetPay is max(0, gross + bonuses - statutory - attendance - other).
func NetPay(gross, bonuses, statutory, attendance, other Money) Money {
	return gross.Add(bonuses).Sub(Sum(statutory, attendance, other))
}

func (b DeductionBreakdown) TotalDeductions() Money {
	return Sum(b.StatutoryDeduction, b.AttendanceDeduction, b.OtherDeductions)
}

// Notes renders the audit trail stored on the receipt.
func (b DeductionBreakdown) Notes() string {
	parts := []string{fmt.Sprintf("absences: %d", b.AbsenceDays)}
	if b.LatenessMinutes > 0 {
		parts = append(parts, fmt.Sprintf("lateness: %dm", b.LatenessMinutes))
	}
	if !b.AdvanceDeduction.IsZero() {
		parts = append(parts, "advance: "+b.AdvanceDeduction.String())
	}
	return strings.Join(parts, ", ")
}

// ========== RECEIPTS ==========

type SalaryReceipt struct {
	ID                  string        `json:"id"`
	EmployeeID          string        `json:"employee_id"`
	EmployeeName        string        `json:"employee_name"`
	BranchID            *string       `json:"branch_id,omitempty"`
	BankAccountRef      string        `json:"bank_account_ref"`
	Period              Period        `json:"period"`
	Gross               Money         `json:"gross"`
	Bonuses             Money         `json:"bonuses"`
	StatutoryDeduction  Money         `json:"statutory_deduction"`
	AttendanceDeduction Money         `json:"attendance_deduction"`
	FixedDeductions     Money         `json:"fixed_deductions"`
	AdvanceDeduction    Money         `json:"advance_deduction"`
	OtherDeductions     Money         `json:"other_deductions"`
	Net                 Money         `json:"net"`
	AbsenceDays         int           `json:"absence_days"`
	LatenessMinutes     int           `json:"lateness_minutes"`
	Status              ReceiptStatus `json:"status"`
	PaymentDate         time.Time     `json:"payment_date"`
	Notes               string        `json:"notes"`
	SentAt              *time.Time    `json:"sent_at,omitempty"`
	DownloadedAt        *time.Time    `json:"downloaded_at,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// ApplyBreakdown copies every computed amount onto the receipt.
func (r *SalaryReceipt) ApplyBreakdown(b DeductionBreakdown) {
	r.Gross = b.Gross
	r.Bonuses = b.Bonuses
	r.StatutoryDeduction = b.StatutoryDeduction
	r.AttendanceDeduction = b.AttendanceDeduction
	r.FixedDeductions = b.FixedDeductions
	r.AdvanceDeduction = b.AdvanceDeduction
	r.OtherDeductions = b.OtherDeductions
	r.Net = b.Net
	r.AbsenceDays = b.AbsenceDays
	r.LatenessMinutes = b.LatenessMinutes
	r.Notes = b.Notes()
}

// TaxableIncome is gross plus bonuses, the base for statutory withholding and the aguinaldo.
func (r SalaryReceipt) TaxableIncome() Money {
	return r.Gross.Add(r.Bonuses)
}

type CommissionReceipt struct {
	ID                    string           `json:"id"`
	EmployeeID            string           `json:"employee_id"`
	EmployeeName          string           `json:"employee_name"`
	BranchID              *string          `json:"branch_id,omitempty"`
	Period                Period           `json:"period"`
	ProductionAmount      Money            `json:"production_amount"`
	TargetAchievedPercent decimal.Decimal  `json:"target_achieved_percent"`
	CommissionAmount      Money            `json:"commission_amount"`
	Status                CommissionStatus `json:"status"`
	Notes                 string           `json:"notes"`
	SentAt                *time.Time       `json:"sent_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

type SalaryAdvance struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employee_id"`
	Period     Period    `json:"period"`
	Amount     Money     `json:"amount"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

// ========== RUNS ==========

// PayrollRun is the per-period lifecycle row. Totals are only snapshotted at close.
type PayrollRun struct {
	Period          Period     `json:"period"`
	Status          RunStatus  `json:"status"`
	ReceiptCount    int        `json:"receipt_count"`
	CommissionCount int        `json:"commission_count"`
	TotalNet        Money      `json:"total_net"`
	GeneratedAt     *time.Time `json:"generated_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (r PayrollRun) IsClosed() bool {
	return r.Status == RunStatusClosed
}

// RunTotals are aggregated live from the receipts of one period.
type RunTotals struct {
	ReceiptCount    int   `json:"receipt_count"`
	TotalGross      Money `json:"total_gross"`
	TotalBonuses    Money `json:"total_bonuses"`
	TotalDeductions Money `json:"total_deductions"`
	TotalNet        Money `json:"total_net"`
	CommissionCount int   `json:"commission_count"`
	TotalCommission Money `json:"total_commission"`
}

type RunSummary struct {
	Period      Period     `json:"period"`
	Status      RunStatus  `json:"status"`
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	RunTotals
}

// ========== BATCH RESULTS ==========

type SkipCode string

const (
	SkipAlreadyExists SkipCode = "already_exists"
	SkipValidation    SkipCode = "validation"
	SkipInvalidState  SkipCode = "invalid_state"
	SkipNotFound      SkipCode = "not_found"
	SkipFailed        SkipCode = "failed"
)

type SkipReason struct {
	EmployeeID string   `json:"employee_id"`
	Code       SkipCode `json:"code"`
	Message    string   `json:"message"`
	Err        error    `json:"-"`
}

// ClassifySkip maps a per-employee error onto its skip code.
func ClassifySkip(err error) SkipCode {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrDuplicatePeriod):
		return SkipAlreadyExists
	case errors.As(err, &verrs), errors.Is(err, ErrNegativeAmount):
		return SkipValidation
	case errors.Is(err, ErrInvalidState):
		return SkipInvalidState
	case errors.Is(err, ErrNotFound):
		return SkipNotFound
	}
	return SkipFailed
}

type RunResult struct {
	Period  Period       `json:"period"`
	Created int          `json:"created"`
	Skipped []SkipReason `json:"skipped"`
}

// Failed counts skips other than "already exists".
func (r RunResult) Failed() int {
	n := 0
	for _, s := range r.Skipped {
		if s.Code != SkipAlreadyExists {
			n++
		}
	}
	return n
}

func (r RunResult) AlreadyExisting() int {
	return len(r.Skipped) - r.Failed()
}

// ========== EXPORT / PROJECTION ==========

// BankTransferLine is one row of the bank-transfer file of a closed run.
type BankTransferLine struct {
	EmployeeID     string `json:"employee_id" csv:"employee_id"`
	BankAccountRef string `json:"bank_account_ref" csv:"bank_account_ref"`
	NetAmount      Money  `json:"net_amount" csv:"net_amount"`
}

type AguinaldoProjection struct {
	EmployeeID   string `json:"employee_id"`
	Year         int    `json:"year"`
	ReceiptCount int    `json:"receipt_count"`
	AnnualTotal  Money  `json:"annual_total"`
	Amount       Money  `json:"amount"`
}
