package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// DeductionCalculator computes withholding and absence deductions for one
// employee and period. It is pure: all inputs are passed in.
type DeductionCalculator struct {
	statutoryRate decimal.Decimal
	daysPerMonth  int
	fixed         payroll.Money
}

func NewDeductionCalculator(cfg config.PayrollConfig) (*DeductionCalculator, error) {
	fixed := payroll.Zero()
	for _, fd := range cfg.FixedDeductions {
		amount, err := payroll.NewMoney(fd.Amount)
		if err != nil {
			return nil, err
		}
		fixed = fixed.Add(amount)
	}

	days := cfg.DaysPerMonth
	if days <= 0 {
		days = 30
	}

	return &DeductionCalculator{
		statutoryRate: cfg.StatutoryRate,
		daysPerMonth:  days,
		fixed:         fixed,
	}, nil
}

// Compute returns the breakdown for emp in period.
//
//	statutory  = (gross + bonuses) * rate%
//	daily rate = gross / daysPerMonth
//	attendance = daily rate * unexcused absence days
//	other      = fixed organisational deductions + advances of the period
//	net        = max(0, gross + bonuses - statutory - attendance - other)
func (c *DeductionCalculator) Compute(emp employee.Employee, period payroll.Period, att attendance.Summary, advance payroll.Money) (payroll.DeductionBreakdown, error) {
	var errs validator.ValidationErrors
	if !period.Valid() {
		errs = errs.Add("period", "is invalid")
	}
	switch {
	case emp.GrossSalary == nil:
		errs = errs.Add("gross_salary", "is required")
	case emp.GrossSalary.IsNegative():
		errs = errs.Add("gross_salary", "must not be negative")
	}
	if emp.Bonuses.IsNegative() {
		errs = errs.Add("bonuses", "must not be negative")
	}
	if att.AbsenceDays < 0 {
		errs = errs.Add("absence_days", "must not be negative")
	}
	if len(errs) > 0 {
		return payroll.DeductionBreakdown{}, errs
	}

	gross, err := payroll.NewMoney(*emp.GrossSalary)
	if err != nil {
		return payroll.DeductionBreakdown{}, err
	}
	bonuses, err := payroll.NewMoney(emp.Bonuses)
	if err != nil {
		return payroll.DeductionBreakdown{}, err
	}

	taxable := gross.Add(bonuses)
	statutory := taxable.Percentage(c.statutoryRate)
	dailyRate := gross.ProratedOver(c.daysPerMonth)
	attendanceDeduction := dailyRate.MulInt(att.AbsenceDays)
	other := c.fixed.Add(advance)

	return payroll.DeductionBreakdown{
		Gross:               gross,
		Bonuses:             bonuses,
		TaxableIncome:       taxable,
		StatutoryDeduction:  statutory,
		DailyRate:           dailyRate,
		AbsenceDays:         att.AbsenceDays,
		LatenessMinutes:     att.LatenessMinutes,
		AttendanceDeduction: attendanceDeduction,
		FixedDeductions:     c.fixed,
		AdvanceDeduction:    advance,
		OtherDeductions:     other,
		Net:                 payroll.NetPay(gross, bonuses, statutory, attendanceDeduction, other),
	}, nil
}
