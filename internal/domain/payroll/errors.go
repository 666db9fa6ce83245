package payroll

import (
	"errors"
	"fmt"
)

// Error categories. Specific errors below wrap one of these so callers can
// branch with errors.Is on the category alone.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicatePeriod = errors.New("receipt already exists for this employee and period")
	ErrInvalidState    = errors.New("invalid state")
)

var (
	ErrReceiptNotFound    = fmt.Errorf("salary receipt %w", ErrNotFound)
	ErrCommissionNotFound = fmt.Errorf("commission receipt %w", ErrNotFound)
	ErrRunNotFound        = fmt.Errorf("payroll run %w", ErrNotFound)

	ErrRunClosed         = fmt.Errorf("payroll run is closed: %w", ErrInvalidState)
	ErrRunAlreadyClosed  = fmt.Errorf("payroll run is already closed: %w", ErrInvalidState)
	ErrRunNotClosed      = fmt.Errorf("payroll run must be closed before export: %w", ErrInvalidState)
	ErrInvalidTransition = fmt.Errorf("illegal status transition: %w", ErrInvalidState)

	ErrInvalidPeriod  = errors.New("invalid payroll period")
	ErrNegativeAmount = errors.New("amount must not be negative")
)
