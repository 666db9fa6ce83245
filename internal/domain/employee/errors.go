package employee

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
)

var (
	// ErrEmployeeNotFound shares the payroll not-found category so batch runs
	// and HTTP handlers treat unknown employees like any missing record.
	ErrEmployeeNotFound = fmt.Errorf("employee %w", payroll.ErrNotFound)
	ErrEmployeeExists   = errors.New("employee already exists")
)
