package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

var (
	ErrInvalidToken          = errors.New("invalid or missing access token")
	ErrManagerAccessRequired = errors.New("manager or owner role required")
	ErrSelfOrManagerRequired = errors.New("only the employee or a manager can access this resource")
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Access errors
	case errors.Is(err, ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, ErrManagerAccessRequired), errors.Is(err, ErrSelfOrManagerRequired):
		Forbidden(w, err.Error())

	// Payroll domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, payroll.ErrReceiptNotFound):
		NotFound(w, "Salary receipt not found")
	case errors.Is(err, payroll.ErrCommissionNotFound):
		NotFound(w, "Commission receipt not found")
	case errors.Is(err, payroll.ErrRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, payroll.ErrDuplicatePeriod):
		Conflict(w, "Receipt already exists for this employee and period")
	case errors.Is(err, payroll.ErrInvalidState):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid period, expected YYYY-MM", nil)
	case errors.Is(err, payroll.ErrNegativeAmount):
		ValidationError(w, map[string]string{"amount": "must not be negative"})

	// Delivery errors
	case errors.Is(err, notification.ErrRecipientMissing):
		ValidationError(w, map[string]string{"email": "employee has no email address"})
	case errors.Is(err, notification.ErrDeliveryFailed):
		BadGateway(w, "DELIVERY_FAILED", "Receipt could not be delivered")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
