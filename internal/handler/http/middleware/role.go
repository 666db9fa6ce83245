package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
)

// RequireManager requires manager or owner role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := jwt.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, response.ErrInvalidToken)
			return
		}

		if !claims.Role.CanManagePayroll() {
			response.HandleError(w, response.ErrManagerAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AllowSelfOrManager reports whether the caller may act on employeeID's records.
func AllowSelfOrManager(r *http.Request, employeeID string) error {
	claims, err := jwt.FromContext(r.Context())
	if err != nil {
		return response.ErrInvalidToken
	}
	if claims.Role.CanManagePayroll() {
		return nil
	}
	if claims.EmployeeID != "" && claims.EmployeeID == employeeID {
		return nil
	}
	return response.ErrSelfOrManagerRequired
}
