package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
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
	// Actor errors
	case errors.Is(err, actor.ErrCompanyIDRequired):
		Forbidden(w, "Company membership required")
	case errors.Is(err, actor.ErrForbidden):
		Forbidden(w, "Manager or owner role required")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrSalaryProfileNotFound):
		NotFound(w, "Salary profile not found")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrPayrollItemNotFound):
		NotFound(w, "Payroll item not found in run")
	case errors.Is(err, payroll.ErrSalaryComponentNotFound):
		NotFound(w, "Salary component not found")
	case errors.Is(err, payroll.ErrRunLocked):
		Conflict(w, "Payroll run is already approved or paid")
	case errors.Is(err, payroll.ErrItemAlreadyPaid):
		Conflict(w, "Payroll item already paid")
	case errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrRunBusy):
		Conflict(w, "Payroll run is being processed, try again")
	case errors.Is(err, payroll.ErrSalaryComponentNameExists):
		Conflict(w, "Salary component name already exists")
	case errors.Is(err, payroll.ErrSalaryComponentInUse):
		Conflict(w, "Salary component is assigned to employees")
	case errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, "Invalid payroll period", nil)

	// Loan domain errors
	case errors.Is(err, loan.ErrLoanNotFound):
		NotFound(w, "Loan not found")
	case errors.Is(err, loan.ErrLoanNotPending):
		Conflict(w, "Loan already processed")
	case errors.Is(err, loan.ErrLoanNotApproved):
		Conflict(w, "Loan is not approved")
	case errors.Is(err, loan.ErrRepaymentExceedsBalance):
		BadRequest(w, "Repayment exceeds remaining balance", nil)

	// Advance domain errors
	case errors.Is(err, advance.ErrAdvanceNotFound):
		NotFound(w, "Salary advance not found")
	case errors.Is(err, advance.ErrAdvanceNotPending):
		Conflict(w, "Salary advance already processed")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
