package payroll

import "errors"

var (
	ErrPayrollRunNotFound        = errors.New("payroll run not found")
	ErrPayrollItemNotFound       = errors.New("payroll item not found in run")
	ErrRunLocked                 = errors.New("payroll run is already approved or paid")
	ErrInvalidTransition         = errors.New("invalid payroll run status transition")
	ErrRunBusy                   = errors.New("payroll run is being processed, try again")
	ErrItemAlreadyPaid           = errors.New("payroll item already paid")
	ErrNotificationFailure       = errors.New("payslip notification failed")
	ErrSalaryComponentNotFound   = errors.New("salary component not found")
	ErrSalaryComponentNameExists = errors.New("salary component name already exists")
	ErrSalaryComponentInUse      = errors.New("salary component is assigned to employees")
	ErrInvalidComponentType      = errors.New("invalid component type")
	ErrInvalidAmountType         = errors.New("invalid amount type")
	ErrInvalidPeriod             = errors.New("invalid payroll period")
	ErrSnapshotReferencesUnknown = errors.New("payroll snapshot references an unknown loan or advance")
)
