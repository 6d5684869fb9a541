package employee

import "errors"

var (
	ErrEmployeeNotFound      = errors.New("employee not found")
	ErrSalaryProfileNotFound = errors.New("salary profile not found")
)
