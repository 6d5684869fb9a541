package employee

import "context"

// EmployeeRepository is the read side of the employee directory.
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	// GetActiveForPayroll lists active employees with their salary profile, optionally scoped to one branch.
	GetActiveForPayroll(ctx context.Context, companyID string, branchID *string) ([]Employee, error)
	GetSalaryProfile(ctx context.Context, employeeID string, companyID string) (SalaryProfile, error)
	UpsertSalaryProfile(ctx context.Context, profile SalaryProfile, companyID string) (SalaryProfile, error)
}
