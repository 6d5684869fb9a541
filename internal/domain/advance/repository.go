package advance

import "context"

// AdvanceRepository defines data access methods for salary advances.
type AdvanceRepository interface {
	Create(ctx context.Context, advance SalaryAdvance) (SalaryAdvance, error)
	GetByID(ctx context.Context, id string, companyID string) (SalaryAdvance, error)
	List(ctx context.Context, companyID string, filter AdvanceFilter) ([]SalaryAdvance, error)
	Approve(ctx context.Context, id string, companyID string, approvedBy string) (SalaryAdvance, error)
	Reject(ctx context.Context, id string, companyID string, reason string) (SalaryAdvance, error)

	// GetDueByEmployees returns approved advances whose repayment date falls in the period, keyed by employee ID.
	GetDueByEmployees(ctx context.Context, companyID string, month, year int, employeeIDs []string) (map[string][]SalaryAdvance, error)

	// Settle moves an approved advance to settled. Returns ErrAdvanceNotApproved for any other status.
	Settle(ctx context.Context, id string, companyID string, runID string) error
}
