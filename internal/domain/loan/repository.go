package loan

import "context"

// LoanRepository defines data access methods for loans.
// All methods include companyID to keep every query scoped to one company.
type LoanRepository interface {
	Create(ctx context.Context, loan Loan) (Loan, error)
	GetByID(ctx context.Context, id string, companyID string) (Loan, error)
	List(ctx context.Context, companyID string, filter LoanFilter) ([]Loan, error)
	Approve(ctx context.Context, id string, companyID string) (Loan, error)
	Reject(ctx context.Context, id string, companyID string, reason string) (Loan, error)

	// GetEligibleByEmployees returns approved loans with a positive balance, keyed by employee ID.
	GetEligibleByEmployees(ctx context.Context, companyID string, employeeIDs []string) (map[string][]Loan, error)

	// ApplyRepayment decrements the balance by repayment.Amount, records the repayment row and
	// marks the loan paid once the balance reaches zero or below.
	ApplyRepayment(ctx context.Context, companyID string, repayment Repayment) (Loan, error)
	GetRepayments(ctx context.Context, loanID string, companyID string) ([]Repayment, error)
}
