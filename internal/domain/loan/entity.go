package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusApproved LoanStatus = "approved"
	LoanStatusRejected LoanStatus = "rejected"
	LoanStatusPaid     LoanStatus = "paid"
)

// Loan is an employee borrowing repaid through fixed monthly installments.
// RemainingBalance never increases once the loan is approved.
type Loan struct {
	ID                 string
	CompanyID          string
	EmployeeID         string
	Amount             decimal.Decimal
	Installments       int
	MonthlyInstallment decimal.Decimal
	RemainingBalance   decimal.Decimal
	Status             LoanStatus
	Reason             *string
	RejectionReason    *string
	ApprovedAt         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Joined fields
	EmployeeName *string
}

// Eligible reports whether the loan can be deducted in a payroll run.
func (l Loan) Eligible() bool {
	return l.Status == LoanStatusApproved && l.RemainingBalance.IsPositive()
}

// Repayment records one decrement of a loan balance, either manual or replayed from a payroll item.
type Repayment struct {
	ID            string
	LoanID        string
	PayrollItemID *string
	Amount        decimal.Decimal
	RepaymentDate time.Time
	Notes         *string
	CreatedAt     time.Time
}

// CheckRepayment validates a repayment against the current loan state. Manual repayments need an
// approved loan and may not exceed the balance. Payroll replays apply the recorded amount as is.
func CheckRepayment(l Loan, r Repayment) error {
	if r.PayrollItemID != nil {
		if l.Status != LoanStatusApproved && l.Status != LoanStatusPaid {
			return ErrLoanNotApproved
		}
		return nil
	}
	if l.Status != LoanStatusApproved {
		return ErrLoanNotApproved
	}
	if r.Amount.GreaterThan(l.RemainingBalance) {
		return ErrRepaymentExceedsBalance
	}
	return nil
}
