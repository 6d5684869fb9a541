package advance

import (
	"time"

	"github.com/shopspring/decimal"
)

type AdvanceStatus string

const (
	AdvanceStatusPending  AdvanceStatus = "pending"
	AdvanceStatusApproved AdvanceStatus = "approved"
	AdvanceStatusRejected AdvanceStatus = "rejected"
	// AdvanceStatusSettled is terminal: the advance was deducted by an approved payroll run.
	AdvanceStatusSettled AdvanceStatus = "settled"
)

// SalaryAdvance is a lump sum paid ahead of salary and deducted in full from one payroll period.
type SalaryAdvance struct {
	ID              string
	CompanyID       string
	EmployeeID      string
	Amount          decimal.Decimal
	Reason          *string
	Status          AdvanceStatus
	RepaymentDate   *time.Time
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	SettledAt       *time.Time
	SettledRunID    *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	EmployeeName *string
}

// DueIn reports whether the advance is scheduled for deduction in the given period.
func (a SalaryAdvance) DueIn(month, year int) bool {
	if a.RepaymentDate == nil {
		return false
	}
	return int(a.RepaymentDate.Month()) == month && a.RepaymentDate.Year() == year
}
