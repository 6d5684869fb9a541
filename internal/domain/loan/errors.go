package loan

import "errors"

var (
	ErrLoanNotFound             = errors.New("loan not found")
	ErrLoanNotPending           = errors.New("loan is not pending")
	ErrLoanNotApproved          = errors.New("loan is not approved")
	ErrRepaymentExceedsBalance  = errors.New("repayment exceeds remaining balance")
	ErrRepaymentAlreadyRecorded = errors.New("loan repayment already recorded for this payroll item")
)
