package loan

import (
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	EmployeeID   string          `json:"employee_id" validate:"required,uuid"`
	Amount       decimal.Decimal `json:"amount"`
	Installments int             `json:"installments" validate:"min=1,max=120"`
	Reason       *string         `json:"reason,omitempty" validate:"omitempty,max=500"`
}

func (r *CreateLoanRequest) Validate() error {
	errs := validator.Struct(r)
	if !r.Amount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be at least 1"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectLoanRequest struct {
	ID              string `json:"-"`
	RejectionReason string `json:"rejection_reason" validate:"required,max=500"`
}

func (r *RejectLoanRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type RepayLoanRequest struct {
	ID            string          `json:"-"`
	Amount        decimal.Decimal `json:"amount"`
	RepaymentDate string          `json:"repayment_date" validate:"required,datetime=2006-01-02"`
	Notes         *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *RepayLoanRequest) Validate() error {
	errs := validator.Struct(r)
	if !r.Amount.GreaterThanOrEqual(decimal.RequireFromString("0.01")) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be at least 0.01"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type LoanFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
}

type LoanResponse struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	EmployeeName       string          `json:"employee_name,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	Installments       int             `json:"installments"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	RemainingBalance   decimal.Decimal `json:"remaining_balance"`
	Status             string          `json:"status"`
	Reason             *string         `json:"reason,omitempty"`
	RejectionReason    *string         `json:"rejection_reason,omitempty"`
	ApprovedAt         *string         `json:"approved_at,omitempty"`
	CreatedAt          string          `json:"created_at"`
}

type RepaymentResponse struct {
	ID            string          `json:"id"`
	LoanID        string          `json:"loan_id"`
	PayrollItemID *string         `json:"payroll_item_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	RepaymentDate string          `json:"repayment_date"`
	Notes         *string         `json:"notes,omitempty"`
}

type LoanDetailResponse struct {
	LoanResponse
	Repayments []RepaymentResponse `json:"repayments"`
}
