package advance

import (
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateAdvanceRequest struct {
	EmployeeID    string          `json:"employee_id" validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        *string         `json:"reason,omitempty" validate:"omitempty,max=500"`
	RepaymentDate *string         `json:"repayment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (r *CreateAdvanceRequest) Validate() error {
	errs := validator.Struct(r)
	if !r.Amount.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be at least 1"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RejectAdvanceRequest struct {
	ID              string `json:"-"`
	RejectionReason string `json:"rejection_reason" validate:"required,max=500"`
}

func (r *RejectAdvanceRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type AdvanceFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
}

type AdvanceResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	EmployeeName    string          `json:"employee_name,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          *string         `json:"reason,omitempty"`
	Status          string          `json:"status"`
	RepaymentDate   *string         `json:"repayment_date,omitempty"`
	ApprovedAt      *string         `json:"approved_at,omitempty"`
	RejectionReason *string         `json:"rejection_reason,omitempty"`
	SettledAt       *string         `json:"settled_at,omitempty"`
	SettledRunID    *string         `json:"settled_run_id,omitempty"`
	CreatedAt       string          `json:"created_at"`
}
