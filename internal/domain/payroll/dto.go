package payroll

import (
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== COMPONENT DTOs ==========

type CreateSalaryComponentRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Type        string          `json:"type" validate:"oneof=allowance deduction"`
	AmountType  string          `json:"amount_type" validate:"oneof=fixed percent"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

func (r *CreateSalaryComponentRequest) Validate() error {
	errs := validator.Struct(r)
	errs = append(errs, validateComponentAmount(AmountType(r.AmountType), r.Amount)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateSalaryComponentRequest struct {
	ID          string           `json:"-"`
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	AmountType  *string          `json:"amount_type,omitempty" validate:"omitempty,oneof=fixed percent"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

func (r *UpdateSalaryComponentRequest) Validate() error {
	errs := validator.Struct(r)
	if r.Amount != nil && r.Amount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateComponentAmount(amountType AmountType, amount decimal.Decimal) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if amount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be non-negative"})
	}
	if amountType == AmountTypePercent && amount.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "percentage must not exceed 100"})
	}
	return errs
}

type SalaryComponentResponse struct {
	ID          string          `json:"id"`
	CompanyID   string          `json:"company_id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	AmountType  string          `json:"amount_type"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
	IsActive    bool            `json:"is_active"`
}

// ========== SALARY PROFILE DTOs ==========

type ComponentAssignment struct {
	ComponentID  string           `json:"component_id" validate:"required,uuid"`
	CustomAmount *decimal.Decimal `json:"custom_amount,omitempty"`
	AmountType   *string          `json:"amount_type,omitempty" validate:"omitempty,oneof=fixed percent"`
}

type UpsertSalaryProfileRequest struct {
	EmployeeID    string                `json:"-"`
	BaseSalary    decimal.Decimal       `json:"base_salary"`
	SalaryType    string                `json:"salary_type" validate:"oneof=monthly daily hourly"`
	PaymentMethod *string               `json:"payment_method,omitempty" validate:"omitempty,oneof=bank_transfer cash cheque"`
	BankName      *string               `json:"bank_name,omitempty" validate:"omitempty,max=100"`
	AccountName   *string               `json:"account_name,omitempty" validate:"omitempty,max=100"`
	AccountNumber *string               `json:"account_number,omitempty" validate:"omitempty,max=50"`
	IBAN          *string               `json:"iban,omitempty" validate:"omitempty,max=50"`
	Components    []ComponentAssignment `json:"components" validate:"dive"`
}

func (r *UpsertSalaryProfileRequest) Validate() error {
	errs := validator.Struct(r)
	if r.BaseSalary.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "base_salary", Message: "must be non-negative"})
	}

	seen := make(map[string]bool, len(r.Components))
	for _, c := range r.Components {
		if seen[c.ComponentID] {
			errs = append(errs, validator.ValidationError{Field: "components", Message: "component " + c.ComponentID + " is assigned twice"})
		}
		seen[c.ComponentID] = true

		if c.CustomAmount != nil {
			amountType := AmountTypeFixed
			if c.AmountType != nil {
				amountType = AmountType(*c.AmountType)
			}
			for _, e := range validateComponentAmount(amountType, *c.CustomAmount) {
				errs = append(errs, validator.ValidationError{Field: "components." + c.ComponentID + ".custom_amount", Message: e.Message})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeComponentResponse struct {
	ComponentID         string           `json:"component_id"`
	Name                string           `json:"name"`
	Type                string           `json:"type"`
	DefaultAmountType   string           `json:"default_amount_type"`
	DefaultAmount       decimal.Decimal  `json:"default_amount"`
	CustomAmount        *decimal.Decimal `json:"custom_amount,omitempty"`
	CustomAmountType    *string          `json:"custom_amount_type,omitempty"`
	EffectiveAmount     decimal.Decimal  `json:"effective_amount"`
	EffectiveAmountType string           `json:"effective_amount_type"`
}

type SalaryProfileResponse struct {
	EmployeeID    string                      `json:"employee_id"`
	BaseSalary    decimal.Decimal             `json:"base_salary"`
	SalaryType    string                      `json:"salary_type"`
	PaymentMethod *string                     `json:"payment_method,omitempty"`
	BankName      *string                     `json:"bank_name,omitempty"`
	AccountName   *string                     `json:"account_name,omitempty"`
	AccountNumber *string                     `json:"account_number,omitempty"`
	IBAN          *string                     `json:"iban,omitempty"`
	Components    []EmployeeComponentResponse `json:"components"`
}

// ========== RUN DTOs ==========

type GenerateRunRequest struct {
	PeriodMonth int     `json:"period_month" validate:"min=1,max=12"`
	PeriodYear  int     `json:"period_year" validate:"min=2000,max=2100"`
	BranchID    *string `json:"branch_id,omitempty" validate:"omitempty,uuid"`
}

func (r *GenerateRunRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

func (r GenerateRunRequest) Period() Period {
	return Period{Month: r.PeriodMonth, Year: r.PeriodYear}
}

type RunFilter struct {
	PeriodMonth *int    `json:"period_month,omitempty"`
	PeriodYear  *int    `json:"period_year,omitempty"`
	Status      *string `json:"status,omitempty"`
	BranchID    *string `json:"branch_id,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}

func (f *RunFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type ItemResponse struct {
	ID                  string          `json:"id"`
	RunID               string          `json:"run_id"`
	EmployeeID          string          `json:"employee_id"`
	EmployeeName        string          `json:"employee_name,omitempty"`
	EmployeeCode        string          `json:"employee_code,omitempty"`
	BaseSalary          decimal.Decimal `json:"base_salary"`
	TotalAllowances     decimal.Decimal `json:"total_allowances"`
	TotalDeductions     decimal.Decimal `json:"total_deductions"`
	LoanDeduction       decimal.Decimal `json:"loan_deduction"`
	AdvanceDeduction    decimal.Decimal `json:"advance_deduction"`
	AttendanceDeduction decimal.Decimal `json:"attendance_deduction"`
	Bonus               decimal.Decimal `json:"bonus"`
	NetSalary           decimal.Decimal `json:"net_salary"`
	Snapshot            Snapshot        `json:"snapshot"`
	PaymentStatus       string          `json:"payment_status"`
	PaidAt              *string         `json:"paid_at,omitempty"`
}

type RunSummary struct {
	TotalEmployees  int             `json:"total_employees"`
	TotalBaseSalary decimal.Decimal `json:"total_base_salary"`
	TotalAllowances decimal.Decimal `json:"total_allowances"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	TotalNetSalary  decimal.Decimal `json:"total_net_salary"`
	PaidCount       int             `json:"paid_count"`
	NegativeNet     int             `json:"negative_net_count"`
}

type RunResponse struct {
	ID          string         `json:"id"`
	CompanyID   string         `json:"company_id"`
	PeriodMonth int            `json:"period_month"`
	PeriodYear  int            `json:"period_year"`
	BranchID    *string        `json:"branch_id,omitempty"`
	Status      string         `json:"status"`
	ProcessedBy *string        `json:"processed_by,omitempty"`
	ProcessedAt *string        `json:"processed_at,omitempty"`
	Summary     *RunSummary    `json:"summary,omitempty"`
	Items       []ItemResponse `json:"items,omitempty"`
}

type ListRunResponse struct {
	Data       []RunResponse `json:"data"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
}

type MarkItemPaidResponse struct {
	Item      ItemResponse `json:"item"`
	RunStatus string       `json:"run_status"`
	Warning   *string      `json:"warning,omitempty"`
}
