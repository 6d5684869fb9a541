package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the read-only view of the directory record the payroll engine consumes.
type Employee struct {
	ID               string
	CompanyID        string
	BranchID         *string
	EmployeeCode     string
	FullName         string
	Email            *string
	EmploymentStatus EmploymentStatus
	Salary           decimal.Decimal
	SalaryProfile    *SalaryProfile
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

type SalaryType string

const (
	SalaryTypeMonthly SalaryType = "monthly"
	SalaryTypeDaily   SalaryType = "daily"
	SalaryTypeHourly  SalaryType = "hourly"
)

// SalaryProfile holds the payroll-specific compensation data of an employee.
type SalaryProfile struct {
	ID            string
	EmployeeID    string
	BaseSalary    decimal.Decimal
	SalaryType    SalaryType
	PaymentMethod *string
	BankName      *string
	AccountName   *string
	AccountNumber *string
	IBAN          *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BasePay returns the profile base salary when a profile exists, otherwise the raw salary field.
func (e Employee) BasePay() decimal.Decimal {
	if e.SalaryProfile != nil {
		return e.SalaryProfile.BaseSalary
	}
	return e.Salary
}
