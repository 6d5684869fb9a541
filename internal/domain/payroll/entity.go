package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ComponentType enum
type ComponentType string

const (
	ComponentTypeAllowance ComponentType = "allowance"
	ComponentTypeDeduction ComponentType = "deduction"
)

// AmountType enum
type AmountType string

const (
	AmountTypeFixed   AmountType = "fixed"
	AmountTypePercent AmountType = "percent"
)

// SalaryComponent - Company allowance/deduction template
type SalaryComponent struct {
	ID          string
	CompanyID   string
	Name        string
	Type        ComponentType
	AmountType  AmountType
	Amount      decimal.Decimal
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EmployeeComponent - Component assigned to an employee with optional overrides
type EmployeeComponent struct {
	EmployeeID   string
	ComponentID  string
	CustomAmount *decimal.Decimal
	AmountType   *AmountType

	// Joined fields
	Component SalaryComponent
}

// ResolvedComponent is a component with its effective amount and representation for one employee.
type ResolvedComponent struct {
	ComponentID string
	Name        string
	Type        ComponentType
	AmountType  AmountType
	Amount      decimal.Decimal
}

// RunStatus enum
type RunStatus string

const (
	RunStatusDraft           RunStatus = "draft"
	RunStatusPendingApproval RunStatus = "pending_approval"
	RunStatusApproved        RunStatus = "approved"
	RunStatusPaid            RunStatus = "paid"
)

// Locked reports whether the run's snapshots and ledger effects are frozen.
func (s RunStatus) Locked() bool {
	return s == RunStatusApproved || s == RunStatusPaid
}

// Period is one payroll month.
type Period struct {
	Month int
	Year  int
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Run - One payroll batch for a period and optional branch scope
type Run struct {
	ID          string
	CompanyID   string
	PeriodMonth int
	PeriodYear  int
	BranchID    *string
	Status      RunStatus
	ProcessedBy *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Items []Item
}

func (r Run) Period() Period {
	return Period{Month: r.PeriodMonth, Year: r.PeriodYear}
}

// ScopeLockKey identifies the (company, period, branch) tuple a run belongs to.
func ScopeLockKey(companyID string, period Period, branchID *string) string {
	scope := "all"
	if branchID != nil && *branchID != "" {
		scope = *branchID
	}
	return fmt.Sprintf("payroll:run:%s:%s:%s", companyID, period, scope)
}

// PaymentStatus enum
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Item - One employee's computed compensation within a run
type Item struct {
	ID                  string
	RunID               string
	CompanyID           string
	EmployeeID          string
	BaseSalary          decimal.Decimal
	TotalAllowances     decimal.Decimal
	TotalDeductions     decimal.Decimal
	LoanDeduction       decimal.Decimal
	AdvanceDeduction    decimal.Decimal
	AttendanceDeduction decimal.Decimal
	Bonus               decimal.Decimal
	NetSalary           decimal.Decimal
	Snapshot            Snapshot
	PaymentStatus       PaymentStatus
	PaidAt              *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// Joined fields
	EmployeeName  *string
	EmployeeCode  *string
	EmployeeEmail *string
}

// GrossSalary is base pay plus allowances.
func (i Item) GrossSalary() decimal.Decimal {
	return i.BaseSalary.Add(i.TotalAllowances)
}

// TotalCuts is everything subtracted from gross to reach net.
func (i Item) TotalCuts() decimal.Decimal {
	return i.TotalDeductions.Add(i.LoanDeduction).Add(i.AdvanceDeduction).Add(i.AttendanceDeduction)
}

// Snapshot is the itemized breakdown stored with an item. Once the run leaves draft it is
// the record that ledger replay and payslips read from, so its JSON form must stay stable.
type Snapshot struct {
	BaseSalary decimal.Decimal `json:"base_salary"`
	Allowances []ComponentLine `json:"allowances"`
	Deductions []ComponentLine `json:"deductions"`
	Loans      []LedgerLine    `json:"loans"`
	Advances   []LedgerLine    `json:"advances"`
	Attendance AttendanceLine  `json:"attendance"`
}

type ComponentLine struct {
	ComponentID string          `json:"component_id"`
	Name        string          `json:"name"`
	AmountType  AmountType      `json:"amount_type"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// LedgerLine is one loan installment or advance deduction, replayed verbatim on approval.
type LedgerLine struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
}

type AttendanceLine struct {
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
}
