package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ComponentRepository defines data access for the salary component catalog.
// All methods include companyID parameter to prevent cross-company data access.
type ComponentRepository interface {
	Create(ctx context.Context, component SalaryComponent) (SalaryComponent, error)
	GetByID(ctx context.Context, id string, companyID string) (SalaryComponent, error)
	List(ctx context.Context, companyID string, activeOnly bool) ([]SalaryComponent, error)
	Update(ctx context.Context, component SalaryComponent) (SalaryComponent, error)
	Delete(ctx context.Context, id string, companyID string) error

	// GetEmployeeComponents returns assignments joined with their component, keyed by employee ID.
	GetEmployeeComponents(ctx context.Context, companyID string, employeeIDs []string) (map[string][]EmployeeComponent, error)
	// SyncEmployeeComponents replaces an employee's assignments with the given set.
	SyncEmployeeComponents(ctx context.Context, companyID string, employeeID string, assignments []EmployeeComponent) error
}

// RunRepository defines data access for payroll runs and their items.
type RunRepository interface {
	// LockScope serializes writers of one (company, period, branch) scope until the transaction ends.
	LockScope(ctx context.Context, key string) error

	// GetByScopeForUpdate returns ErrPayrollRunNotFound when no run exists for the scope.
	GetByScopeForUpdate(ctx context.Context, companyID string, period Period, branchID *string) (Run, error)
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (Run, error)
	GetByID(ctx context.Context, id string, companyID string) (Run, error)
	List(ctx context.Context, companyID string, filter RunFilter) ([]Run, int64, error)
	Create(ctx context.Context, run Run) (Run, error)
	UpdateStatus(ctx context.Context, run Run) (Run, error)

	// UpsertItem inserts or overwrites the item keyed by (run, employee).
	UpsertItem(ctx context.Context, item Item) (Item, error)
	// DeleteItemsExcept removes items of employees no longer in the run's roster.
	DeleteItemsExcept(ctx context.Context, runID string, companyID string, employeeIDs []string) error
	GetItems(ctx context.Context, runID string, companyID string) ([]Item, error)
	GetItem(ctx context.Context, runID string, itemID string, companyID string) (Item, error)
	MarkItemPaid(ctx context.Context, runID string, itemID string, companyID string, paidAt time.Time) (Item, error)
	CountUnpaidItems(ctx context.Context, runID string, companyID string) (int, error)
}

// Transactor runs fn inside one database transaction carried by the returned context.
// Repositories called with that context participate in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AttendanceDeductionSource supplies externally computed attendance deductions for a period.
// Employees without a figure are absent from the result and deduct zero.
type AttendanceDeductionSource interface {
	Name() string
	Deductions(ctx context.Context, companyID string, period Period, employeeIDs []string) (map[string]decimal.Decimal, error)
}
