// Package memory provides in-memory repositories for tests and local development.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Store holds every table. Stored values are replaced, never mutated in place,
// so a shallow copy of the maps is a consistent snapshot.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data tables
	now  func() time.Time
}

type tables struct {
	employees   map[string]employee.Employee
	components  map[string]payroll.SalaryComponent
	assignments map[string][]payroll.EmployeeComponent
	loans       map[string]loan.Loan
	repayments  []loan.Repayment
	advances    map[string]advance.SalaryAdvance
	runs        map[string]payroll.Run
	items       map[string]payroll.Item
	attendance  map[attendanceKey]decimal.Decimal
}

type attendanceKey struct {
	companyID  string
	employeeID string
	period     payroll.Period
}

func (t tables) clone() tables {
	return tables{
		employees:   maps.Clone(t.employees),
		components:  maps.Clone(t.components),
		assignments: maps.Clone(t.assignments),
		loans:       maps.Clone(t.loans),
		repayments:  append([]loan.Repayment(nil), t.repayments...),
		advances:    maps.Clone(t.advances),
		runs:        maps.Clone(t.runs),
		items:       maps.Clone(t.items),
		attendance:  maps.Clone(t.attendance),
	}
}

func NewStore() *Store {
	return &Store{
		data: tables{
			employees:   make(map[string]employee.Employee),
			components:  make(map[string]payroll.SalaryComponent),
			assignments: make(map[string][]payroll.EmployeeComponent),
			loans:       make(map[string]loan.Loan),
			advances:    make(map[string]advance.SalaryAdvance),
			runs:        make(map[string]payroll.Run),
			items:       make(map[string]payroll.Item),
			attendance:  make(map[attendanceKey]decimal.Decimal),
		},
		now: time.Now,
	}
}

// SetClock overrides the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// write runs fn under the write lock. Outside a transaction it also serializes with transactions.
func (s *Store) write(ctx context.Context, fn func(t *tables) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.data)
}

func (s *Store) read(fn func(t *tables)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}

// Transactor returns a payroll.Transactor that restores the pre-transaction state when fn fails.
func (s *Store) Transactor() payroll.Transactor {
	return transactor{s: s}
}

type transactor struct {
	s *Store
}

func (t transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()

	t.s.mu.RLock()
	saved := t.s.data.clone()
	t.s.mu.RUnlock()

	rollback := func() {
		t.s.mu.Lock()
		t.s.data = saved
		t.s.mu.Unlock()
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		rollback()
		return err
	}
	if err := ctx.Err(); err != nil {
		rollback()
		return err
	}
	return nil
}

// AddEmployee seeds the directory, which this service only reads.
func (s *Store) AddEmployee(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
		e.UpdatedAt = e.CreatedAt
	}
	s.data.employees[e.ID] = e
}

// SetEmploymentStatus changes an employee's status the way the directory would.
func (s *Store) SetEmploymentStatus(employeeID string, status employee.EmploymentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.data.employees[employeeID]; ok {
		e.EmploymentStatus = status
		s.data.employees[employeeID] = e
	}
}

// SetAttendanceDeduction records the figure the attendance subsystem computed.
func (s *Store) SetAttendanceDeduction(companyID, employeeID string, period payroll.Period, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.attendance[attendanceKey{companyID: companyID, employeeID: employeeID, period: period}] = amount
}

func ptr[T any](v T) *T {
	return &v
}
