package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/google/uuid"
)

type loanRepository struct {
	s *Store
}

func NewLoanRepository(s *Store) loan.LoanRepository {
	return &loanRepository{s: s}
}

func withEmployeeName(t *tables, employeeID string) *string {
	if e, ok := t.employees[employeeID]; ok {
		return ptr(e.FullName)
	}
	return nil
}

func (r *loanRepository) Create(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	err := r.s.write(ctx, func(t *tables) error {
		e, ok := t.employees[l.EmployeeID]
		if !ok || e.CompanyID != l.CompanyID {
			return employee.ErrEmployeeNotFound
		}
		l.ID = uuid.NewString()
		l.CreatedAt = r.s.now()
		l.UpdatedAt = l.CreatedAt
		t.loans[l.ID] = l
		return nil
	})
	if err != nil {
		return loan.Loan{}, err
	}
	return l, nil
}

func (r *loanRepository) GetByID(_ context.Context, id string, companyID string) (loan.Loan, error) {
	var (
		l  loan.Loan
		ok bool
	)
	r.s.read(func(t *tables) {
		l, ok = t.loans[id]
		l.EmployeeName = withEmployeeName(t, l.EmployeeID)
	})
	if !ok || l.CompanyID != companyID {
		return loan.Loan{}, loan.ErrLoanNotFound
	}
	return l, nil
}

func (r *loanRepository) List(_ context.Context, companyID string, filter loan.LoanFilter) ([]loan.Loan, error) {
	out := []loan.Loan{}
	r.s.read(func(t *tables) {
		for _, l := range t.loans {
			if l.CompanyID != companyID {
				continue
			}
			if filter.EmployeeID != nil && l.EmployeeID != *filter.EmployeeID {
				continue
			}
			if filter.Status != nil && string(l.Status) != *filter.Status {
				continue
			}
			l.EmployeeName = withEmployeeName(t, l.EmployeeID)
			out = append(out, l)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *loanRepository) transition(ctx context.Context, id, companyID string, apply func(l *loan.Loan)) (loan.Loan, error) {
	var saved loan.Loan
	err := r.s.write(ctx, func(t *tables) error {
		l, ok := t.loans[id]
		if !ok || l.CompanyID != companyID {
			return loan.ErrLoanNotFound
		}
		if l.Status != loan.LoanStatusPending {
			return loan.ErrLoanNotPending
		}
		apply(&l)
		l.UpdatedAt = r.s.now()
		t.loans[id] = l
		saved = l
		return nil
	})
	return saved, err
}

func (r *loanRepository) Approve(ctx context.Context, id string, companyID string) (loan.Loan, error) {
	return r.transition(ctx, id, companyID, func(l *loan.Loan) {
		l.Status = loan.LoanStatusApproved
		l.ApprovedAt = ptr(r.s.now())
	})
}

func (r *loanRepository) Reject(ctx context.Context, id string, companyID string, reason string) (loan.Loan, error) {
	return r.transition(ctx, id, companyID, func(l *loan.Loan) {
		l.Status = loan.LoanStatusRejected
		l.RejectionReason = ptr(reason)
	})
}

func (r *loanRepository) GetEligibleByEmployees(_ context.Context, companyID string, employeeIDs []string) (map[string][]loan.Loan, error) {
	wanted := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		wanted[id] = true
	}

	result := make(map[string][]loan.Loan, len(employeeIDs))
	r.s.read(func(t *tables) {
		for _, l := range t.loans {
			if l.CompanyID == companyID && wanted[l.EmployeeID] && l.Eligible() {
				result[l.EmployeeID] = append(result[l.EmployeeID], l)
			}
		}
	})
	for _, loans := range result {
		sort.Slice(loans, func(i, j int) bool {
			if !loans[i].CreatedAt.Equal(loans[j].CreatedAt) {
				return loans[i].CreatedAt.Before(loans[j].CreatedAt)
			}
			return loans[i].ID < loans[j].ID
		})
	}
	return result, nil
}

func (r *loanRepository) ApplyRepayment(ctx context.Context, companyID string, repayment loan.Repayment) (loan.Loan, error) {
	var saved loan.Loan
	err := r.s.write(ctx, func(t *tables) error {
		l, ok := t.loans[repayment.LoanID]
		if !ok || l.CompanyID != companyID {
			return loan.ErrLoanNotFound
		}
		if err := loan.CheckRepayment(l, repayment); err != nil {
			return err
		}
		if repayment.PayrollItemID != nil {
			for _, existing := range t.repayments {
				if existing.LoanID == repayment.LoanID && existing.PayrollItemID != nil && *existing.PayrollItemID == *repayment.PayrollItemID {
					return loan.ErrRepaymentAlreadyRecorded
				}
			}
		}

		repayment.ID = uuid.NewString()
		repayment.CreatedAt = r.s.now()
		t.repayments = append(t.repayments, repayment)

		l.RemainingBalance = l.RemainingBalance.Sub(repayment.Amount)
		if !l.RemainingBalance.IsPositive() {
			l.Status = loan.LoanStatusPaid
		}
		l.UpdatedAt = repayment.CreatedAt
		t.loans[l.ID] = l
		saved = l
		return nil
	})
	return saved, err
}

func (r *loanRepository) GetRepayments(_ context.Context, loanID string, companyID string) ([]loan.Repayment, error) {
	out := []loan.Repayment{}
	var found bool
	r.s.read(func(t *tables) {
		l, ok := t.loans[loanID]
		found = ok && l.CompanyID == companyID
		if !found {
			return
		}
		for _, rp := range t.repayments {
			if rp.LoanID == loanID {
				out = append(out, rp)
			}
		}
	})
	if !found {
		return nil, loan.ErrLoanNotFound
	}
	return out, nil
}
