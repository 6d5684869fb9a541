package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/google/uuid"
)

type advanceRepository struct {
	s *Store
}

func NewAdvanceRepository(s *Store) advance.AdvanceRepository {
	return &advanceRepository{s: s}
}

func (r *advanceRepository) Create(ctx context.Context, a advance.SalaryAdvance) (advance.SalaryAdvance, error) {
	err := r.s.write(ctx, func(t *tables) error {
		e, ok := t.employees[a.EmployeeID]
		if !ok || e.CompanyID != a.CompanyID {
			return employee.ErrEmployeeNotFound
		}
		a.ID = uuid.NewString()
		a.CreatedAt = r.s.now()
		a.UpdatedAt = a.CreatedAt
		t.advances[a.ID] = a
		return nil
	})
	if err != nil {
		return advance.SalaryAdvance{}, err
	}
	return a, nil
}

func (r *advanceRepository) GetByID(_ context.Context, id string, companyID string) (advance.SalaryAdvance, error) {
	var (
		a  advance.SalaryAdvance
		ok bool
	)
	r.s.read(func(t *tables) {
		a, ok = t.advances[id]
		a.EmployeeName = withEmployeeName(t, a.EmployeeID)
	})
	if !ok || a.CompanyID != companyID {
		return advance.SalaryAdvance{}, advance.ErrAdvanceNotFound
	}
	return a, nil
}

func (r *advanceRepository) List(_ context.Context, companyID string, filter advance.AdvanceFilter) ([]advance.SalaryAdvance, error) {
	out := []advance.SalaryAdvance{}
	r.s.read(func(t *tables) {
		for _, a := range t.advances {
			if a.CompanyID != companyID {
				continue
			}
			if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
				continue
			}
			if filter.Status != nil && string(a.Status) != *filter.Status {
				continue
			}
			a.EmployeeName = withEmployeeName(t, a.EmployeeID)
			out = append(out, a)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *advanceRepository) update(ctx context.Context, id, companyID string, from advance.AdvanceStatus, notAllowed error, apply func(a *advance.SalaryAdvance)) (advance.SalaryAdvance, error) {
	var saved advance.SalaryAdvance
	err := r.s.write(ctx, func(t *tables) error {
		a, ok := t.advances[id]
		if !ok || a.CompanyID != companyID {
			return advance.ErrAdvanceNotFound
		}
		if a.Status != from {
			return notAllowed
		}
		apply(&a)
		a.UpdatedAt = r.s.now()
		t.advances[id] = a
		saved = a
		return nil
	})
	return saved, err
}

func (r *advanceRepository) Approve(ctx context.Context, id string, companyID string, approvedBy string) (advance.SalaryAdvance, error) {
	return r.update(ctx, id, companyID, advance.AdvanceStatusPending, advance.ErrAdvanceNotPending, func(a *advance.SalaryAdvance) {
		a.Status = advance.AdvanceStatusApproved
		a.ApprovedBy = ptr(approvedBy)
		a.ApprovedAt = ptr(r.s.now())
	})
}

func (r *advanceRepository) Reject(ctx context.Context, id string, companyID string, reason string) (advance.SalaryAdvance, error) {
	return r.update(ctx, id, companyID, advance.AdvanceStatusPending, advance.ErrAdvanceNotPending, func(a *advance.SalaryAdvance) {
		a.Status = advance.AdvanceStatusRejected
		a.RejectionReason = ptr(reason)
	})
}

func (r *advanceRepository) GetDueByEmployees(_ context.Context, companyID string, month, year int, employeeIDs []string) (map[string][]advance.SalaryAdvance, error) {
	wanted := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		wanted[id] = true
	}

	result := make(map[string][]advance.SalaryAdvance, len(employeeIDs))
	r.s.read(func(t *tables) {
		for _, a := range t.advances {
			if a.CompanyID == companyID && wanted[a.EmployeeID] && a.Status == advance.AdvanceStatusApproved && a.DueIn(month, year) {
				result[a.EmployeeID] = append(result[a.EmployeeID], a)
			}
		}
	})
	for _, advances := range result {
		sort.Slice(advances, func(i, j int) bool {
			if !advances[i].RepaymentDate.Equal(*advances[j].RepaymentDate) {
				return advances[i].RepaymentDate.Before(*advances[j].RepaymentDate)
			}
			return advances[i].ID < advances[j].ID
		})
	}
	return result, nil
}

func (r *advanceRepository) Settle(ctx context.Context, id string, companyID string, runID string) error {
	_, err := r.update(ctx, id, companyID, advance.AdvanceStatusApproved, advance.ErrAdvanceNotApproved, func(a *advance.SalaryAdvance) {
		a.Status = advance.AdvanceStatusSettled
		a.SettledAt = ptr(r.s.now())
		a.SettledRunID = ptr(runID)
	})
	return err
}
