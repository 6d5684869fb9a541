package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/google/uuid"
)

type employeeRepository struct {
	s *Store
}

func NewEmployeeRepository(s *Store) employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

func (r *employeeRepository) GetByID(_ context.Context, id string, companyID string) (employee.Employee, error) {
	var (
		e  employee.Employee
		ok bool
	)
	r.s.read(func(t *tables) {
		e, ok = t.employees[id]
	})
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepository) GetActiveForPayroll(_ context.Context, companyID string, branchID *string) ([]employee.Employee, error) {
	var out []employee.Employee
	r.s.read(func(t *tables) {
		for _, e := range t.employees {
			if e.CompanyID != companyID || e.EmploymentStatus != employee.EmploymentStatusActive {
				continue
			}
			if branchID != nil && (e.BranchID == nil || *e.BranchID != *branchID) {
				continue
			}
			out = append(out, e)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeCode != out[j].EmployeeCode {
			return out[i].EmployeeCode < out[j].EmployeeCode
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *employeeRepository) GetSalaryProfile(ctx context.Context, employeeID string, companyID string) (employee.SalaryProfile, error) {
	e, err := r.GetByID(ctx, employeeID, companyID)
	if err != nil {
		return employee.SalaryProfile{}, err
	}
	if e.SalaryProfile == nil {
		return employee.SalaryProfile{}, employee.ErrSalaryProfileNotFound
	}
	return *e.SalaryProfile, nil
}

func (r *employeeRepository) UpsertSalaryProfile(ctx context.Context, profile employee.SalaryProfile, companyID string) (employee.SalaryProfile, error) {
	var saved employee.SalaryProfile
	err := r.s.write(ctx, func(t *tables) error {
		e, ok := t.employees[profile.EmployeeID]
		if !ok || e.CompanyID != companyID {
			return employee.ErrEmployeeNotFound
		}

		now := r.s.now()
		saved = profile
		if e.SalaryProfile != nil {
			saved.ID = e.SalaryProfile.ID
			saved.CreatedAt = e.SalaryProfile.CreatedAt
		} else {
			saved.ID = uuid.NewString()
			saved.CreatedAt = now
		}
		saved.UpdatedAt = now

		e.SalaryProfile = ptr(saved)
		t.employees[e.ID] = e
		return nil
	})
	return saved, err
}
