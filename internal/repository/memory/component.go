package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/google/uuid"
)

type componentRepository struct {
	s *Store
}

func NewComponentRepository(s *Store) payroll.ComponentRepository {
	return &componentRepository{s: s}
}

func nameTaken(t *tables, companyID, name, exceptID string) bool {
	for _, c := range t.components {
		if c.CompanyID == companyID && c.Name == name && c.ID != exceptID {
			return true
		}
	}
	return false
}

func (r *componentRepository) Create(ctx context.Context, component payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	err := r.s.write(ctx, func(t *tables) error {
		if nameTaken(t, component.CompanyID, component.Name, "") {
			return payroll.ErrSalaryComponentNameExists
		}
		component.ID = uuid.NewString()
		component.CreatedAt = r.s.now()
		component.UpdatedAt = component.CreatedAt
		t.components[component.ID] = component
		return nil
	})
	if err != nil {
		return payroll.SalaryComponent{}, err
	}
	return component, nil
}

func (r *componentRepository) GetByID(_ context.Context, id string, companyID string) (payroll.SalaryComponent, error) {
	var (
		c  payroll.SalaryComponent
		ok bool
	)
	r.s.read(func(t *tables) {
		c, ok = t.components[id]
	})
	if !ok || c.CompanyID != companyID {
		return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNotFound
	}
	return c, nil
}

func (r *componentRepository) List(_ context.Context, companyID string, activeOnly bool) ([]payroll.SalaryComponent, error) {
	out := []payroll.SalaryComponent{}
	r.s.read(func(t *tables) {
		for _, c := range t.components {
			if c.CompanyID == companyID && (!activeOnly || c.IsActive) {
				out = append(out, c)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *componentRepository) Update(ctx context.Context, component payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	var saved payroll.SalaryComponent
	err := r.s.write(ctx, func(t *tables) error {
		current, ok := t.components[component.ID]
		if !ok || current.CompanyID != component.CompanyID {
			return payroll.ErrSalaryComponentNotFound
		}
		if nameTaken(t, component.CompanyID, component.Name, component.ID) {
			return payroll.ErrSalaryComponentNameExists
		}
		saved = current
		saved.Name = component.Name
		saved.AmountType = component.AmountType
		saved.Amount = component.Amount
		saved.Description = component.Description
		saved.IsActive = component.IsActive
		saved.UpdatedAt = r.s.now()
		t.components[saved.ID] = saved
		return nil
	})
	return saved, err
}

func (r *componentRepository) Delete(ctx context.Context, id string, companyID string) error {
	return r.s.write(ctx, func(t *tables) error {
		c, ok := t.components[id]
		if !ok || c.CompanyID != companyID {
			return payroll.ErrSalaryComponentNotFound
		}
		for _, assigned := range t.assignments {
			for _, a := range assigned {
				if a.ComponentID == id {
					return payroll.ErrSalaryComponentInUse
				}
			}
		}
		delete(t.components, id)
		return nil
	})
}

func (r *componentRepository) GetEmployeeComponents(_ context.Context, companyID string, employeeIDs []string) (map[string][]payroll.EmployeeComponent, error) {
	result := make(map[string][]payroll.EmployeeComponent, len(employeeIDs))
	r.s.read(func(t *tables) {
		for _, employeeID := range employeeIDs {
			for _, a := range t.assignments[employeeID] {
				c, ok := t.components[a.ComponentID]
				if !ok || c.CompanyID != companyID {
					continue
				}
				a.Component = c
				result[employeeID] = append(result[employeeID], a)
			}
		}
	})
	for _, assigned := range result {
		sort.Slice(assigned, func(i, j int) bool {
			ci, cj := assigned[i].Component, assigned[j].Component
			if ci.Type != cj.Type {
				return ci.Type < cj.Type
			}
			if ci.Name != cj.Name {
				return ci.Name < cj.Name
			}
			return ci.ID < cj.ID
		})
	}
	return result, nil
}

func (r *componentRepository) SyncEmployeeComponents(ctx context.Context, companyID string, employeeID string, assignments []payroll.EmployeeComponent) error {
	return r.s.write(ctx, func(t *tables) error {
		e, ok := t.employees[employeeID]
		if !ok || e.CompanyID != companyID {
			return employee.ErrEmployeeNotFound
		}
		synced := make([]payroll.EmployeeComponent, 0, len(assignments))
		for _, a := range assignments {
			c, ok := t.components[a.ComponentID]
			if !ok || c.CompanyID != companyID {
				return payroll.ErrSalaryComponentNotFound
			}
			a.EmployeeID = employeeID
			a.Component = payroll.SalaryComponent{}
			synced = append(synced, a)
		}
		t.assignments[employeeID] = slices.Clip(synced)
		return nil
	})
}
