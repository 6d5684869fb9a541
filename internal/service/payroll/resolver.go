package payroll

import (
	"sort"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
)

// ResolveComponents returns the active components of one employee with overrides applied,
// ordered allowances first, then by name.
func ResolveComponents(assigned []payroll.EmployeeComponent) []payroll.ResolvedComponent {
	resolved := make([]payroll.ResolvedComponent, 0, len(assigned))
	for _, a := range assigned {
		if !a.Component.IsActive {
			continue
		}
		resolved = append(resolved, resolveOne(a))
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		if resolved[i].Type != resolved[j].Type {
			return resolved[i].Type == payroll.ComponentTypeAllowance
		}
		if resolved[i].Name != resolved[j].Name {
			return resolved[i].Name < resolved[j].Name
		}
		return resolved[i].ComponentID < resolved[j].ComponentID
	})
	return resolved
}

func resolveOne(a payroll.EmployeeComponent) payroll.ResolvedComponent {
	r := payroll.ResolvedComponent{
		ComponentID: a.Component.ID,
		Name:        a.Component.Name,
		Type:        a.Component.Type,
		AmountType:  a.Component.AmountType,
		Amount:      a.Component.Amount,
	}
	if r.ComponentID == "" {
		r.ComponentID = a.ComponentID
	}
	if a.CustomAmount != nil {
		r.Amount = *a.CustomAmount
	}
	if a.AmountType != nil {
		r.AmountType = *a.AmountType
	}
	return r
}
