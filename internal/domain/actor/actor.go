package actor

import "errors"

// Role mirrors the role claim carried by access tokens.
type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

var (
	ErrCompanyIDRequired = errors.New("company ID is required")
	ErrForbidden         = errors.New("actor is not allowed to manage payroll")
)

// Actor identifies who performs an operation and which company's data it is scoped to.
// It is built once per request and passed explicitly to every service call.
type Actor struct {
	CompanyID string
	UserID    string
	Role      Role
}

func (a Actor) Validate() error {
	if a.CompanyID == "" {
		return ErrCompanyIDRequired
	}
	return nil
}

// CanManagePayroll reports whether the actor may change payroll lifecycle or catalog state.
func (a Actor) CanManagePayroll() bool {
	return a.Role == RoleOwner || a.Role == RoleManager
}

// Authorize checks the actor is scoped to a company and, when manage is set, that it may change payroll state.
func (a Actor) Authorize(manage bool) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if manage && !a.CanManagePayroll() {
		return ErrForbidden
	}
	return nil
}
