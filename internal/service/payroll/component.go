package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== COMPONENTS ==========

func (s *PayrollServiceImpl) CreateComponent(ctx context.Context, a actor.Actor, req payroll.CreateSalaryComponentRequest) (payroll.SalaryComponentResponse, error) {
	if err := a.Authorize(true); err != nil {
		return payroll.SalaryComponentResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.SalaryComponentResponse{}, err
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	created, err := s.componentRepo.Create(ctx, payroll.SalaryComponent{
		CompanyID:   a.CompanyID,
		Name:        strings.TrimSpace(req.Name),
		Type:        payroll.ComponentType(req.Type),
		AmountType:  payroll.AmountType(req.AmountType),
		Amount:      req.Amount,
		Description: req.Description,
		IsActive:    isActive,
	})
	if err != nil {
		return payroll.SalaryComponentResponse{}, err
	}

	slog.Info("salary component created", "company_id", a.CompanyID, "component_id", created.ID)
	return mapToComponentResponse(created), nil
}

func (s *PayrollServiceImpl) GetComponent(ctx context.Context, a actor.Actor, id string) (payroll.SalaryComponentResponse, error) {
	if err := a.Authorize(false); err != nil {
		return payroll.SalaryComponentResponse{}, err
	}

	c, err := s.componentRepo.GetByID(ctx, id, a.CompanyID)
	if err != nil {
		return payroll.SalaryComponentResponse{}, err
	}
	return mapToComponentResponse(c), nil
}

func (s *PayrollServiceImpl) ListComponents(ctx context.Context, a actor.Actor, activeOnly bool) ([]payroll.SalaryComponentResponse, error) {
	if err := a.Authorize(false); err != nil {
		return nil, err
	}

	components, err := s.componentRepo.List(ctx, a.CompanyID, activeOnly)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.SalaryComponentResponse, 0, len(components))
	for _, c := range components {
		result = append(result, mapToComponentResponse(c))
	}
	return result, nil
}

func (s *PayrollServiceImpl) UpdateComponent(ctx context.Context, a actor.Actor, req payroll.UpdateSalaryComponentRequest) (payroll.SalaryComponentResponse, error) {
	if err := a.Authorize(true); err != nil {
		return payroll.SalaryComponentResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.SalaryComponentResponse{}, err
	}

	current, err := s.componentRepo.GetByID(ctx, req.ID, a.CompanyID)
	if err != nil {
		return payroll.SalaryComponentResponse{}, err
	}

	// Apply updates
	if req.Name != nil {
		current.Name = strings.TrimSpace(*req.Name)
	}
	if req.AmountType != nil {
		current.AmountType = payroll.AmountType(*req.AmountType)
	}
	if req.Amount != nil {
		current.Amount = *req.Amount
	}
	if req.Description != nil {
		current.Description = req.Description
	}
	if req.IsActive != nil {
		current.IsActive = *req.IsActive
	}

	// A type change alone can push an existing amount over 100 percent.
	if current.AmountType == payroll.AmountTypePercent && current.Amount.GreaterThan(decimal.NewFromInt(100)) {
		return payroll.SalaryComponentResponse{}, validator.ValidationErrors{
			{Field: "amount", Message: "percentage must not exceed 100"},
		}
	}

	updated, err := s.componentRepo.Update(ctx, current)
	if err != nil {
		return payroll.SalaryComponentResponse{}, err
	}
	return mapToComponentResponse(updated), nil
}

func (s *PayrollServiceImpl) DeleteComponent(ctx context.Context, a actor.Actor, id string) error {
	if err := a.Authorize(true); err != nil {
		return err
	}
	if err := s.componentRepo.Delete(ctx, id, a.CompanyID); err != nil {
		return err
	}

	slog.Info("salary component deleted", "company_id", a.CompanyID, "component_id", id)
	return nil
}

// ========== SALARY PROFILES ==========

func (s *PayrollServiceImpl) GetSalaryProfile(ctx context.Context, a actor.Actor, employeeID string) (payroll.SalaryProfileResponse, error) {
	if err := a.Authorize(false); err != nil {
		return payroll.SalaryProfileResponse{}, err
	}

	profile, err := s.employeeRepo.GetSalaryProfile(ctx, employeeID, a.CompanyID)
	if err != nil {
		return payroll.SalaryProfileResponse{}, err
	}
	assigned, err := s.componentRepo.GetEmployeeComponents(ctx, a.CompanyID, []string{employeeID})
	if err != nil {
		return payroll.SalaryProfileResponse{}, fmt.Errorf("failed to get employee components: %w", err)
	}
	return mapToProfileResponse(profile, assigned[employeeID]), nil
}

// UpsertSalaryProfile saves the profile and replaces the employee's component assignments in one transaction.
func (s *PayrollServiceImpl) UpsertSalaryProfile(ctx context.Context, a actor.Actor, req payroll.UpsertSalaryProfileRequest) (payroll.SalaryProfileResponse, error) {
	if err := a.Authorize(true); err != nil {
		return payroll.SalaryProfileResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.SalaryProfileResponse{}, err
	}

	assignments := make([]payroll.EmployeeComponent, 0, len(req.Components))
	for _, c := range req.Components {
		assignment := payroll.EmployeeComponent{
			EmployeeID:   req.EmployeeID,
			ComponentID:  c.ComponentID,
			CustomAmount: c.CustomAmount,
		}
		if c.AmountType != nil {
			amountType := payroll.AmountType(*c.AmountType)
			assignment.AmountType = &amountType
		}
		assignments = append(assignments, assignment)
	}

	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, a.CompanyID); err != nil {
			return err
		}
		_, err := s.employeeRepo.UpsertSalaryProfile(ctx, employee.SalaryProfile{
			EmployeeID:    req.EmployeeID,
			BaseSalary:    req.BaseSalary,
			SalaryType:    employee.SalaryType(req.SalaryType),
			PaymentMethod: req.PaymentMethod,
			BankName:      req.BankName,
			AccountName:   req.AccountName,
			AccountNumber: req.AccountNumber,
			IBAN:          req.IBAN,
		}, a.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to save salary profile: %w", err)
		}
		return s.componentRepo.SyncEmployeeComponents(ctx, a.CompanyID, req.EmployeeID, assignments)
	})
	if err != nil {
		return payroll.SalaryProfileResponse{}, err
	}

	slog.Info("salary profile saved",
		"company_id", a.CompanyID,
		"employee_id", req.EmployeeID,
		"components", len(assignments),
	)
	return s.GetSalaryProfile(ctx, a, req.EmployeeID)
}

func mapToComponentResponse(c payroll.SalaryComponent) payroll.SalaryComponentResponse {
	return payroll.SalaryComponentResponse{
		ID:          c.ID,
		CompanyID:   c.CompanyID,
		Name:        c.Name,
		Type:        string(c.Type),
		AmountType:  string(c.AmountType),
		Amount:      c.Amount,
		Description: c.Description,
		IsActive:    c.IsActive,
	}
}

func mapToProfileResponse(p employee.SalaryProfile, assigned []payroll.EmployeeComponent) payroll.SalaryProfileResponse {
	components := make([]payroll.EmployeeComponentResponse, 0, len(assigned))
	for _, a := range assigned {
		effective := resolveOne(a)

		var customType *string
		if a.AmountType != nil {
			t := string(*a.AmountType)
			customType = &t
		}
		components = append(components, payroll.EmployeeComponentResponse{
			ComponentID:         a.ComponentID,
			Name:                a.Component.Name,
			Type:                string(a.Component.Type),
			DefaultAmountType:   string(a.Component.AmountType),
			DefaultAmount:       a.Component.Amount,
			CustomAmount:        a.CustomAmount,
			CustomAmountType:    customType,
			EffectiveAmount:     effective.Amount,
			EffectiveAmountType: string(effective.AmountType),
		})
	}

	return payroll.SalaryProfileResponse{
		EmployeeID:    p.EmployeeID,
		BaseSalary:    p.BaseSalary,
		SalaryType:    string(p.SalaryType),
		PaymentMethod: p.PaymentMethod,
		BankName:      p.BankName,
		AccountName:   p.AccountName,
		AccountNumber: p.AccountNumber,
		IBAN:          p.IBAN,
		Components:    components,
	}
}
