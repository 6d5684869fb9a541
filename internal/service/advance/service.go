package advance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/email"
)

type AdvanceServiceImpl struct {
	advanceRepo  advance.AdvanceRepository
	employeeRepo employee.EmployeeRepository
	emailService email.EmailService
}

func NewAdvanceService(advanceRepo advance.AdvanceRepository, employeeRepo employee.EmployeeRepository, emailService email.EmailService) advance.AdvanceService {
	return &AdvanceServiceImpl{
		advanceRepo:  advanceRepo,
		employeeRepo: employeeRepo,
		emailService: emailService,
	}
}

func (s *AdvanceServiceImpl) Create(ctx context.Context, a actor.Actor, req advance.CreateAdvanceRequest) (advance.AdvanceResponse, error) {
	if err := a.Authorize(false); err != nil {
		return advance.AdvanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return advance.AdvanceResponse{}, err
	}

	var repaymentDate *time.Time
	if req.RepaymentDate != nil {
		d, err := time.Parse("2006-01-02", *req.RepaymentDate)
		if err != nil {
			return advance.AdvanceResponse{}, fmt.Errorf("invalid repayment_date: %w", err)
		}
		repaymentDate = &d
	}

	created, err := s.advanceRepo.Create(ctx, advance.SalaryAdvance{
		CompanyID:     a.CompanyID,
		EmployeeID:    req.EmployeeID,
		Amount:        req.Amount,
		Reason:        req.Reason,
		Status:        advance.AdvanceStatusPending,
		RepaymentDate: repaymentDate,
	})
	if err != nil {
		return advance.AdvanceResponse{}, err
	}

	slog.Info("salary advance requested", "company_id", a.CompanyID, "advance_id", created.ID, "employee_id", created.EmployeeID)
	return mapToAdvanceResponse(created), nil
}

func (s *AdvanceServiceImpl) Get(ctx context.Context, a actor.Actor, id string) (advance.AdvanceResponse, error) {
	if err := a.Authorize(false); err != nil {
		return advance.AdvanceResponse{}, err
	}

	found, err := s.advanceRepo.GetByID(ctx, id, a.CompanyID)
	if err != nil {
		return advance.AdvanceResponse{}, err
	}
	return mapToAdvanceResponse(found), nil
}

func (s *AdvanceServiceImpl) List(ctx context.Context, a actor.Actor, filter advance.AdvanceFilter) ([]advance.AdvanceResponse, error) {
	if err := a.Authorize(false); err != nil {
		return nil, err
	}

	advances, err := s.advanceRepo.List(ctx, a.CompanyID, filter)
	if err != nil {
		return nil, err
	}

	result := make([]advance.AdvanceResponse, 0, len(advances))
	for _, adv := range advances {
		result = append(result, mapToAdvanceResponse(adv))
	}
	return result, nil
}

func (s *AdvanceServiceImpl) Approve(ctx context.Context, a actor.Actor, id string) (advance.AdvanceResponse, error) {
	if err := a.Authorize(true); err != nil {
		return advance.AdvanceResponse{}, err
	}

	approved, err := s.advanceRepo.Approve(ctx, id, a.CompanyID, a.UserID)
	if err != nil {
		return advance.AdvanceResponse{}, err
	}
	if approved.RepaymentDate == nil {
		slog.Warn("approved salary advance has no repayment date and will not be deducted by payroll",
			"company_id", a.CompanyID,
			"advance_id", id,
		)
	}

	slog.Info("salary advance approved", "company_id", a.CompanyID, "advance_id", id, "user_id", a.UserID)
	s.notifyStatus(ctx, approved)
	return mapToAdvanceResponse(approved), nil
}

func (s *AdvanceServiceImpl) Reject(ctx context.Context, a actor.Actor, req advance.RejectAdvanceRequest) (advance.AdvanceResponse, error) {
	if err := a.Authorize(true); err != nil {
		return advance.AdvanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return advance.AdvanceResponse{}, err
	}

	rejected, err := s.advanceRepo.Reject(ctx, req.ID, a.CompanyID, req.RejectionReason)
	if err != nil {
		return advance.AdvanceResponse{}, err
	}

	slog.Info("salary advance rejected", "company_id", a.CompanyID, "advance_id", req.ID, "user_id", a.UserID)
	s.notifyStatus(ctx, rejected)
	return mapToAdvanceResponse(rejected), nil
}

func (s *AdvanceServiceImpl) notifyStatus(ctx context.Context, adv advance.SalaryAdvance) {
	if s.emailService == nil {
		return
	}
	emp, err := s.employeeRepo.GetByID(ctx, adv.EmployeeID, adv.CompanyID)
	if err != nil || emp.Email == nil || *emp.Email == "" {
		return
	}

	data := email.AdvanceStatusEmail{
		EmployeeName: emp.FullName,
		Amount:       adv.Amount.StringFixed(2),
		Status:       string(adv.Status),
	}
	if adv.RepaymentDate != nil {
		data.RepaymentDate = adv.RepaymentDate.Format("2006-01-02")
	}
	if adv.RejectionReason != nil {
		data.Reason = *adv.RejectionReason
	}
	if err := s.emailService.SendAdvanceStatusChanged(*emp.Email, data); err != nil {
		slog.Warn("failed to send salary advance status email", "advance_id", adv.ID, "error", err)
	}
}

func formatTime(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	str := t.Format(layout)
	return &str
}

func mapToAdvanceResponse(a advance.SalaryAdvance) advance.AdvanceResponse {
	employeeName := ""
	if a.EmployeeName != nil {
		employeeName = *a.EmployeeName
	}

	return advance.AdvanceResponse{
		ID:              a.ID,
		EmployeeID:      a.EmployeeID,
		EmployeeName:    employeeName,
		Amount:          a.Amount,
		Reason:          a.Reason,
		Status:          string(a.Status),
		RepaymentDate:   formatTime(a.RepaymentDate, "2006-01-02"),
		ApprovedAt:      formatTime(a.ApprovedAt, time.RFC3339),
		RejectionReason: a.RejectionReason,
		SettledAt:       formatTime(a.SettledAt, time.RFC3339),
		SettledRunID:    a.SettledRunID,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
}
