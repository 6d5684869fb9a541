package loan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/email"
	"github.com/shopspring/decimal"
)

type LoanServiceImpl struct {
	loanRepo     loan.LoanRepository
	employeeRepo employee.EmployeeRepository
	emailService email.EmailService
}

func NewLoanService(loanRepo loan.LoanRepository, employeeRepo employee.EmployeeRepository, emailService email.EmailService) loan.LoanService {
	return &LoanServiceImpl{
		loanRepo:     loanRepo,
		employeeRepo: employeeRepo,
		emailService: emailService,
	}
}

// MonthlyInstallment splits the principal evenly, rounding up to the cent so the loan
// is repaid within its installment count.
func MonthlyInstallment(amount decimal.Decimal, installments int) decimal.Decimal {
	return amount.Div(decimal.NewFromInt(int64(installments))).RoundCeil(2)
}

func (s *LoanServiceImpl) Create(ctx context.Context, a actor.Actor, req loan.CreateLoanRequest) (loan.LoanResponse, error) {
	if err := a.Authorize(false); err != nil {
		return loan.LoanResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return loan.LoanResponse{}, err
	}

	created, err := s.loanRepo.Create(ctx, loan.Loan{
		CompanyID:          a.CompanyID,
		EmployeeID:         req.EmployeeID,
		Amount:             req.Amount,
		Installments:       req.Installments,
		MonthlyInstallment: MonthlyInstallment(req.Amount, req.Installments),
		RemainingBalance:   req.Amount,
		Status:             loan.LoanStatusPending,
		Reason:             req.Reason,
	})
	if err != nil {
		return loan.LoanResponse{}, err
	}

	slog.Info("loan requested", "company_id", a.CompanyID, "loan_id", created.ID, "employee_id", created.EmployeeID)
	return mapToLoanResponse(created), nil
}

func (s *LoanServiceImpl) Get(ctx context.Context, a actor.Actor, id string) (loan.LoanDetailResponse, error) {
	if err := a.Authorize(false); err != nil {
		return loan.LoanDetailResponse{}, err
	}

	l, err := s.loanRepo.GetByID(ctx, id, a.CompanyID)
	if err != nil {
		return loan.LoanDetailResponse{}, err
	}
	repayments, err := s.loanRepo.GetRepayments(ctx, id, a.CompanyID)
	if err != nil {
		return loan.LoanDetailResponse{}, fmt.Errorf("failed to get loan repayments: %w", err)
	}

	resp := loan.LoanDetailResponse{
		LoanResponse: mapToLoanResponse(l),
		Repayments:   make([]loan.RepaymentResponse, 0, len(repayments)),
	}
	for _, r := range repayments {
		resp.Repayments = append(resp.Repayments, loan.RepaymentResponse{
			ID:            r.ID,
			LoanID:        r.LoanID,
			PayrollItemID: r.PayrollItemID,
			Amount:        r.Amount,
			RepaymentDate: r.RepaymentDate.Format("2006-01-02"),
			Notes:         r.Notes,
		})
	}
	return resp, nil
}

func (s *LoanServiceImpl) List(ctx context.Context, a actor.Actor, filter loan.LoanFilter) ([]loan.LoanResponse, error) {
	if err := a.Authorize(false); err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.List(ctx, a.CompanyID, filter)
	if err != nil {
		return nil, err
	}

	result := make([]loan.LoanResponse, 0, len(loans))
	for _, l := range loans {
		result = append(result, mapToLoanResponse(l))
	}
	return result, nil
}

func (s *LoanServiceImpl) Approve(ctx context.Context, a actor.Actor, id string) (loan.LoanResponse, error) {
	if err := a.Authorize(true); err != nil {
		return loan.LoanResponse{}, err
	}

	approved, err := s.loanRepo.Approve(ctx, id, a.CompanyID)
	if err != nil {
		return loan.LoanResponse{}, err
	}

	slog.Info("loan approved", "company_id", a.CompanyID, "loan_id", id, "user_id", a.UserID)
	s.notifyStatus(ctx, approved)
	return mapToLoanResponse(approved), nil
}

func (s *LoanServiceImpl) Reject(ctx context.Context, a actor.Actor, req loan.RejectLoanRequest) (loan.LoanResponse, error) {
	if err := a.Authorize(true); err != nil {
		return loan.LoanResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return loan.LoanResponse{}, err
	}

	rejected, err := s.loanRepo.Reject(ctx, req.ID, a.CompanyID, req.RejectionReason)
	if err != nil {
		return loan.LoanResponse{}, err
	}

	slog.Info("loan rejected", "company_id", a.CompanyID, "loan_id", req.ID, "user_id", a.UserID)
	s.notifyStatus(ctx, rejected)
	return mapToLoanResponse(rejected), nil
}

// Repay records a manual repayment outside payroll.
func (s *LoanServiceImpl) Repay(ctx context.Context, a actor.Actor, req loan.RepayLoanRequest) (loan.LoanResponse, error) {
	if err := a.Authorize(true); err != nil {
		return loan.LoanResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return loan.LoanResponse{}, err
	}

	repaymentDate, err := time.Parse("2006-01-02", req.RepaymentDate)
	if err != nil {
		return loan.LoanResponse{}, fmt.Errorf("invalid repayment_date: %w", err)
	}

	updated, err := s.loanRepo.ApplyRepayment(ctx, a.CompanyID, loan.Repayment{
		LoanID:        req.ID,
		Amount:        req.Amount,
		RepaymentDate: repaymentDate,
		Notes:         req.Notes,
	})
	if err != nil {
		return loan.LoanResponse{}, err
	}

	slog.Info("loan repayment recorded",
		"company_id", a.CompanyID,
		"loan_id", req.ID,
		"amount", req.Amount.String(),
		"remaining_balance", updated.RemainingBalance.String(),
	)
	if updated.Status == loan.LoanStatusPaid {
		s.notifyStatus(ctx, updated)
	}
	return mapToLoanResponse(updated), nil
}

// notifyStatus emails the employee about a loan status change. Failures are only logged.
func (s *LoanServiceImpl) notifyStatus(ctx context.Context, l loan.Loan) {
	if s.emailService == nil {
		return
	}
	emp, err := s.employeeRepo.GetByID(ctx, l.EmployeeID, l.CompanyID)
	if err != nil || emp.Email == nil || *emp.Email == "" {
		return
	}

	reason := ""
	if l.RejectionReason != nil {
		reason = *l.RejectionReason
	}
	err = s.emailService.SendLoanStatusChanged(*emp.Email, email.LoanStatusEmail{
		EmployeeName:       emp.FullName,
		Amount:             l.Amount.StringFixed(2),
		MonthlyInstallment: l.MonthlyInstallment.StringFixed(2),
		RemainingBalance:   l.RemainingBalance.StringFixed(2),
		Status:             string(l.Status),
		Reason:             reason,
	})
	if err != nil {
		slog.Warn("failed to send loan status email", "loan_id", l.ID, "error", err)
	}
}

func mapToLoanResponse(l loan.Loan) loan.LoanResponse {
	var approvedAt *string
	if l.ApprovedAt != nil {
		str := l.ApprovedAt.Format(time.RFC3339)
		approvedAt = &str
	}

	employeeName := ""
	if l.EmployeeName != nil {
		employeeName = *l.EmployeeName
	}

	return loan.LoanResponse{
		ID:                 l.ID,
		EmployeeID:         l.EmployeeID,
		EmployeeName:       employeeName,
		Amount:             l.Amount,
		Installments:       l.Installments,
		MonthlyInstallment: l.MonthlyInstallment,
		RemainingBalance:   l.RemainingBalance,
		Status:             string(l.Status),
		Reason:             l.Reason,
		RejectionReason:    l.RejectionReason,
		ApprovedAt:         approvedAt,
		CreatedAt:          l.CreatedAt.Format(time.RFC3339),
	}
}
