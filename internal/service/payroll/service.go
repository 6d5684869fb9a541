package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/spreadsheet"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	transactor    payroll.Transactor
	locker        lock.Locker
	componentRepo payroll.ComponentRepository
	runRepo       payroll.RunRepository
	employeeRepo  employee.EmployeeRepository
	loanRepo      loan.LoanRepository
	advanceRepo   advance.AdvanceRepository
	attendance    payroll.AttendanceDeductionSource
	notifier      payroll.PayslipNotifier
	ledger        *LedgerMutator
	txTimeout     time.Duration
	now           func() time.Time
}

func NewPayrollService(
	transactor payroll.Transactor,
	locker lock.Locker,
	componentRepo payroll.ComponentRepository,
	runRepo payroll.RunRepository,
	employeeRepo employee.EmployeeRepository,
	loanRepo loan.LoanRepository,
	advanceRepo advance.AdvanceRepository,
	attendance payroll.AttendanceDeductionSource,
	notifier payroll.PayslipNotifier,
	txTimeout time.Duration,
) payroll.PayrollService {
	if attendance == nil {
		attendance = NoAttendanceDeductions()
	}
	return &PayrollServiceImpl{
		transactor:    transactor,
		locker:        locker,
		componentRepo: componentRepo,
		runRepo:       runRepo,
		employeeRepo:  employeeRepo,
		loanRepo:      loanRepo,
		advanceRepo:   advanceRepo,
		attendance:    attendance,
		notifier:      notifier,
		ledger:        NewLedgerMutator(loanRepo, advanceRepo),
		txTimeout:     txTimeout,
		now:           time.Now,
	}
}

// withRunLock runs fn in one transaction while holding the scope lock, both bounded by the
// transaction timeout. Expiry rolls the whole transaction back.
func (s *PayrollServiceImpl) withRunLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	l, err := s.locker.Obtain(ctx, key)
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return payroll.ErrRunBusy
		}
		return fmt.Errorf("failed to obtain payroll lock: %w", err)
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			slog.Warn("failed to release payroll lock", "key", key, "error", err)
		}
	}()

	return s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.runRepo.LockScope(ctx, key); err != nil {
			return err
		}
		return fn(ctx)
	})
}

// ========== RUNS ==========

func (s *PayrollServiceImpl) GenerateRun(ctx context.Context, a actor.Actor, req payroll.GenerateRunRequest) (payroll.RunResponse, error) {
	if err := a.Authorize(true); err != nil {
		return payroll.RunResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	period := req.Period()
	key := payroll.ScopeLockKey(a.CompanyID, period, req.BranchID)

	var (
		runID     string
		itemCount int
	)
	err := s.withRunLock(ctx, key, func(ctx context.Context) error {
		run, err := s.runRepo.GetByScopeForUpdate(ctx, a.CompanyID, period, req.BranchID)
		switch {
		case errors.Is(err, payroll.ErrPayrollRunNotFound):
			run, err = s.runRepo.Create(ctx, payroll.Run{
				CompanyID:   a.CompanyID,
				PeriodMonth: period.Month,
				PeriodYear:  period.Year,
				BranchID:    req.BranchID,
				Status:      payroll.RunStatusDraft,
			})
			if err != nil {
				return fmt.Errorf("failed to create payroll run: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to get payroll run: %w", err)
		case run.Status.Locked():
			return payroll.ErrRunLocked
		case run.Status == payroll.RunStatusPendingApproval:
			run.Status = payroll.RunStatusDraft
			if run, err = s.runRepo.UpdateStatus(ctx, run); err != nil {
				return fmt.Errorf("failed to return payroll run to draft: %w", err)
			}
		}

		runID = run.ID
		itemCount, err = s.generateItems(ctx, run)
		return err
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	slog.Info("payroll run generated",
		"company_id", a.CompanyID,
		"run_id", runID,
		"period", period.String(),
		"items", itemCount,
		"attendance_source", s.attendance.Name(),
	)
	return s.runResponse(ctx, a.CompanyID, runID)
}

// generateItems recomputes every in-scope employee and overwrites their items. Items of
// employees no longer in scope are removed.
func (s *PayrollServiceImpl) generateItems(ctx context.Context, run payroll.Run) (int, error) {
	employees, err := s.employeeRepo.GetActiveForPayroll(ctx, run.CompanyID, run.BranchID)
	if err != nil {
		return 0, fmt.Errorf("failed to get employees: %w", err)
	}

	employeeIDs := make([]string, 0, len(employees))
	for _, e := range employees {
		employeeIDs = append(employeeIDs, e.ID)
	}

	if len(employeeIDs) > 0 {
		assigned, err := s.componentRepo.GetEmployeeComponents(ctx, run.CompanyID, employeeIDs)
		if err != nil {
			return 0, fmt.Errorf("failed to get employee components: %w", err)
		}
		loans, err := s.loanRepo.GetEligibleByEmployees(ctx, run.CompanyID, employeeIDs)
		if err != nil {
			return 0, fmt.Errorf("failed to get loans: %w", err)
		}
		advances, err := s.advanceRepo.GetDueByEmployees(ctx, run.CompanyID, run.PeriodMonth, run.PeriodYear, employeeIDs)
		if err != nil {
			return 0, fmt.Errorf("failed to get salary advances: %w", err)
		}
		attendance, err := s.attendance.Deductions(ctx, run.CompanyID, run.Period(), employeeIDs)
		if err != nil {
			return 0, fmt.Errorf("failed to get attendance deductions: %w", err)
		}

		for _, e := range employees {
			b := Calculate(Inputs{
				BaseSalary:       e.BasePay(),
				Components:       ResolveComponents(assigned[e.ID]),
				Loans:            loans[e.ID],
				Advances:         advances[e.ID],
				Attendance:       attendanceFor(attendance, e.ID),
				AttendanceSource: s.attendance.Name(),
			})
			_, err := s.runRepo.UpsertItem(ctx, payroll.Item{
				RunID:               run.ID,
				CompanyID:           run.CompanyID,
				EmployeeID:          e.ID,
				BaseSalary:          b.BaseSalary,
				TotalAllowances:     b.TotalAllowances,
				TotalDeductions:     b.TotalDeductions,
				LoanDeduction:       b.LoanDeduction,
				AdvanceDeduction:    b.AdvanceDeduction,
				AttendanceDeduction: b.AttendanceDeduction,
				Bonus:               decimal.Zero,
				NetSalary:           b.NetSalary,
				Snapshot:            b.Snapshot,
			})
			if err != nil {
				return 0, fmt.Errorf("failed to save payroll item for employee %s: %w", e.ID, err)
			}
			if b.NetSalary.IsNegative() {
				slog.Warn("payroll item has negative net salary",
					"company_id", run.CompanyID,
					"run_id", run.ID,
					"employee_id", e.ID,
					"net_salary", b.NetSalary.String(),
				)
			}
		}
	}

	if err := s.runRepo.DeleteItemsExcept(ctx, run.ID, run.CompanyID, employeeIDs); err != nil {
		return 0, err
	}
	return len(employees), nil
}

func attendanceFor(deductions map[string]decimal.Decimal, employeeID string) decimal.Decimal {
	if d, ok := deductions[employeeID]; ok {
		return d
	}
	return decimal.Zero
}

// transition moves a run between lifecycle states under the scope lock. apply mutates the
// locked run, or returns the error to abort with.
func (s *PayrollServiceImpl) transition(ctx context.Context, a actor.Actor, runID string, apply func(ctx context.Context, run *payroll.Run) error) error {
	run, err := s.runRepo.GetByID(ctx, runID, a.CompanyID)
	if err != nil {
		return err
	}

	return s.withRunLock(ctx, payroll.ScopeLockKey(run.CompanyID, run.Period(), run.BranchID), func(ctx context.Context) error {
		current, err := s.runRepo.GetByIDForUpdate(ctx, runID, a.CompanyID)
		if err != nil {
			return err
		}
		if err := apply(ctx, &current); err != nil {
			return err
		}
		_, err = s.runRepo.UpdateStatus(ctx, current)
		return err
	})
}

func (s *PayrollServiceImpl) SubmitRun(ctx context.Context, a actor.Actor, runID string) (payroll.RunResponse, error) {
	if err := a.Authorize(true); err != nil {
		return payroll.RunResponse{}, err
	}

	err := s.transition(ctx, a, runID, func(_ context.Context, run *payroll.Run) error {
		if run.Status != payroll.RunStatusDraft {
			return fmt.Errorf("%w: cannot submit a %s run", payroll.ErrInvalidTransition, run.Status)
		}
		run.Status = payroll.RunStatusPendingApproval
		return nil
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	slog.Info("payroll run submitted", "company_id", a.CompanyID, "run_id", runID, "user_id", a.UserID)
	return s.runResponse(ctx, a.CompanyID, runID)
}

func (s *PayrollServiceImpl) RejectRun(ctx context.Context, a actor.Actor, runID string) (payroll.RunResponse, error) {
	if err := a.Authorize(true); err != nil {
		return payroll.RunResponse{}, err
	}

	err := s.transition(ctx, a, runID, func(_ context.Context, run *payroll.Run) error {
		if run.Status != payroll.RunStatusPendingApproval {
			return fmt.Errorf("%w: cannot reject a %s run", payroll.ErrInvalidTransition, run.Status)
		}
		run.Status = payroll.RunStatusDraft
		return nil
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	slog.Info("payroll run rejected", "company_id", a.CompanyID, "run_id", runID, "user_id", a.UserID)
	return s.runResponse(ctx, a.CompanyID, runID)
}

func (s *PayrollServiceImpl) ApproveRun(ctx context.Context, a actor.Actor, runID string) (payroll.RunResponse, error) {
	if err := a.Authorize(true); err != nil {
		return payroll.RunResponse{}, err
	}

	var replayed int
	err := s.transition(ctx, a, runID, func(ctx context.Context, run *payroll.Run) error {
		if run.Status != payroll.RunStatusDraft && run.Status != payroll.RunStatusPendingApproval {
			return fmt.Errorf("%w: cannot approve a %s run", payroll.ErrInvalidTransition, run.Status)
		}

		items, err := s.runRepo.GetItems(ctx, run.ID, run.CompanyID)
		if err != nil {
			return fmt.Errorf("failed to get payroll items: %w", err)
		}
		if err := s.ledger.Replay(ctx, *run, items); err != nil {
			return err
		}
		replayed = len(items)

		processedBy := a.UserID
		processedAt := s.now()
		run.Status = payroll.RunStatusApproved
		run.ProcessedBy = &processedBy
		run.ProcessedAt = &processedAt
		return nil
	})
	if err != nil {
		return payroll.RunResponse{}, err
	}

	slog.Info("payroll run approved",
		"company_id", a.CompanyID,
		"run_id", runID,
		"user_id", a.UserID,
		"items", replayed,
	)
	return s.runResponse(ctx, a.CompanyID, runID)
}

func (s *PayrollServiceImpl) MarkItemPaid(ctx context.Context, a actor.Actor, runID string, itemID string) (payroll.MarkItemPaidResponse, error) {
	if err := a.Authorize(true); err != nil {
		return payroll.MarkItemPaidResponse{}, err
	}

	var (
		run  payroll.Run
		item payroll.Item
	)
	err := s.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		run, err = s.runRepo.GetByIDForUpdate(ctx, runID, a.CompanyID)
		if err != nil {
			return err
		}
		if _, err := s.runRepo.GetItem(ctx, runID, itemID, a.CompanyID); err != nil {
			return err
		}
		switch run.Status {
		case payroll.RunStatusApproved:
		case payroll.RunStatusPaid:
			return fmt.Errorf("%w: %w", payroll.ErrInvalidTransition, payroll.ErrItemAlreadyPaid)
		default:
			return fmt.Errorf("%w: items of a %s run cannot be paid", payroll.ErrInvalidTransition, run.Status)
		}

		item, err = s.runRepo.MarkItemPaid(ctx, runID, itemID, a.CompanyID, s.now())
		if err != nil {
			if errors.Is(err, payroll.ErrItemAlreadyPaid) {
				return fmt.Errorf("%w: %w", payroll.ErrInvalidTransition, err)
			}
			return err
		}

		unpaid, err := s.runRepo.CountUnpaidItems(ctx, runID, a.CompanyID)
		if err != nil {
			return err
		}
		if unpaid == 0 {
			run.Status = payroll.RunStatusPaid
			if run, err = s.runRepo.UpdateStatus(ctx, run); err != nil {
				return fmt.Errorf("failed to mark payroll run paid: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return payroll.MarkItemPaidResponse{}, err
	}

	slog.Info("payroll item paid",
		"company_id", a.CompanyID,
		"run_id", runID,
		"item_id", itemID,
		"run_status", string(run.Status),
	)

	resp := payroll.MarkItemPaidResponse{
		Item:      mapToItemResponse(item),
		RunStatus: string(run.Status),
	}
	if err := s.notify(ctx, run, item); err != nil {
		slog.Warn("payslip notification failed",
			"company_id", a.CompanyID,
			"run_id", runID,
			"item_id", itemID,
			"error", err,
		)
		warning := err.Error()
		resp.Warning = &warning
	}
	return resp, nil
}

// notify runs after the payment is committed; its result never changes payment state.
func (s *PayrollServiceImpl) notify(ctx context.Context, run payroll.Run, item payroll.Item) error {
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.Notify(ctx, run, item); err != nil {
		if errors.Is(err, payroll.ErrNotificationFailure) {
			return err
		}
		return fmt.Errorf("%w: %w", payroll.ErrNotificationFailure, err)
	}
	return nil
}

func (s *PayrollServiceImpl) GetRun(ctx context.Context, a actor.Actor, runID string) (payroll.RunResponse, error) {
	if err := a.Authorize(false); err != nil {
		return payroll.RunResponse{}, err
	}
	return s.runResponse(ctx, a.CompanyID, runID)
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context, a actor.Actor, filter payroll.RunFilter) (payroll.ListRunResponse, error) {
	if err := a.Authorize(false); err != nil {
		return payroll.ListRunResponse{}, err
	}
	filter.Normalize()

	runs, total, err := s.runRepo.List(ctx, a.CompanyID, filter)
	if err != nil {
		return payroll.ListRunResponse{}, err
	}

	data := make([]payroll.RunResponse, 0, len(runs))
	for _, r := range runs {
		data = append(data, mapToRunResponse(r))
	}
	return payroll.ListRunResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// loadRun returns the run with its items.
func (s *PayrollServiceImpl) loadRun(ctx context.Context, companyID, runID string) (payroll.Run, error) {
	run, err := s.runRepo.GetByID(ctx, runID, companyID)
	if err != nil {
		return payroll.Run{}, err
	}
	run.Items, err = s.runRepo.GetItems(ctx, runID, companyID)
	if err != nil {
		return payroll.Run{}, fmt.Errorf("failed to get payroll items: %w", err)
	}
	return run, nil
}

func (s *PayrollServiceImpl) runResponse(ctx context.Context, companyID, runID string) (payroll.RunResponse, error) {
	run, err := s.loadRun(ctx, companyID, runID)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	resp := mapToRunResponse(run)
	summary := summarize(run.Items)
	resp.Summary = &summary
	resp.Items = make([]payroll.ItemResponse, 0, len(run.Items))
	for _, item := range run.Items {
		resp.Items = append(resp.Items, mapToItemResponse(item))
	}
	return resp, nil
}

// ========== DOCUMENTS ==========

func (s *PayrollServiceImpl) ExportRun(ctx context.Context, a actor.Actor, runID string) ([]byte, string, error) {
	if err := a.Authorize(false); err != nil {
		return nil, "", err
	}

	run, err := s.loadRun(ctx, a.CompanyID, runID)
	if err != nil {
		return nil, "", err
	}
	data, err := spreadsheet.RunRegister(run)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render payroll register: %w", err)
	}
	return data, spreadsheet.RegisterFilename(run), nil
}

func (s *PayrollServiceImpl) DownloadPayslip(ctx context.Context, a actor.Actor, runID string, itemID string) ([]byte, string, error) {
	if err := a.Authorize(false); err != nil {
		return nil, "", err
	}

	run, err := s.runRepo.GetByID(ctx, runID, a.CompanyID)
	if err != nil {
		return nil, "", err
	}
	item, err := s.runRepo.GetItem(ctx, runID, itemID, a.CompanyID)
	if err != nil {
		return nil, "", err
	}
	data, err := spreadsheet.Payslip(run, item)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render payslip: %w", err)
	}
	return data, spreadsheet.PayslipFilename(run, item), nil
}

// ========== HELPERS ==========

func summarize(items []payroll.Item) payroll.RunSummary {
	sum := payroll.RunSummary{
		TotalEmployees:  len(items),
		TotalBaseSalary: decimal.Zero,
		TotalAllowances: decimal.Zero,
		TotalDeductions: decimal.Zero,
		TotalNetSalary:  decimal.Zero,
	}
	for _, item := range items {
		sum.TotalBaseSalary = sum.TotalBaseSalary.Add(item.BaseSalary)
		sum.TotalAllowances = sum.TotalAllowances.Add(item.TotalAllowances)
		sum.TotalDeductions = sum.TotalDeductions.Add(item.TotalCuts())
		sum.TotalNetSalary = sum.TotalNetSalary.Add(item.NetSalary)
		if item.PaymentStatus == payroll.PaymentStatusPaid {
			sum.PaidCount++
		}
		if item.NetSalary.IsNegative() {
			sum.NegativeNet++
		}
	}
	return sum
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	str := t.Format(time.RFC3339)
	return &str
}

func mapToRunResponse(r payroll.Run) payroll.RunResponse {
	return payroll.RunResponse{
		ID:          r.ID,
		CompanyID:   r.CompanyID,
		PeriodMonth: r.PeriodMonth,
		PeriodYear:  r.PeriodYear,
		BranchID:    r.BranchID,
		Status:      string(r.Status),
		ProcessedBy: r.ProcessedBy,
		ProcessedAt: formatTime(r.ProcessedAt),
	}
}

func mapToItemResponse(i payroll.Item) payroll.ItemResponse {
	employeeName := ""
	employeeCode := ""
	if i.EmployeeName != nil {
		employeeName = *i.EmployeeName
	}
	if i.EmployeeCode != nil {
		employeeCode = *i.EmployeeCode
	}

	return payroll.ItemResponse{
		ID:                  i.ID,
		RunID:               i.RunID,
		EmployeeID:          i.EmployeeID,
		EmployeeName:        employeeName,
		EmployeeCode:        employeeCode,
		BaseSalary:          i.BaseSalary,
		TotalAllowances:     i.TotalAllowances,
		TotalDeductions:     i.TotalDeductions,
		LoanDeduction:       i.LoanDeduction,
		AdvanceDeduction:    i.AdvanceDeduction,
		AttendanceDeduction: i.AttendanceDeduction,
		Bonus:               i.Bonus,
		NetSalary:           i.NetSalary,
		Snapshot:            i.Snapshot,
		PaymentStatus:       string(i.PaymentStatus),
		PaidAt:              formatTime(i.PaidAt),
	}
}
