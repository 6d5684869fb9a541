package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompanyID = "company-1"

var manager = actor.Actor{CompanyID: testCompanyID, UserID: "user-manager", Role: actor.RoleManager}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *fakeNotifier) Notify(_ context.Context, _ payroll.Run, item payroll.Item) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, item.ID)
	return n.err
}

// failingLoans fails the nth payroll repayment, after letting the earlier ones through.
type failingLoans struct {
	loan.LoanRepository
	failOn int
	calls  int
}

func (f *failingLoans) ApplyRepayment(ctx context.Context, companyID string, r loan.Repayment) (loan.Loan, error) {
	f.calls++
	if f.calls == f.failOn {
		return loan.Loan{}, errors.New("ledger unavailable")
	}
	return f.LoanRepository.ApplyRepayment(ctx, companyID, r)
}

type harness struct {
	store      *memory.Store
	locker     *lock.LocalLocker
	loans      loan.LoanRepository
	advances   advance.AdvanceRepository
	runs       payroll.RunRepository
	notifier   *fakeNotifier
	attendance payroll.AttendanceDeductionSource
	txTimeout  time.Duration
	svc        payroll.PayrollService
}

type option func(h *harness)

func withLoanRepo(wrap func(loan.LoanRepository) loan.LoanRepository) option {
	return func(h *harness) { h.loans = wrap(h.loans) }
}

func withTableAttendance() option {
	return func(h *harness) { h.attendance = memory.NewAttendanceDeductionSource(h.store) }
}

func withTxTimeout(d time.Duration) option {
	return func(h *harness) { h.txTimeout = d }
}

func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()
	store := memory.NewStore()
	h := &harness{
		store:     store,
		locker:    lock.NewLocalLocker(),
		loans:     memory.NewLoanRepository(store),
		advances:  memory.NewAdvanceRepository(store),
		runs:      memory.NewRunRepository(store),
		notifier:  &fakeNotifier{},
		txTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.svc = NewPayrollService(
		store.Transactor(),
		h.locker,
		memory.NewComponentRepository(store),
		h.runs,
		memory.NewEmployeeRepository(store),
		h.loans,
		h.advances,
		h.attendance,
		h.notifier,
		h.txTimeout,
	)
	return h
}

func (h *harness) addEmployee(t *testing.T, id string, base string, branchID *string) {
	t.Helper()
	email := id + "@example.com"
	h.store.AddEmployee(employee.Employee{
		ID:               id,
		CompanyID:        testCompanyID,
		BranchID:         branchID,
		EmployeeCode:     id,
		FullName:         "Employee " + id,
		Email:            &email,
		EmploymentStatus: employee.EmploymentStatusActive,
		Salary:           d(base),
	})
}

// standardComponents creates a fixed 200 allowance and a 10% deduction and assigns both.
func (h *harness) assignStandardComponents(t *testing.T, employeeID string, base string) {
	t.Helper()
	ctx := context.Background()

	transport, err := h.svc.CreateComponent(ctx, manager, payroll.CreateSalaryComponentRequest{
		Name: "Transport " + employeeID, Type: "allowance", AmountType: "fixed", Amount: d("200"),
	})
	require.NoError(t, err)
	pension, err := h.svc.CreateComponent(ctx, manager, payroll.CreateSalaryComponentRequest{
		Name: "Pension " + employeeID, Type: "deduction", AmountType: "percent", Amount: d("10"),
	})
	require.NoError(t, err)

	_, err = h.svc.UpsertSalaryProfile(ctx, manager, payroll.UpsertSalaryProfileRequest{
		EmployeeID: employeeID,
		BaseSalary: d(base),
		SalaryType: "monthly",
		Components: []payroll.ComponentAssignment{
			{ComponentID: transport.ID},
			{ComponentID: pension.ID},
		},
	})
	require.NoError(t, err)
}

func (h *harness) addLoan(t *testing.T, employeeID, installment, balance string) loan.Loan {
	t.Helper()
	l, err := h.loans.Create(context.Background(), loan.Loan{
		CompanyID:          testCompanyID,
		EmployeeID:         employeeID,
		Amount:             d(balance),
		Installments:       1,
		MonthlyInstallment: d(installment),
		RemainingBalance:   d(balance),
		Status:             loan.LoanStatusApproved,
	})
	require.NoError(t, err)
	return l
}

func (h *harness) generate(t *testing.T, month, year int) payroll.RunResponse {
	t.Helper()
	run, err := h.svc.GenerateRun(context.Background(), manager, payroll.GenerateRunRequest{PeriodMonth: month, PeriodYear: year})
	require.NoError(t, err)
	return run
}

func itemFor(t *testing.T, run payroll.RunResponse, employeeID string) payroll.ItemResponse {
	t.Helper()
	for _, item := range run.Items {
		if item.EmployeeID == employeeID {
			return item
		}
	}
	require.FailNow(t, "no item for employee", employeeID)
	return payroll.ItemResponse{}
}

func snapshotJSON(t *testing.T, items []payroll.ItemResponse) map[string]string {
	t.Helper()
	out := make(map[string]string, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item.Snapshot)
		require.NoError(t, err)
		out[item.ID] = string(raw)
	}
	return out
}

// ===== GENERATION =====

func TestGenerateRun_ComputesStandardScenario(t *testing.T) {
	h := newHarness(t)
	h.addEmployee(t, "emp-1", "3000", nil)
	h.assignStandardComponents(t, "emp-1", "3000")
	h.addLoan(t, "emp-1", "100", "150")

	run := h.generate(t, 3, 2025)

	assert.Equal(t, string(payroll.RunStatusDraft), run.Status)
	require.Len(t, run.Items, 1)
	item := run.Items[0]
	assert.True(t, item.BaseSalary.Equal(d("3000")))
	assert.True(t, item.TotalAllowances.Equal(d("200")))
	assert.True(t, item.TotalDeductions.Equal(d("300")))
	assert.True(t, item.LoanDeduction.Equal(d("100")))
	assert.True(t, item.NetSalary.Equal(d("2800")), item.NetSalary.String())
	assert.Equal(t, "Employee emp-1", item.EmployeeName)
	assert.Equal(t, string(payroll.PaymentStatusUnpaid), item.PaymentStatus)

	require.NotNil(t, run.Summary)
	assert.Equal(t, 1, run.Summary.TotalEmployees)
	assert.True(t, run.Summary.TotalNetSalary.Equal(d("2800")))
}

func TestGenerateRun_FallsBackToRawSalaryWithoutProfile(t *testing.T) {
	h := newHarness(t)
	h.addEmployee(t, "emp-1", "1800", nil)

	run := h.generate(t, 1, 2025)

	require.Len(t, run.Items, 1)
	assert.True(t, run.Items[0].NetSalary.Equal(d("1800")))
}

func TestGenerateRun_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.addEmployee(t, "emp-1", "3000", nil)
	h.addEmployee(t, "emp-2", "2500", nil)
	h.assignStandardComponents(t, "emp-1", "3000")
	h.addLoan(t, "emp-2", "100", "1000")

	first := h.generate(t, 3, 2025)
	second := h.generate(t, 3, 2025)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Items, 2)
	assert.Equal(t, snapshotJSON(t, first.Items), snapshotJSON(t, second.Items))

	list, err := h.svc.ListRuns(context.Background(), manager, payroll.RunFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.TotalCount)
}

func TestGenerateRun_RemovesItemsOfEmployeesLeavingScope(t *testing.T) {
	h := newHarness(t)
	h.addEmployee(t, "emp-1", "3000", nil)
	h.addEmployee(t, "emp-2", "2500", nil)

	first := h.generate(t, 4, 2025)
	require.Len(t, first.Items, 2)

	h.store.SetEmploymentStatus("emp-2", employee.EmploymentStatusResigned)
	second := h.generate(t, 4, 2025)

	require.Len(t, second.Items, 1)
	assert.Equal(t, "emp-1", second.Items[0].EmployeeID)
}

func TestGenerateRun_ZeroEmployeesYieldsEmptyRun(t *testing.T) {
	h := newHarness(t)

	run := h.generate(t, 5, 2025)

	assert.NotEmpty(t, run.ID)
	assert.Empty(t, run.Items)
	require.NotNil(t, run.Summary)
	assert.Zero(t, run.Summary.TotalEmployees)
}

func TestGenerateRun_ScopesToBranch(t *testing.T) {
	h := newHarness(t)
	branch := uuid.NewString()
	h.addEmployee(t, "emp-1", "3000", &branch)
	h.addEmployee(t, "emp-2", "2500", nil)

	branchRun, err := h.svc.GenerateRun(context.Background(), manager, payroll.GenerateRunRequest{PeriodMonth: 6, PeriodYear: 2025, BranchID: &branch})
	require.NoError(t, err)
	companyRun := h.generate(t, 6, 2025)

	assert.NotEqual(t, branchRun.ID, companyRun.ID)
	require.Len(t, branchRun.Items, 1)
	assert.Equal(t, "emp-1", branchRun.Items[0].EmployeeID)
	assert.Len(t, companyRun.Items, 2)
}

func TestGenerateRun_UsesAttendanceSource(t *testing.T) {
	h := newHarness(t, withTableAttendance())
	h.addEmployee(t, "emp-1", "3000", nil)
	h.store.SetAttendanceDeduction(testCompanyID, "emp-1", payroll.Period{Month: 7, Year: 2025}, d("75.50"))

	run := h.generate(t, 7, 2025)

	item := itemFor(t, run, "emp-1")
	assert.True(t, item.AttendanceDeduction.Equal(d("75.50")))
	assert.True(t, item.NetSalary.Equal(d("2924.50")))
	assert.Equal(t, "table", item.Snapshot.Attendance.Source)
}

func TestGenerateRun_RejectsInvalidPeriod(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.GenerateRun(context.Background(), manager, payroll.GenerateRunRequest{PeriodMonth: 13, PeriodYear: 2025})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "period_month")
}

func TestGenerateRun_RequiresManager(t *testing.T) {
	h := newHarness(t)
	employeeActor := actor.Actor{CompanyID: testCompanyID, UserID: "user-2", Role: actor.RoleEmployee}

	_, err := h.svc.GenerateRun(context.Background(), employeeActor, payroll.GenerateRunRequest{PeriodMonth: 1, PeriodYear: 2025})

	assert.ErrorIs(t, err, actor.ErrForbidden)
}

func TestGenerateRun_BusyScopeTimesOut(t *testing.T) {
	h := newHarness(t, withTxTimeout(50*time.Millisecond))
	ctx := context.Background()

	held, err := h.locker.Obtain(ctx, payroll.ScopeLockKey(testCompanyID, payroll.Period{Month: 8, Year: 2025}, nil))
	require.NoError(t, err)
	defer held.Release(ctx)

	_, err = h.svc.GenerateRun(ctx, manager, payroll.GenerateRunRequest{PeriodMonth: 8, PeriodYear: 2025})

	assert.ErrorIs(t, err, payroll.ErrRunBusy)
}

func TestGenerateRun_ConcurrentCallsProduceOneRun(t *testing.T) {
	h := newHarness(t)
	for _, id := range []string{"emp-1", "emp-2", "emp-3"} {
		h.addEmployee(t, id, "1000", nil)
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.GenerateRun(context.Background(), manager, payroll.GenerateRunRequest{PeriodMonth: 9, PeriodYear: 2025})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	list, err := h.svc.ListRuns(context.Background(), manager, payroll.RunFilter{})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)

	run, err := h.svc.GetRun(context.Background(), manager, list.Data[0].ID)
	require.NoError(t, err)
	assert.Len(t, run.Items, 3)
}

// ===== LIFECYCLE =====

func TestApproveRun_ReplaysLedgerExactlyOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)
	l := h.addLoan(t, "emp-1", "100", "1000")

	run := h.generate(t, 3, 2025)
	approved, err := h.svc.ApproveRun(ctx, manager, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusApproved), approved.Status)
	require.NotNil(t, approved.ProcessedBy)
	assert.Equal(t, manager.UserID, *approved.ProcessedBy)
	assert.NotNil(t, approved.ProcessedAt)

	_, err = h.svc.ApproveRun(ctx, manager, run.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	updated, err := h.loans.GetByID(ctx, l.ID, testCompanyID)
	require.NoError(t, err)
	assert.True(t, updated.RemainingBalance.Equal(d("900")), updated.RemainingBalance.String())

	repayments, err := h.loans.GetRepayments(ctx, l.ID, testCompanyID)
	require.NoError(t, err)
	require.Len(t, repayments, 1)
	require.NotNil(t, repayments[0].PayrollItemID)
	assert.Equal(t, run.Items[0].ID, *repayments[0].PayrollItemID)
}

func TestApproveRun_CappedLoanBecomesPaid(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)
	h.assignStandardComponents(t, "emp-1", "3000")
	l := h.addLoan(t, "emp-1", "100", "50")

	run := h.generate(t, 3, 2025)
	assert.True(t, run.Items[0].LoanDeduction.Equal(d("50")))

	_, err := h.svc.ApproveRun(ctx, manager, run.ID)
	require.NoError(t, err)

	updated, err := h.loans.GetByID(ctx, l.ID, testCompanyID)
	require.NoError(t, err)
	assert.True(t, updated.RemainingBalance.IsZero(), updated.RemainingBalance.String())
	assert.Equal(t, loan.LoanStatusPaid, updated.Status)
}

func TestApproveRun_HonorsSnapshotNotCurrentState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)
	h.assignStandardComponents(t, "emp-1", "3000")
	l := h.addLoan(t, "emp-1", "100", "1000")

	run := h.generate(t, 3, 2025)

	// Inputs change after generation; approval must replay what was shown.
	_, err := h.svc.UpsertSalaryProfile(ctx, manager, payroll.UpsertSalaryProfileRequest{
		EmployeeID: "emp-1", BaseSalary: d("5000"), SalaryType: "monthly",
	})
	require.NoError(t, err)
	_, err = h.loans.ApplyRepayment(ctx, testCompanyID, loan.Repayment{LoanID: l.ID, Amount: d("950"), RepaymentDate: time.Now()})
	require.NoError(t, err)

	approved, err := h.svc.ApproveRun(ctx, manager, run.ID)
	require.NoError(t, err)

	item := itemFor(t, approved, "emp-1")
	assert.True(t, item.BaseSalary.Equal(d("3000")))
	assert.True(t, item.NetSalary.Equal(d("2800")))

	updated, err := h.loans.GetByID(ctx, l.ID, testCompanyID)
	require.NoError(t, err)
	assert.True(t, updated.RemainingBalance.Equal(d("-50")), updated.RemainingBalance.String())
	assert.Equal(t, loan.LoanStatusPaid, updated.Status)
}

func TestApproveRun_FailureRollsBackEverything(t *testing.T) {
	var wrapped *failingLoans
	h := newHarness(t, withLoanRepo(func(inner loan.LoanRepository) loan.LoanRepository {
		wrapped = &failingLoans{LoanRepository: inner, failOn: 2}
		return wrapped
	}))
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)
	h.addEmployee(t, "emp-2", "3000", nil)
	first := h.addLoan(t, "emp-1", "100", "1000")
	second := h.addLoan(t, "emp-2", "100", "1000")

	run := h.generate(t, 3, 2025)
	_, err := h.svc.ApproveRun(ctx, manager, run.ID)
	require.Error(t, err)
	assert.Equal(t, 2, wrapped.calls)

	after, err := h.svc.GetRun(ctx, manager, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusDraft), after.Status)

	for _, id := range []string{first.ID, second.ID} {
		l, err := h.loans.GetByID(ctx, id, testCompanyID)
		require.NoError(t, err)
		assert.True(t, l.RemainingBalance.Equal(d("1000")), l.RemainingBalance.String())

		repayments, err := h.loans.GetRepayments(ctx, id, testCompanyID)
		require.NoError(t, err)
		assert.Empty(t, repayments)
	}
}

func TestGenerateRun_LockedAfterApproval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)

	run := h.generate(t, 3, 2025)
	_, err := h.svc.ApproveRun(ctx, manager, run.ID)
	require.NoError(t, err)

	_, err = h.svc.GenerateRun(ctx, manager, payroll.GenerateRunRequest{PeriodMonth: 3, PeriodYear: 2025})
	assert.ErrorIs(t, err, payroll.ErrRunLocked)
}

func TestLoanAmortizesToExactlyZero(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)
	l := h.addLoan(t, "emp-1", "333.34", "1000")

	for month := 1; month <= 4; month++ {
		run := h.generate(t, month, 2025)
		if month == 4 {
			assert.True(t, run.Items[0].LoanDeduction.IsZero())
			assert.Empty(t, run.Items[0].Snapshot.Loans)
		}
		_, err := h.svc.ApproveRun(ctx, manager, run.ID)
		require.NoError(t, err)
	}

	updated, err := h.loans.GetByID(ctx, l.ID, testCompanyID)
	require.NoError(t, err)
	assert.True(t, updated.RemainingBalance.IsZero(), updated.RemainingBalance.String())
	assert.Equal(t, loan.LoanStatusPaid, updated.Status)

	repayments, err := h.loans.GetRepayments(ctx, l.ID, testCompanyID)
	require.NoError(t, err)
	total := decimal.Zero
	for _, r := range repayments {
		total = total.Add(r.Amount)
	}
	assert.Len(t, repayments, 3)
	assert.True(t, total.Equal(d("1000")), total.String())
}

func TestApproveRun_SettlesDueAdvanceOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	branch := uuid.NewString()
	h.addEmployee(t, "emp-1", "3000", &branch)
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	adv, err := h.advances.Create(ctx, advance.SalaryAdvance{
		CompanyID: testCompanyID, EmployeeID: "emp-1", Amount: d("400"),
		Status: advance.AdvanceStatusApproved, RepaymentDate: &due,
	})
	require.NoError(t, err)

	feb := h.generate(t, 2, 2025)
	assert.True(t, feb.Items[0].AdvanceDeduction.IsZero())

	mar := h.generate(t, 3, 2025)
	assert.True(t, mar.Items[0].AdvanceDeduction.Equal(d("400")))
	assert.True(t, mar.Items[0].NetSalary.Equal(d("2600")))
	_, err = h.svc.ApproveRun(ctx, manager, mar.ID)
	require.NoError(t, err)

	settled, err := h.advances.GetByID(ctx, adv.ID, testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, advance.AdvanceStatusSettled, settled.Status)
	require.NotNil(t, settled.SettledRunID)
	assert.Equal(t, mar.ID, *settled.SettledRunID)

	// A branch run for the same period no longer sees the settled advance.
	branchRun, err := h.svc.GenerateRun(ctx, manager, payroll.GenerateRunRequest{PeriodMonth: 3, PeriodYear: 2025, BranchID: &branch})
	require.NoError(t, err)
	require.Len(t, branchRun.Items, 1)
	assert.True(t, branchRun.Items[0].AdvanceDeduction.IsZero())
	assert.Empty(t, branchRun.Items[0].Snapshot.Advances)
}

func TestSubmitAndRejectRun(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)
	run := h.generate(t, 3, 2025)

	_, err := h.svc.RejectRun(ctx, manager, run.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	submitted, err := h.svc.SubmitRun(ctx, manager, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusPendingApproval), submitted.Status)

	_, err = h.svc.SubmitRun(ctx, manager, run.ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)

	rejected, err := h.svc.RejectRun(ctx, manager, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusDraft), rejected.Status)

	_, err = h.svc.SubmitRun(ctx, manager, run.ID)
	require.NoError(t, err)
	regenerated := h.generate(t, 3, 2025)
	assert.Equal(t, string(payroll.RunStatusDraft), regenerated.Status)

	_, err = h.svc.SubmitRun(ctx, manager, run.ID)
	require.NoError(t, err)
	approved, err := h.svc.ApproveRun(ctx, manager, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusApproved), approved.Status)
}

// ===== PAYMENT =====

func TestMarkItemPaid_LastItemPaysRun(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)
	h.addEmployee(t, "emp-2", "2000", nil)
	run := h.generate(t, 3, 2025)
	_, err := h.svc.ApproveRun(ctx, manager, run.ID)
	require.NoError(t, err)

	first, err := h.svc.MarkItemPaid(ctx, manager, run.ID, run.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusApproved), first.RunStatus)
	assert.Equal(t, string(payroll.PaymentStatusPaid), first.Item.PaymentStatus)
	assert.NotNil(t, first.Item.PaidAt)
	assert.Nil(t, first.Warning)

	second, err := h.svc.MarkItemPaid(ctx, manager, run.ID, run.Items[1].ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusPaid), second.RunStatus)

	_, err = h.svc.MarkItemPaid(ctx, manager, run.ID, run.Items[1].ID)
	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
	assert.ErrorIs(t, err, payroll.ErrItemAlreadyPaid)

	assert.Len(t, h.notifier.calls, 2)

	_, err = h.svc.GenerateRun(ctx, manager, payroll.GenerateRunRequest{PeriodMonth: 3, PeriodYear: 2025})
	assert.ErrorIs(t, err, payroll.ErrRunLocked)
}

func TestMarkItemPaid_RequiresApprovedRun(t *testing.T) {
	h := newHarness(t)
	h.addEmployee(t, "emp-1", "3000", nil)
	run := h.generate(t, 3, 2025)

	_, err := h.svc.MarkItemPaid(context.Background(), manager, run.ID, run.Items[0].ID)

	assert.ErrorIs(t, err, payroll.ErrInvalidTransition)
}

func TestMarkItemPaid_ItemFromAnotherRunIsNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)
	march := h.generate(t, 3, 2025)
	april := h.generate(t, 4, 2025)
	_, err := h.svc.ApproveRun(ctx, manager, march.ID)
	require.NoError(t, err)

	_, err = h.svc.MarkItemPaid(ctx, manager, march.ID, april.Items[0].ID)

	assert.ErrorIs(t, err, payroll.ErrPayrollItemNotFound)
}

func TestMarkItemPaid_NotificationFailureIsOnlyAWarning(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.notifier.err = errors.New("smtp down")
	h.addEmployee(t, "emp-1", "3000", nil)
	run := h.generate(t, 3, 2025)
	_, err := h.svc.ApproveRun(ctx, manager, run.ID)
	require.NoError(t, err)

	resp, err := h.svc.MarkItemPaid(ctx, manager, run.ID, run.Items[0].ID)

	require.NoError(t, err)
	require.NotNil(t, resp.Warning)
	assert.Contains(t, *resp.Warning, payroll.ErrNotificationFailure.Error())
	assert.Contains(t, *resp.Warning, "smtp down")
	assert.Equal(t, string(payroll.RunStatusPaid), resp.RunStatus)

	after, err := h.svc.GetRun(ctx, manager, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.PaymentStatusPaid), after.Items[0].PaymentStatus)
}

// ===== DOCUMENTS & CATALOG =====

func TestExportRunAndDownloadPayslip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)
	run := h.generate(t, 3, 2025)

	register, filename, err := h.svc.ExportRun(ctx, manager, run.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, register)
	assert.Equal(t, "payroll-register-2025-03.xlsx", filename)

	slip, filename, err := h.svc.DownloadPayslip(ctx, manager, run.ID, run.Items[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, slip)
	assert.Equal(t, "payslip-2025-03-emp-1.xlsx", filename)

	_, _, err = h.svc.DownloadPayslip(ctx, manager, run.ID, uuid.NewString())
	assert.ErrorIs(t, err, payroll.ErrPayrollItemNotFound)
}

func TestComponentCatalog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "3000", nil)

	created, err := h.svc.CreateComponent(ctx, manager, payroll.CreateSalaryComponentRequest{
		Name: "Meal", Type: "allowance", AmountType: "fixed", Amount: d("150"),
	})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	_, err = h.svc.CreateComponent(ctx, manager, payroll.CreateSalaryComponentRequest{
		Name: "Meal", Type: "allowance", AmountType: "fixed", Amount: d("10"),
	})
	assert.ErrorIs(t, err, payroll.ErrSalaryComponentNameExists)

	percent := "percent"
	_, err = h.svc.UpdateComponent(ctx, manager, payroll.UpdateSalaryComponentRequest{ID: created.ID, AmountType: &percent})
	require.Error(t, err, "150 percent must be rejected")

	inactive := false
	updated, err := h.svc.UpdateComponent(ctx, manager, payroll.UpdateSalaryComponentRequest{ID: created.ID, IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	active, err := h.svc.ListComponents(ctx, manager, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	_, err = h.svc.UpsertSalaryProfile(ctx, manager, payroll.UpsertSalaryProfileRequest{
		EmployeeID: "emp-1", BaseSalary: d("3000"), SalaryType: "monthly",
		Components: []payroll.ComponentAssignment{{ComponentID: created.ID}},
	})
	require.NoError(t, err)

	// Inactive components are not resolved.
	run := h.generate(t, 3, 2025)
	assert.True(t, run.Items[0].TotalAllowances.IsZero())

	err = h.svc.DeleteComponent(ctx, manager, created.ID)
	assert.ErrorIs(t, err, payroll.ErrSalaryComponentInUse)
}

func TestUpsertSalaryProfile_SyncsAssignments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.addEmployee(t, "emp-1", "1000", nil)
	h.assignStandardComponents(t, "emp-1", "3000")

	profile, err := h.svc.GetSalaryProfile(ctx, manager, "emp-1")
	require.NoError(t, err)
	require.Len(t, profile.Components, 2)

	keep := profile.Components[0]
	custom := d("250")
	updated, err := h.svc.UpsertSalaryProfile(ctx, manager, payroll.UpsertSalaryProfileRequest{
		EmployeeID: "emp-1", BaseSalary: d("3200"), SalaryType: "monthly",
		Components: []payroll.ComponentAssignment{{ComponentID: keep.ComponentID, CustomAmount: &custom}},
	})
	require.NoError(t, err)

	assert.True(t, updated.BaseSalary.Equal(d("3200")))
	require.Len(t, updated.Components, 1)
	assert.Equal(t, keep.ComponentID, updated.Components[0].ComponentID)
	assert.True(t, updated.Components[0].EffectiveAmount.Equal(d("250")))

	_, err = h.svc.UpsertSalaryProfile(ctx, manager, payroll.UpsertSalaryProfileRequest{
		EmployeeID: "emp-1", BaseSalary: d("3200"), SalaryType: "monthly",
		Components: []payroll.ComponentAssignment{{ComponentID: uuid.NewString()}},
	})
	assert.ErrorIs(t, err, payroll.ErrSalaryComponentNotFound)

	// The failed sync left the previous profile in place.
	again, err := h.svc.GetSalaryProfile(ctx, manager, "emp-1")
	require.NoError(t, err)
	assert.Len(t, again.Components, 1)
}
