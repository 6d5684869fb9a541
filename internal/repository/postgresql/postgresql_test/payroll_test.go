package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/actor"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-backend-go/internal/repository/postgresql"
	advanceService "github.com/cmlabs-hris/payroll-backend-go/internal/service/advance"
	loanService "github.com/cmlabs-hris/payroll-backend-go/internal/service/loan"
	payrollService "github.com/cmlabs-hris/payroll-backend-go/internal/service/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engine struct {
	setup    *TestDatabaseSetup
	payroll  payroll.PayrollService
	loans    loan.LoanService
	advances advance.AdvanceService
	manager  actor.Actor
}

func newEngine(t *testing.T) *engine {
	t.Helper()
	ctx := context.Background()

	setup, ok, err := NewTestDatabase(ctx)
	if !ok {
		t.Skip("TEST_DATABASE_URL not set")
	}
	require.NoError(t, err)
	t.Cleanup(setup.Close)
	require.NoError(t, setup.TruncateAllTables(ctx))

	db := setup.DB
	employeeRepo := postgresql.NewEmployeeRepository(db)
	loanRepo := postgresql.NewLoanRepository(db)
	advanceRepo := postgresql.NewAdvanceRepository(db)

	var companyID string
	require.NoError(t, db.QueryRow(ctx, `INSERT INTO companies (name) VALUES ('Test Company') RETURNING id`).Scan(&companyID))

	return &engine{
		setup: setup,
		payroll: payrollService.NewPayrollService(
			postgresql.NewTransactor(db),
			lock.NewLocalLocker(),
			postgresql.NewSalaryComponentRepository(db),
			postgresql.NewPayrollRunRepository(db),
			employeeRepo,
			loanRepo,
			advanceRepo,
			postgresql.NewAttendanceDeductionSource(db),
			nil,
			10*time.Second,
		),
		loans:    loanService.NewLoanService(loanRepo, employeeRepo, nil),
		advances: advanceService.NewAdvanceService(advanceRepo, employeeRepo, nil),
		manager:  actor.Actor{CompanyID: companyID, UserID: "00000000-0000-0000-0000-0000000000aa", Role: actor.RoleManager},
	}
}

func (e *engine) addEmployee(t *testing.T, code, email string, salary int64) string {
	t.Helper()
	ctx := context.Background()

	var userID, employeeID string
	require.NoError(t, e.setup.DB.QueryRow(ctx, `INSERT INTO users (email) VALUES ($1) RETURNING id`, email).Scan(&userID))
	require.NoError(t, e.setup.DB.QueryRow(ctx, `
		INSERT INTO employees (company_id, user_id, employee_code, full_name, base_salary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, e.manager.CompanyID, userID, code, "Employee "+code, decimal.NewFromInt(salary)).Scan(&employeeID))
	return employeeID
}

func TestPayrollEngine_ApproveReplaysLedgerOnce(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	employeeID := e.addEmployee(t, "EMP-001", "andi@example.com", 3000)

	_, err := e.setup.DB.Exec(ctx, `
		INSERT INTO attendance_deductions (company_id, employee_id, period_month, period_year, amount)
		VALUES ($1, $2, 3, 2025, 50)
	`, e.manager.CompanyID, employeeID)
	require.NoError(t, err)

	created, err := e.loans.Create(ctx, e.manager, loan.CreateLoanRequest{
		EmployeeID: employeeID, Amount: decimal.NewFromInt(1000), Installments: 3,
	})
	require.NoError(t, err)
	_, err = e.loans.Approve(ctx, e.manager, created.ID)
	require.NoError(t, err)

	due := "2025-03-15"
	adv, err := e.advances.Create(ctx, e.manager, advance.CreateAdvanceRequest{
		EmployeeID: employeeID, Amount: decimal.NewFromInt(250), RepaymentDate: &due,
	})
	require.NoError(t, err)
	_, err = e.advances.Approve(ctx, e.manager, adv.ID)
	require.NoError(t, err)

	run, err := e.payroll.GenerateRun(ctx, e.manager, payroll.GenerateRunRequest{PeriodMonth: 3, PeriodYear: 2025})
	require.NoError(t, err)
	require.Len(t, run.Items, 1)
	item := run.Items[0]
	assert.True(t, item.LoanDeduction.Equal(decimal.RequireFromString("333.34")))
	assert.True(t, item.AdvanceDeduction.Equal(decimal.NewFromInt(250)))
	assert.True(t, item.AttendanceDeduction.Equal(decimal.NewFromInt(50)))
	assert.True(t, item.NetSalary.Equal(decimal.RequireFromString("2366.66")))

	regenerated, err := e.payroll.GenerateRun(ctx, e.manager, payroll.GenerateRunRequest{PeriodMonth: 3, PeriodYear: 2025})
	require.NoError(t, err)
	assert.Equal(t, run.ID, regenerated.ID)
	require.Len(t, regenerated.Items, 1)
	assert.Equal(t, item.ID, regenerated.Items[0].ID)

	approved, err := e.payroll.ApproveRun(ctx, e.manager, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(payroll.RunStatusApproved), approved.Status)

	_, err = e.payroll.ApproveRun(ctx, e.manager, run.ID)
	assert.Error(t, err)

	detail, err := e.loans.Get(ctx, e.manager, created.ID)
	require.NoError(t, err)
	assert.True(t, detail.RemainingBalance.Equal(decimal.RequireFromString("666.66")))
	require.Len(t, detail.Repayments, 1)
	require.NotNil(t, detail.Repayments[0].PayrollItemID)
	assert.Equal(t, item.ID, *detail.Repayments[0].PayrollItemID)

	settled, err := e.advances.Get(ctx, e.manager, adv.ID)
	require.NoError(t, err)
	assert.Equal(t, string(advance.AdvanceStatusSettled), settled.Status)
	require.NotNil(t, settled.SettledRunID)
	assert.Equal(t, run.ID, *settled.SettledRunID)

	_, err = e.payroll.GenerateRun(ctx, e.manager, payroll.GenerateRunRequest{PeriodMonth: 3, PeriodYear: 2025})
	assert.ErrorIs(t, err, payroll.ErrRunLocked)
}

func TestPayrollEngine_DuplicateRepaymentRejected(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	employeeID := e.addEmployee(t, "EMP-002", "budi@example.com", 2000)

	created, err := e.loans.Create(ctx, e.manager, loan.CreateLoanRequest{
		EmployeeID: employeeID, Amount: decimal.NewFromInt(600), Installments: 2,
	})
	require.NoError(t, err)
	_, err = e.loans.Approve(ctx, e.manager, created.ID)
	require.NoError(t, err)

	run, err := e.payroll.GenerateRun(ctx, e.manager, payroll.GenerateRunRequest{PeriodMonth: 4, PeriodYear: 2025})
	require.NoError(t, err)
	require.Len(t, run.Items, 1)
	itemID := run.Items[0].ID

	loanRepo := postgresql.NewLoanRepository(e.setup.DB)
	_, err = loanRepo.ApplyRepayment(ctx, e.manager.CompanyID, loan.Repayment{
		LoanID: created.ID, PayrollItemID: &itemID, Amount: decimal.NewFromInt(300), RepaymentDate: time.Now(),
	})
	require.NoError(t, err)

	tx := postgresql.NewTransactor(e.setup.DB)
	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := loanRepo.ApplyRepayment(ctx, e.manager.CompanyID, loan.Repayment{
			LoanID: created.ID, PayrollItemID: &itemID, Amount: decimal.NewFromInt(300), RepaymentDate: time.Now(),
		})
		return err
	})
	assert.ErrorIs(t, err, loan.ErrRepaymentAlreadyRecorded)

	current, err := loanRepo.GetByID(ctx, created.ID, e.manager.CompanyID)
	require.NoError(t, err)
	assert.True(t, current.RemainingBalance.Equal(decimal.NewFromInt(300)))
}

func TestPayrollEngine_ConcurrentGenerateCreatesOneRun(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	e.addEmployee(t, "EMP-003", "citra@example.com", 4000)

	const workers = 4
	ids := make([]string, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			run, err := e.payroll.GenerateRun(ctx, e.manager, payroll.GenerateRunRequest{PeriodMonth: 5, PeriodYear: 2025})
			ids[i], errs[i] = run.ID, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}

	var runs int
	require.NoError(t, e.setup.DB.QueryRow(ctx, `SELECT COUNT(*) FROM payroll_runs WHERE company_id = $1`, e.manager.CompanyID).Scan(&runs))
	assert.Equal(t, 1, runs)
}
