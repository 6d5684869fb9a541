package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEmployee(s *Store, id, companyID string) {
	s.AddEmployee(employee.Employee{
		ID:               id,
		CompanyID:        companyID,
		EmployeeCode:     id,
		FullName:         "Employee " + id,
		EmploymentStatus: employee.EmploymentStatusActive,
		Salary:           decimal.NewFromInt(1000),
	})
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedEmployee(s, "e1", "c1")
	runs := NewRunRepository(s)

	boom := errors.New("boom")
	err := s.Transactor().WithinTransaction(ctx, func(ctx context.Context) error {
		run, err := runs.Create(ctx, payroll.Run{CompanyID: "c1", PeriodMonth: 1, PeriodYear: 2025, Status: payroll.RunStatusDraft})
		require.NoError(t, err)
		_, err = runs.UpsertItem(ctx, payroll.Item{RunID: run.ID, CompanyID: "c1", EmployeeID: "e1"})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, total, err := runs.List(ctx, "c1", payroll.RunFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestTransactor_CommitsAndNests(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	runs := NewRunRepository(s)
	tx := s.Transactor()

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := runs.Create(ctx, payroll.Run{CompanyID: "c1", PeriodMonth: 2, PeriodYear: 2025, Status: payroll.RunStatusDraft})
			return err
		})
	})
	require.NoError(t, err)

	run, err := runs.GetByScopeForUpdate(ctx, "c1", payroll.Period{Month: 2, Year: 2025}, nil)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunStatusDraft, run.Status)

	_, err = runs.Create(ctx, payroll.Run{CompanyID: "c1", PeriodMonth: 2, PeriodYear: 2025})
	assert.ErrorIs(t, err, payroll.ErrRunBusy)
}

func TestLoanRepository_ApplyRepaymentOncePerItem(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedEmployee(s, "e1", "c1")
	loans := NewLoanRepository(s)

	l, err := loans.Create(ctx, loan.Loan{
		CompanyID:          "c1",
		EmployeeID:         "e1",
		Amount:             decimal.NewFromInt(150),
		Installments:       2,
		MonthlyInstallment: decimal.NewFromInt(75),
		RemainingBalance:   decimal.NewFromInt(150),
		Status:             loan.LoanStatusPending,
	})
	require.NoError(t, err)
	_, err = loans.Approve(ctx, l.ID, "c1")
	require.NoError(t, err)

	itemID := "item-1"
	rp := loan.Repayment{LoanID: l.ID, PayrollItemID: &itemID, Amount: decimal.NewFromInt(75)}
	updated, err := loans.ApplyRepayment(ctx, "c1", rp)
	require.NoError(t, err)
	assert.True(t, updated.RemainingBalance.Equal(decimal.NewFromInt(75)))

	_, err = loans.ApplyRepayment(ctx, "c1", rp)
	assert.ErrorIs(t, err, loan.ErrRepaymentAlreadyRecorded)

	_, err = loans.ApplyRepayment(ctx, "c1", loan.Repayment{LoanID: l.ID, Amount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, loan.ErrRepaymentExceedsBalance)

	paid, err := loans.ApplyRepayment(ctx, "c1", loan.Repayment{LoanID: l.ID, Amount: decimal.NewFromInt(75)})
	require.NoError(t, err)
	assert.True(t, paid.RemainingBalance.IsZero())
	assert.Equal(t, loan.LoanStatusPaid, paid.Status)

	_, err = loans.GetByID(ctx, l.ID, "other-company")
	assert.ErrorIs(t, err, loan.ErrLoanNotFound)
}
