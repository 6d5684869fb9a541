package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
)

// LedgerMutator applies approved snapshots to the loan and advance ledgers.
// It only reads snapshots, never the current loan or advance state, and must run
// inside the transaction that approves the run.
type LedgerMutator struct {
	loans    loan.LoanRepository
	advances advance.AdvanceRepository
	now      func() time.Time
}

func NewLedgerMutator(loans loan.LoanRepository, advances advance.AdvanceRepository) *LedgerMutator {
	return &LedgerMutator{loans: loans, advances: advances, now: time.Now}
}

// Replay decrements every recorded loan line and settles every recorded advance of the run's items.
func (m *LedgerMutator) Replay(ctx context.Context, run payroll.Run, items []payroll.Item) error {
	repaidOn := m.now()
	notes := "Payroll " + run.Period().String()

	for _, item := range items {
		for _, line := range item.Snapshot.Loans {
			_, err := m.loans.ApplyRepayment(ctx, run.CompanyID, loan.Repayment{
				LoanID:        line.ID,
				PayrollItemID: &item.ID,
				Amount:        line.Amount,
				RepaymentDate: repaidOn,
				Notes:         &notes,
			})
			if err != nil {
				if errors.Is(err, loan.ErrLoanNotFound) {
					return fmt.Errorf("%w: loan %s", payroll.ErrSnapshotReferencesUnknown, line.ID)
				}
				return fmt.Errorf("failed to apply loan %s for item %s: %w", line.ID, item.ID, err)
			}
		}

		for _, line := range item.Snapshot.Advances {
			if err := m.advances.Settle(ctx, line.ID, run.CompanyID, run.ID); err != nil {
				if errors.Is(err, advance.ErrAdvanceNotFound) {
					return fmt.Errorf("%w: advance %s", payroll.ErrSnapshotReferencesUnknown, line.ID)
				}
				return fmt.Errorf("failed to settle advance %s for item %s: %w", line.ID, item.ID, err)
			}
		}
	}
	return nil
}
