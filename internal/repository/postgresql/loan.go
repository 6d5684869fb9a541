package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type loanRepository struct {
	db *database.DB
}

func NewLoanRepository(db *database.DB) loan.LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `l.id, l.company_id, l.employee_id, l.amount, l.installments, l.monthly_installment,
	l.remaining_balance, l.status, l.reason, l.rejection_reason, l.approved_at, l.created_at, l.updated_at`

func scanLoan(row pgx.Row, extra ...any) (loan.Loan, error) {
	var l loan.Loan
	dest := []any{
		&l.ID, &l.CompanyID, &l.EmployeeID, &l.Amount, &l.Installments, &l.MonthlyInstallment,
		&l.RemainingBalance, &l.Status, &l.Reason, &l.RejectionReason, &l.ApprovedAt, &l.CreatedAt, &l.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return l, err
}

func (r *loanRepository) Create(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO loans AS l (company_id, employee_id, amount, installments, monthly_installment, remaining_balance, status, reason)
		SELECT e.company_id, e.id, $3, $4, $5, $6, $7, $8
		FROM employees e
		WHERE e.id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL
		RETURNING ` + loanColumns

	created, err := scanLoan(q.QueryRow(ctx, query,
		l.EmployeeID, l.CompanyID, l.Amount, l.Installments, l.MonthlyInstallment, l.RemainingBalance, l.Status, l.Reason,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loan.Loan{}, employee.ErrEmployeeNotFound
		}
		return loan.Loan{}, fmt.Errorf("failed to create loan: %w", err)
	}
	return created, nil
}

func (r *loanRepository) GetByID(ctx context.Context, id string, companyID string) (loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + loanColumns + `, e.full_name
		FROM loans l
		JOIN employees e ON e.id = l.employee_id
		WHERE l.id = $1 AND l.company_id = $2
	`

	var name *string
	l, err := scanLoan(q.QueryRow(ctx, query, id, companyID), &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loan.Loan{}, loan.ErrLoanNotFound
		}
		return loan.Loan{}, fmt.Errorf("failed to get loan: %w", err)
	}
	l.EmployeeName = name
	return l, nil
}

func (r *loanRepository) List(ctx context.Context, companyID string, filter loan.LoanFilter) ([]loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + loanColumns + `, e.full_name
		FROM loans l
		JOIN employees e ON e.id = l.employee_id
		WHERE l.company_id = $1
			AND ($2::uuid IS NULL OR l.employee_id = $2)
			AND ($3::text IS NULL OR l.status = $3)
		ORDER BY l.created_at DESC
	`

	rows, err := q.Query(ctx, query, companyID, filter.EmployeeID, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	loans := []loan.Loan{}
	for rows.Next() {
		var name *string
		l, err := scanLoan(rows, &name)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		l.EmployeeName = name
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// transition moves a pending loan; a non-pending or missing loan is told apart by a follow-up read.
func (r *loanRepository) transition(ctx context.Context, query string, id, companyID string, args ...any) (loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanLoan(q.QueryRow(ctx, query, append([]any{id, companyID}, args...)...))
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return loan.Loan{}, fmt.Errorf("failed to update loan status: %w", err)
	}
	if _, getErr := r.GetByID(ctx, id, companyID); getErr != nil {
		return loan.Loan{}, getErr
	}
	return loan.Loan{}, loan.ErrLoanNotPending
}

func (r *loanRepository) Approve(ctx context.Context, id string, companyID string) (loan.Loan, error) {
	return r.transition(ctx, `
		UPDATE loans l SET status = 'approved', approved_at = NOW(), updated_at = NOW()
		WHERE l.id = $1 AND l.company_id = $2 AND l.status = 'pending'
		RETURNING `+loanColumns, id, companyID)
}

func (r *loanRepository) Reject(ctx context.Context, id string, companyID string, reason string) (loan.Loan, error) {
	return r.transition(ctx, `
		UPDATE loans l SET status = 'rejected', rejection_reason = $3, updated_at = NOW()
		WHERE l.id = $1 AND l.company_id = $2 AND l.status = 'pending'
		RETURNING `+loanColumns, id, companyID, reason)
}

func (r *loanRepository) GetEligibleByEmployees(ctx context.Context, companyID string, employeeIDs []string) (map[string][]loan.Loan, error) {
	result := make(map[string][]loan.Loan, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return result, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + loanColumns + `
		FROM loans l
		WHERE l.company_id = $1 AND l.employee_id = ANY($2)
			AND l.status = 'approved' AND l.remaining_balance > 0
		ORDER BY l.employee_id, l.created_at, l.id
	`

	rows, err := q.Query(ctx, query, companyID, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get eligible loans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		result[l.EmployeeID] = append(result[l.EmployeeID], l)
	}
	return result, rows.Err()
}

func (r *loanRepository) ApplyRepayment(ctx context.Context, companyID string, repayment loan.Repayment) (loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	current, err := scanLoan(q.QueryRow(ctx, `
		SELECT `+loanColumns+` FROM loans l WHERE l.id = $1 AND l.company_id = $2 FOR UPDATE
	`, repayment.LoanID, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loan.Loan{}, loan.ErrLoanNotFound
		}
		return loan.Loan{}, fmt.Errorf("failed to lock loan: %w", err)
	}
	if err := loan.CheckRepayment(current, repayment); err != nil {
		return loan.Loan{}, err
	}

	_, err = q.Exec(ctx, `
		INSERT INTO loan_repayments (loan_id, payroll_item_id, amount, repayment_date, notes)
		VALUES ($1, $2, $3, $4, $5)
	`, repayment.LoanID, repayment.PayrollItemID, repayment.Amount, repayment.RepaymentDate, repayment.Notes)
	if err != nil {
		if isConstraintViolation(err, pgUniqueViolation, "uk_loan_repayment_payroll_item") {
			return loan.Loan{}, loan.ErrRepaymentAlreadyRecorded
		}
		return loan.Loan{}, fmt.Errorf("failed to record loan repayment: %w", err)
	}

	updated, err := scanLoan(q.QueryRow(ctx, `
		UPDATE loans l SET
			remaining_balance = l.remaining_balance - $3,
			status = CASE WHEN l.remaining_balance - $3 <= 0 THEN 'paid' ELSE l.status END,
			updated_at = NOW()
		WHERE l.id = $1 AND l.company_id = $2
		RETURNING `+loanColumns, repayment.LoanID, companyID, repayment.Amount))
	if err != nil {
		return loan.Loan{}, fmt.Errorf("failed to apply loan repayment: %w", err)
	}
	return updated, nil
}

func (r *loanRepository) GetRepayments(ctx context.Context, loanID string, companyID string) ([]loan.Repayment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT lr.id, lr.loan_id, lr.payroll_item_id, lr.amount, lr.repayment_date, lr.notes, lr.created_at
		FROM loan_repayments lr
		JOIN loans l ON l.id = lr.loan_id
		WHERE lr.loan_id = $1 AND l.company_id = $2
		ORDER BY lr.repayment_date, lr.created_at
	`

	rows, err := q.Query(ctx, query, loanID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get loan repayments: %w", err)
	}
	defer rows.Close()

	repayments := []loan.Repayment{}
	for rows.Next() {
		var rp loan.Repayment
		if err := rows.Scan(&rp.ID, &rp.LoanID, &rp.PayrollItemID, &rp.Amount, &rp.RepaymentDate, &rp.Notes, &rp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loan repayment: %w", err)
		}
		repayments = append(repayments, rp)
	}
	return repayments, rows.Err()
}
