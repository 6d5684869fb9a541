package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type advanceRepository struct {
	db *database.DB
}

func NewAdvanceRepository(db *database.DB) advance.AdvanceRepository {
	return &advanceRepository{db: db}
}

const advanceColumns = `a.id, a.company_id, a.employee_id, a.amount, a.reason, a.status, a.repayment_date,
	a.approved_by, a.approved_at, a.rejection_reason, a.settled_at, a.settled_run_id, a.created_at, a.updated_at`

func scanAdvance(row pgx.Row, extra ...any) (advance.SalaryAdvance, error) {
	var a advance.SalaryAdvance
	dest := []any{
		&a.ID, &a.CompanyID, &a.EmployeeID, &a.Amount, &a.Reason, &a.Status, &a.RepaymentDate,
		&a.ApprovedBy, &a.ApprovedAt, &a.RejectionReason, &a.SettledAt, &a.SettledRunID, &a.CreatedAt, &a.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return a, err
}

func (r *advanceRepository) Create(ctx context.Context, adv advance.SalaryAdvance) (advance.SalaryAdvance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_advances AS a (company_id, employee_id, amount, reason, status, repayment_date)
		SELECT e.company_id, e.id, $3, $4, $5, $6
		FROM employees e
		WHERE e.id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL
		RETURNING ` + advanceColumns

	created, err := scanAdvance(q.QueryRow(ctx, query,
		adv.EmployeeID, adv.CompanyID, adv.Amount, adv.Reason, adv.Status, adv.RepaymentDate,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return advance.SalaryAdvance{}, employee.ErrEmployeeNotFound
		}
		return advance.SalaryAdvance{}, fmt.Errorf("failed to create salary advance: %w", err)
	}
	return created, nil
}

func (r *advanceRepository) GetByID(ctx context.Context, id string, companyID string) (advance.SalaryAdvance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + advanceColumns + `, e.full_name
		FROM salary_advances a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1 AND a.company_id = $2
	`

	var name *string
	a, err := scanAdvance(q.QueryRow(ctx, query, id, companyID), &name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return advance.SalaryAdvance{}, advance.ErrAdvanceNotFound
		}
		return advance.SalaryAdvance{}, fmt.Errorf("failed to get salary advance: %w", err)
	}
	a.EmployeeName = name
	return a, nil
}

func (r *advanceRepository) List(ctx context.Context, companyID string, filter advance.AdvanceFilter) ([]advance.SalaryAdvance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + advanceColumns + `, e.full_name
		FROM salary_advances a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.company_id = $1
			AND ($2::uuid IS NULL OR a.employee_id = $2)
			AND ($3::text IS NULL OR a.status = $3)
		ORDER BY a.created_at DESC
	`

	rows, err := q.Query(ctx, query, companyID, filter.EmployeeID, filter.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary advances: %w", err)
	}
	defer rows.Close()

	advances := []advance.SalaryAdvance{}
	for rows.Next() {
		var name *string
		a, err := scanAdvance(rows, &name)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary advance: %w", err)
		}
		a.EmployeeName = name
		advances = append(advances, a)
	}
	return advances, rows.Err()
}

func (r *advanceRepository) transition(ctx context.Context, query string, notAllowed error, id, companyID string, args ...any) (advance.SalaryAdvance, error) {
	q := GetQuerier(ctx, r.db)

	a, err := scanAdvance(q.QueryRow(ctx, query, append([]any{id, companyID}, args...)...))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return advance.SalaryAdvance{}, fmt.Errorf("failed to update salary advance status: %w", err)
	}
	if _, getErr := r.GetByID(ctx, id, companyID); getErr != nil {
		return advance.SalaryAdvance{}, getErr
	}
	return advance.SalaryAdvance{}, notAllowed
}

func (r *advanceRepository) Approve(ctx context.Context, id string, companyID string, approvedBy string) (advance.SalaryAdvance, error) {
	return r.transition(ctx, `
		UPDATE salary_advances a SET status = 'approved', approved_by = $3, approved_at = NOW(), updated_at = NOW()
		WHERE a.id = $1 AND a.company_id = $2 AND a.status = 'pending'
		RETURNING `+advanceColumns, advance.ErrAdvanceNotPending, id, companyID, approvedBy)
}

func (r *advanceRepository) Reject(ctx context.Context, id string, companyID string, reason string) (advance.SalaryAdvance, error) {
	return r.transition(ctx, `
		UPDATE salary_advances a SET status = 'rejected', rejection_reason = $3, updated_at = NOW()
		WHERE a.id = $1 AND a.company_id = $2 AND a.status = 'pending'
		RETURNING `+advanceColumns, advance.ErrAdvanceNotPending, id, companyID, reason)
}

func (r *advanceRepository) GetDueByEmployees(ctx context.Context, companyID string, month, year int, employeeIDs []string) (map[string][]advance.SalaryAdvance, error) {
	result := make(map[string][]advance.SalaryAdvance, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return result, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + advanceColumns + `
		FROM salary_advances a
		WHERE a.company_id = $1 AND a.employee_id = ANY($2) AND a.status = 'approved'
			AND EXTRACT(MONTH FROM a.repayment_date) = $3
			AND EXTRACT(YEAR FROM a.repayment_date) = $4
		ORDER BY a.employee_id, a.repayment_date, a.id
	`

	rows, err := q.Query(ctx, query, companyID, employeeIDs, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get due salary advances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAdvance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary advance: %w", err)
		}
		result[a.EmployeeID] = append(result[a.EmployeeID], a)
	}
	return result, rows.Err()
}

func (r *advanceRepository) Settle(ctx context.Context, id string, companyID string, runID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE salary_advances SET status = 'settled', settled_at = NOW(), settled_run_id = $3, updated_at = NOW()
		WHERE id = $1 AND company_id = $2 AND status = 'approved'
	`, id, companyID, runID)
	if err != nil {
		return fmt.Errorf("failed to settle salary advance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id, companyID); err != nil {
			return err
		}
		return advance.ErrAdvanceNotApproved
	}
	return nil
}
