package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRunRepository struct {
	db *database.DB
}

func NewPayrollRunRepository(db *database.DB) payroll.RunRepository {
	return &payrollRunRepository{db: db}
}

const runColumns = `r.id, r.company_id, r.period_month, r.period_year, r.branch_id, r.status,
	r.processed_by, r.processed_at, r.created_at, r.updated_at`

func scanRun(row pgx.Row) (payroll.Run, error) {
	var run payroll.Run
	err := row.Scan(
		&run.ID, &run.CompanyID, &run.PeriodMonth, &run.PeriodYear, &run.BranchID, &run.Status,
		&run.ProcessedBy, &run.ProcessedAt, &run.CreatedAt, &run.UpdatedAt,
	)
	return run, err
}

// ========== RUNS ==========

func (r *payrollRunRepository) LockScope(ctx context.Context, key string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock payroll scope: %w", err)
	}
	return nil
}

func (r *payrollRunRepository) GetByScopeForUpdate(ctx context.Context, companyID string, period payroll.Period, branchID *string) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + runColumns + `
		FROM payroll_runs r
		WHERE r.company_id = $1 AND r.period_month = $2 AND r.period_year = $3
			AND r.branch_id IS NOT DISTINCT FROM $4::uuid
		FOR UPDATE
	`

	run, err := scanRun(q.QueryRow(ctx, query, companyID, period.Month, period.Year, branchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, payroll.ErrPayrollRunNotFound
		}
		return payroll.Run{}, fmt.Errorf("failed to get payroll run by scope: %w", err)
	}
	return run, nil
}

func (r *payrollRunRepository) getByID(ctx context.Context, id string, companyID string, forUpdate bool) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs r WHERE r.id = $1 AND r.company_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	run, err := scanRun(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, payroll.ErrPayrollRunNotFound
		}
		return payroll.Run{}, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return run, nil
}

func (r *payrollRunRepository) GetByID(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	return r.getByID(ctx, id, companyID, false)
}

func (r *payrollRunRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (payroll.Run, error) {
	return r.getByID(ctx, id, companyID, true)
}

func (r *payrollRunRepository) List(ctx context.Context, companyID string, filter payroll.RunFilter) ([]payroll.Run, int64, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"r.company_id = $1"}
	args := []interface{}{companyID}
	argIdx := 2

	if filter.PeriodMonth != nil {
		conditions = append(conditions, fmt.Sprintf("r.period_month = $%d", argIdx))
		args = append(args, *filter.PeriodMonth)
		argIdx++
	}
	if filter.PeriodYear != nil {
		conditions = append(conditions, fmt.Sprintf("r.period_year = $%d", argIdx))
		args = append(args, *filter.PeriodYear)
		argIdx++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.BranchID != nil {
		conditions = append(conditions, fmt.Sprintf("r.branch_id = $%d", argIdx))
		args = append(args, *filter.BranchID)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payroll_runs r WHERE %s", whereClause)
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll runs: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM payroll_runs r
		WHERE %s
		ORDER BY r.period_year DESC, r.period_month DESC, r.created_at DESC
		LIMIT $%d OFFSET $%d
	`, runColumns, whereClause, argIdx, argIdx+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	runs := []payroll.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

func (r *payrollRunRepository) Create(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_runs AS r (company_id, period_month, period_year, branch_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + runColumns

	created, err := scanRun(q.QueryRow(ctx, query, run.CompanyID, run.PeriodMonth, run.PeriodYear, run.BranchID, run.Status))
	if err != nil {
		if isConstraintViolation(err, pgUniqueViolation, "uk_payroll_run_scope") {
			return payroll.Run{}, payroll.ErrRunBusy
		}
		return payroll.Run{}, fmt.Errorf("failed to create payroll run: %w", err)
	}
	return created, nil
}

func (r *payrollRunRepository) UpdateStatus(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs r
		SET status = $3, processed_by = $4, processed_at = $5, updated_at = NOW()
		WHERE r.id = $1 AND r.company_id = $2
		RETURNING ` + runColumns

	updated, err := scanRun(q.QueryRow(ctx, query, run.ID, run.CompanyID, run.Status, run.ProcessedBy, run.ProcessedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, payroll.ErrPayrollRunNotFound
		}
		return payroll.Run{}, fmt.Errorf("failed to update payroll run status: %w", err)
	}
	return updated, nil
}

// ========== ITEMS ==========

const itemColumns = `i.id, i.run_id, i.company_id, i.employee_id, i.base_salary, i.total_allowances, i.total_deductions,
	i.loan_deduction, i.advance_deduction, i.attendance_deduction, i.bonus, i.net_salary, i.snapshot,
	i.payment_status, i.paid_at, i.created_at, i.updated_at`

func scanItem(row pgx.Row, withEmployee bool) (payroll.Item, error) {
	var item payroll.Item
	var snapshot []byte
	dest := []any{
		&item.ID, &item.RunID, &item.CompanyID, &item.EmployeeID, &item.BaseSalary, &item.TotalAllowances, &item.TotalDeductions,
		&item.LoanDeduction, &item.AdvanceDeduction, &item.AttendanceDeduction, &item.Bonus, &item.NetSalary, &snapshot,
		&item.PaymentStatus, &item.PaidAt, &item.CreatedAt, &item.UpdatedAt,
	}
	if withEmployee {
		dest = append(dest, &item.EmployeeName, &item.EmployeeCode, &item.EmployeeEmail)
	}
	if err := row.Scan(dest...); err != nil {
		return payroll.Item{}, err
	}
	if err := json.Unmarshal(snapshot, &item.Snapshot); err != nil {
		return payroll.Item{}, fmt.Errorf("failed to decode payroll snapshot: %w", err)
	}
	return item, nil
}

func (r *payrollRunRepository) UpsertItem(ctx context.Context, item payroll.Item) (payroll.Item, error) {
	q := GetQuerier(ctx, r.db)

	snapshot, err := json.Marshal(item.Snapshot)
	if err != nil {
		return payroll.Item{}, fmt.Errorf("failed to encode payroll snapshot: %w", err)
	}

	query := `
		INSERT INTO payroll_items AS i (
			run_id, company_id, employee_id, base_salary, total_allowances, total_deductions,
			loan_deduction, advance_deduction, attendance_deduction, bonus, net_salary, snapshot, payment_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'unpaid')
		ON CONFLICT (run_id, employee_id) DO UPDATE SET
			base_salary = EXCLUDED.base_salary,
			total_allowances = EXCLUDED.total_allowances,
			total_deductions = EXCLUDED.total_deductions,
			loan_deduction = EXCLUDED.loan_deduction,
			advance_deduction = EXCLUDED.advance_deduction,
			attendance_deduction = EXCLUDED.attendance_deduction,
			bonus = EXCLUDED.bonus,
			net_salary = EXCLUDED.net_salary,
			snapshot = EXCLUDED.snapshot,
			payment_status = 'unpaid',
			paid_at = NULL,
			updated_at = NOW()
		RETURNING ` + itemColumns

	saved, err := scanItem(q.QueryRow(ctx, query,
		item.RunID, item.CompanyID, item.EmployeeID, item.BaseSalary, item.TotalAllowances, item.TotalDeductions,
		item.LoanDeduction, item.AdvanceDeduction, item.AttendanceDeduction, item.Bonus, item.NetSalary, snapshot,
	), false)
	if err != nil {
		return payroll.Item{}, fmt.Errorf("failed to upsert payroll item: %w", err)
	}
	return saved, nil
}

func (r *payrollRunRepository) DeleteItemsExcept(ctx context.Context, runID string, companyID string, employeeIDs []string) error {
	q := GetQuerier(ctx, r.db)

	if employeeIDs == nil {
		employeeIDs = []string{}
	}
	_, err := q.Exec(ctx, `
		DELETE FROM payroll_items
		WHERE run_id = $1 AND company_id = $2 AND NOT (employee_id = ANY($3))
	`, runID, companyID, employeeIDs)
	if err != nil {
		return fmt.Errorf("failed to delete stale payroll items: %w", err)
	}
	return nil
}

const itemWithEmployee = `
	SELECT ` + itemColumns + `, e.full_name, e.employee_code, u.email
	FROM payroll_items i
	JOIN employees e ON e.id = i.employee_id
	LEFT JOIN users u ON u.id = e.user_id
`

func (r *payrollRunRepository) GetItems(ctx context.Context, runID string, companyID string) ([]payroll.Item, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, itemWithEmployee+`
		WHERE i.run_id = $1 AND i.company_id = $2
		ORDER BY e.employee_code, i.employee_id
	`, runID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll items: %w", err)
	}
	defer rows.Close()

	items := []payroll.Item{}
	for rows.Next() {
		item, err := scanItem(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *payrollRunRepository) GetItem(ctx context.Context, runID string, itemID string, companyID string) (payroll.Item, error) {
	q := GetQuerier(ctx, r.db)

	item, err := scanItem(q.QueryRow(ctx, itemWithEmployee+`
		WHERE i.id = $1 AND i.run_id = $2 AND i.company_id = $3
	`, itemID, runID, companyID), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Item{}, payroll.ErrPayrollItemNotFound
		}
		return payroll.Item{}, fmt.Errorf("failed to get payroll item: %w", err)
	}
	return item, nil
}

func (r *payrollRunRepository) MarkItemPaid(ctx context.Context, runID string, itemID string, companyID string, paidAt time.Time) (payroll.Item, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE payroll_items
		SET payment_status = 'paid', paid_at = $4, updated_at = NOW()
		WHERE id = $1 AND run_id = $2 AND company_id = $3 AND payment_status = 'unpaid'
	`, itemID, runID, companyID, paidAt)
	if err != nil {
		return payroll.Item{}, fmt.Errorf("failed to mark payroll item paid: %w", err)
	}

	item, err := r.GetItem(ctx, runID, itemID, companyID)
	if err != nil {
		return payroll.Item{}, err
	}
	if tag.RowsAffected() == 0 {
		return payroll.Item{}, payroll.ErrItemAlreadyPaid
	}
	return item, nil
}

func (r *payrollRunRepository) CountUnpaidItems(ctx context.Context, runID string, companyID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var count int
	err := q.QueryRow(ctx, `
		SELECT COUNT(*) FROM payroll_items
		WHERE run_id = $1 AND company_id = $2 AND payment_status = 'unpaid'
	`, runID, companyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unpaid payroll items: %w", err)
	}
	return count, nil
}
