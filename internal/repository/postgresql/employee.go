package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT e.id, e.company_id, e.branch_id, e.employee_code, e.full_name, u.email,
		e.employment_status, COALESCE(e.base_salary, 0), e.created_at, e.updated_at,
		sp.id, sp.base_salary, sp.salary_type, sp.payment_method, sp.bank_name,
		sp.account_name, sp.account_number, sp.iban, sp.created_at, sp.updated_at
	FROM employees e
	LEFT JOIN users u ON e.user_id = u.id
	LEFT JOIN salary_profiles sp ON sp.employee_id = e.id
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	var profile struct {
		ID            *string
		BaseSalary    decimal.NullDecimal
		SalaryType    *string
		PaymentMethod *string
		BankName      *string
		AccountName   *string
		AccountNumber *string
		IBAN          *string
		CreatedAt     *time.Time
		UpdatedAt     *time.Time
	}

	err := row.Scan(
		&emp.ID, &emp.CompanyID, &emp.BranchID, &emp.EmployeeCode, &emp.FullName, &emp.Email,
		&emp.EmploymentStatus, &emp.Salary, &emp.CreatedAt, &emp.UpdatedAt,
		&profile.ID, &profile.BaseSalary, &profile.SalaryType, &profile.PaymentMethod, &profile.BankName,
		&profile.AccountName, &profile.AccountNumber, &profile.IBAN, &profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return employee.Employee{}, err
	}

	if profile.ID != nil {
		emp.SalaryProfile = &employee.SalaryProfile{
			ID:            *profile.ID,
			EmployeeID:    emp.ID,
			BaseSalary:    profile.BaseSalary.Decimal,
			SalaryType:    employee.SalaryType(derefString(profile.SalaryType)),
			PaymentMethod: profile.PaymentMethod,
			BankName:      profile.BankName,
			AccountName:   profile.AccountName,
			AccountNumber: profile.AccountNumber,
			IBAN:          profile.IBAN,
		}
		if profile.CreatedAt != nil {
			emp.SalaryProfile.CreatedAt = *profile.CreatedAt
		}
		if profile.UpdatedAt != nil {
			emp.SalaryProfile.UpdatedAt = *profile.UpdatedAt
		}
	}
	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := employeeSelect + `WHERE e.id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// GetActiveForPayroll implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetActiveForPayroll(ctx context.Context, companyID string, branchID *string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := employeeSelect + `
		WHERE e.company_id = $1 AND e.employment_status = $2 AND e.deleted_at IS NULL
			AND ($3::uuid IS NULL OR e.branch_id = $3)
		ORDER BY e.employee_code, e.id
	`

	rows, err := q.Query(ctx, query, companyID, employee.EmploymentStatusActive, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}

// GetSalaryProfile implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetSalaryProfile(ctx context.Context, employeeID string, companyID string) (employee.SalaryProfile, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT sp.id, sp.employee_id, sp.base_salary, sp.salary_type, sp.payment_method, sp.bank_name,
			sp.account_name, sp.account_number, sp.iban, sp.created_at, sp.updated_at
		FROM salary_profiles sp
		JOIN employees e ON e.id = sp.employee_id
		WHERE sp.employee_id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL
	`

	var p employee.SalaryProfile
	err := q.QueryRow(ctx, query, employeeID, companyID).Scan(
		&p.ID, &p.EmployeeID, &p.BaseSalary, &p.SalaryType, &p.PaymentMethod, &p.BankName,
		&p.AccountName, &p.AccountNumber, &p.IBAN, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.SalaryProfile{}, employee.ErrSalaryProfileNotFound
		}
		return employee.SalaryProfile{}, fmt.Errorf("failed to get salary profile: %w", err)
	}
	return p, nil
}

// UpsertSalaryProfile implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) UpsertSalaryProfile(ctx context.Context, profile employee.SalaryProfile, companyID string) (employee.SalaryProfile, error) {
	q := GetQuerier(ctx, e.db)

	// The SELECT guards the company scope: an employee of another company inserts nothing.
	query := `
		INSERT INTO salary_profiles (
			employee_id, base_salary, salary_type, payment_method, bank_name,
			account_name, account_number, iban
		)
		SELECT e.id, $3, $4, $5, $6, $7, $8, $9
		FROM employees e
		WHERE e.id = $1 AND e.company_id = $2 AND e.deleted_at IS NULL
		ON CONFLICT (employee_id) DO UPDATE SET
			base_salary = EXCLUDED.base_salary,
			salary_type = EXCLUDED.salary_type,
			payment_method = EXCLUDED.payment_method,
			bank_name = EXCLUDED.bank_name,
			account_name = EXCLUDED.account_name,
			account_number = EXCLUDED.account_number,
			iban = EXCLUDED.iban,
			updated_at = NOW()
		RETURNING id, employee_id, base_salary, salary_type, payment_method, bank_name,
			account_name, account_number, iban, created_at, updated_at
	`

	var p employee.SalaryProfile
	err := q.QueryRow(ctx, query,
		profile.EmployeeID, companyID, profile.BaseSalary, profile.SalaryType, profile.PaymentMethod,
		profile.BankName, profile.AccountName, profile.AccountNumber, profile.IBAN,
	).Scan(
		&p.ID, &p.EmployeeID, &p.BaseSalary, &p.SalaryType, &p.PaymentMethod, &p.BankName,
		&p.AccountName, &p.AccountNumber, &p.IBAN, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.SalaryProfile{}, employee.ErrEmployeeNotFound
		}
		return employee.SalaryProfile{}, fmt.Errorf("failed to upsert salary profile: %w", err)
	}
	return p, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
