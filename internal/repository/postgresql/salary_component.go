package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type salaryComponentRepository struct {
	db *database.DB
}

func NewSalaryComponentRepository(db *database.DB) payroll.ComponentRepository {
	return &salaryComponentRepository{db: db}
}

const componentColumns = `id, company_id, name, type, amount_type, amount, description, is_active, created_at, updated_at`

func scanComponent(row pgx.Row) (payroll.SalaryComponent, error) {
	var c payroll.SalaryComponent
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.Type, &c.AmountType, &c.Amount, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *salaryComponentRepository) Create(ctx context.Context, component payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_components (company_id, name, type, amount_type, amount, description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + componentColumns

	c, err := scanComponent(q.QueryRow(ctx, query,
		component.CompanyID, component.Name, component.Type, component.AmountType, component.Amount,
		component.Description, component.IsActive,
	))
	if err != nil {
		if isConstraintViolation(err, pgUniqueViolation, "uk_salary_component_name") {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNameExists
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to create salary component: %w", err)
	}

	return c, nil
}

func (r *salaryComponentRepository) GetByID(ctx context.Context, id string, companyID string) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + componentColumns + ` FROM salary_components WHERE id = $1 AND company_id = $2`

	c, err := scanComponent(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNotFound
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to get salary component: %w", err)
	}

	return c, nil
}

func (r *salaryComponentRepository) List(ctx context.Context, companyID string, activeOnly bool) ([]payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + componentColumns + `
		FROM salary_components
		WHERE company_id = $1 AND ($2 = FALSE OR is_active = TRUE)
		ORDER BY type, name
	`

	rows, err := q.Query(ctx, query, companyID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary components: %w", err)
	}
	defer rows.Close()

	components := []payroll.SalaryComponent{}
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary component: %w", err)
		}
		components = append(components, c)
	}

	return components, rows.Err()
}

func (r *salaryComponentRepository) Update(ctx context.Context, component payroll.SalaryComponent) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_components
		SET name = $3, amount_type = $4, amount = $5, description = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING ` + componentColumns

	c, err := scanComponent(q.QueryRow(ctx, query,
		component.ID, component.CompanyID, component.Name, component.AmountType, component.Amount,
		component.Description, component.IsActive,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNotFound
		}
		if isConstraintViolation(err, pgUniqueViolation, "uk_salary_component_name") {
			return payroll.SalaryComponent{}, payroll.ErrSalaryComponentNameExists
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to update salary component: %w", err)
	}

	return c, nil
}

func (r *salaryComponentRepository) Delete(ctx context.Context, id string, companyID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM salary_components WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		if isConstraintViolation(err, pgForeignKeyViolation, "") {
			return payroll.ErrSalaryComponentInUse
		}
		return fmt.Errorf("failed to delete salary component: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrSalaryComponentNotFound
	}

	return nil
}

func (r *salaryComponentRepository) GetEmployeeComponents(ctx context.Context, companyID string, employeeIDs []string) (map[string][]payroll.EmployeeComponent, error) {
	result := make(map[string][]payroll.EmployeeComponent, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return result, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT esc.employee_id, esc.custom_amount, esc.amount_type,
			sc.id, sc.company_id, sc.name, sc.type, sc.amount_type, sc.amount, sc.description,
			sc.is_active, sc.created_at, sc.updated_at
		FROM employee_salary_components esc
		JOIN salary_components sc ON sc.id = esc.component_id
		WHERE sc.company_id = $1 AND esc.employee_id = ANY($2)
		ORDER BY esc.employee_id, sc.type, sc.name, sc.id
	`

	rows, err := q.Query(ctx, query, companyID, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee salary components: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ec payroll.EmployeeComponent
		c := &ec.Component
		if err := rows.Scan(
			&ec.EmployeeID, &ec.CustomAmount, &ec.AmountType,
			&c.ID, &c.CompanyID, &c.Name, &c.Type, &c.AmountType, &c.Amount, &c.Description,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan employee salary component: %w", err)
		}
		ec.ComponentID = c.ID
		result[ec.EmployeeID] = append(result[ec.EmployeeID], ec)
	}

	return result, rows.Err()
}

func (r *salaryComponentRepository) SyncEmployeeComponents(ctx context.Context, companyID string, employeeID string, assignments []payroll.EmployeeComponent) error {
	q := GetQuerier(ctx, r.db)

	componentIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		componentIDs = append(componentIDs, a.ComponentID)
	}

	_, err := q.Exec(ctx, `
		DELETE FROM employee_salary_components esc
		USING employees e
		WHERE esc.employee_id = e.id AND e.id = $1 AND e.company_id = $2
			AND NOT (esc.component_id = ANY($3))
	`, employeeID, companyID, componentIDs)
	if err != nil {
		return fmt.Errorf("failed to remove employee salary components: %w", err)
	}

	for _, a := range assignments {
		tag, err := q.Exec(ctx, `
			INSERT INTO employee_salary_components (employee_id, component_id, custom_amount, amount_type)
			SELECT e.id, sc.id, $4, $5
			FROM employees e
			JOIN salary_components sc ON sc.company_id = e.company_id
			WHERE e.id = $1 AND sc.id = $2 AND e.company_id = $3
			ON CONFLICT (employee_id, component_id) DO UPDATE SET
				custom_amount = EXCLUDED.custom_amount,
				amount_type = EXCLUDED.amount_type
		`, employeeID, a.ComponentID, companyID, a.CustomAmount, a.AmountType)
		if err != nil {
			return fmt.Errorf("failed to assign salary component: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return payroll.ErrSalaryComponentNotFound
		}
	}

	return nil
}
