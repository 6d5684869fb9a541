package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
)

// directorySchema is the subset of the HRIS directory tables the payroll engine reads.
const directorySchema = `
CREATE TABLE IF NOT EXISTS companies (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name       VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS branches (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
    name       VARCHAR(255) NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id    UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email VARCHAR(255) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS employees (
    id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    company_id        UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
    branch_id         UUID REFERENCES branches(id),
    user_id           UUID REFERENCES users(id),
    employee_code     VARCHAR(50) NOT NULL,
    full_name         VARCHAR(255) NOT NULL,
    employment_status VARCHAR(20) NOT NULL DEFAULT 'active',
    base_salary       NUMERIC(15, 2),
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    deleted_at        TIMESTAMPTZ
);
`

// TestDatabaseSetup wraps the database used by the integration tests.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and applies the payroll migration.
// ok is false when no test database is configured.
func NewTestDatabase(ctx context.Context) (setup *TestDatabaseSetup, ok bool, err error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, false, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn)
	if err != nil {
		return nil, true, fmt.Errorf("failed to connect to test database: %w", err)
	}
	setup = &TestDatabaseSetup{DB: db}

	if _, err := db.Exec(ctx, directorySchema); err != nil {
		db.Close()
		return nil, true, fmt.Errorf("failed to create directory schema: %w", err)
	}

	migration, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "migrations", "000001_payroll_engine.up.sql"))
	if err != nil {
		db.Close()
		return nil, true, fmt.Errorf("failed to read migration: %w", err)
	}
	if _, err := db.Exec(ctx, string(migration)); err != nil {
		db.Close()
		return nil, true, fmt.Errorf("failed to apply migration: %w", err)
	}

	return setup, true, nil
}

// TruncateAllTables removes every row written by the tests
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"attendance_deductions",
		"loan_repayments",
		"payroll_items",
		"payroll_runs",
		"salary_advances",
		"loans",
		"employee_salary_components",
		"salary_profiles",
		"salary_components",
		"employees",
		"users",
		"branches",
		"companies",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

// Close closes the database connection
func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
