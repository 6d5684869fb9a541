package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

// attendanceDeductionTable reads figures the attendance subsystem writes to attendance_deductions.
type attendanceDeductionTable struct {
	db *database.DB
}

func NewAttendanceDeductionSource(db *database.DB) payroll.AttendanceDeductionSource {
	return &attendanceDeductionTable{db: db}
}

func (s *attendanceDeductionTable) Name() string {
	return "table"
}

func (s *attendanceDeductionTable) Deductions(ctx context.Context, companyID string, period payroll.Period, employeeIDs []string) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return result, nil
	}

	q := GetQuerier(ctx, s.db)

	rows, err := q.Query(ctx, `
		SELECT employee_id, amount
		FROM attendance_deductions
		WHERE company_id = $1 AND period_month = $2 AND period_year = $3 AND employee_id = ANY($4)
	`, companyID, period.Month, period.Year, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance deductions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID string
		var amount decimal.Decimal
		if err := rows.Scan(&employeeID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan attendance deduction: %w", err)
		}
		result[employeeID] = amount
	}
	return result, rows.Err()
}
