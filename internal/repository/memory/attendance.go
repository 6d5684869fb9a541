package memory

import (
	"context"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type attendanceSource struct {
	s *Store
}

// NewAttendanceDeductionSource reads figures seeded with Store.SetAttendanceDeduction.
func NewAttendanceDeductionSource(s *Store) payroll.AttendanceDeductionSource {
	return &attendanceSource{s: s}
}

func (a *attendanceSource) Name() string {
	return "table"
}

func (a *attendanceSource) Deductions(_ context.Context, companyID string, period payroll.Period, employeeIDs []string) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal, len(employeeIDs))
	a.s.read(func(t *tables) {
		for _, id := range employeeIDs {
			if amount, ok := t.attendance[attendanceKey{companyID: companyID, employeeID: id, period: period}]; ok {
				result[id] = amount
			}
		}
	})
	return result, nil
}
