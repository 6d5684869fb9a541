package payroll

import (
	"context"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type noAttendance struct{}

// NoAttendanceDeductions is the default source: nobody has an attendance deduction.
func NoAttendanceDeductions() payroll.AttendanceDeductionSource {
	return noAttendance{}
}

func (noAttendance) Name() string {
	return "none"
}

func (noAttendance) Deductions(context.Context, string, payroll.Period, []string) (map[string]decimal.Decimal, error) {
	return map[string]decimal.Decimal{}, nil
}
