package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func sampleItem() payroll.Item {
	return payroll.Item{
		ID:              "item-1",
		RunID:           "run-1",
		EmployeeID:      "emp-1",
		BaseSalary:      decimal.NewFromInt(3000),
		TotalAllowances: decimal.NewFromInt(200),
		TotalDeductions: decimal.NewFromInt(300),
		LoanDeduction:   decimal.NewFromInt(100),
		NetSalary:       decimal.NewFromInt(2800),
		PaymentStatus:   payroll.PaymentStatusPaid,
		EmployeeName:    strPtr("Jane Doe"),
		EmployeeCode:    strPtr("2025-0001"),
		Snapshot: payroll.Snapshot{
			BaseSalary: decimal.NewFromInt(3000),
			Allowances: []payroll.ComponentLine{
				{ComponentID: "c1", Name: "Transport", AmountType: payroll.AmountTypeFixed, Rate: decimal.NewFromInt(200), Amount: decimal.NewFromInt(200)},
			},
			Deductions: []payroll.ComponentLine{
				{ComponentID: "c2", Name: "Pension", AmountType: payroll.AmountTypePercent, Rate: decimal.NewFromInt(10), Amount: decimal.NewFromInt(300)},
			},
			Loans:      []payroll.LedgerLine{{ID: "loan-1", Amount: decimal.NewFromInt(100)}},
			Advances:   []payroll.LedgerLine{},
			Attendance: payroll.AttendanceLine{Source: "none", Amount: decimal.Zero},
		},
	}
}

func sampleRun() payroll.Run {
	return payroll.Run{ID: "run-1", PeriodMonth: 1, PeriodYear: 2025, Status: payroll.RunStatusApproved}
}

// labelled reads column A labels mapped to raw column B values.
func labelled(t *testing.T, data []byte, sheet string) map[string]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)

	out := make(map[string]string)
	for _, row := range rows {
		if len(row) >= 2 {
			out[row[0]] = row[1]
		}
	}
	return out
}

func TestPayslip(t *testing.T) {
	data, err := Payslip(sampleRun(), sampleItem())
	require.NoError(t, err)

	cells := labelled(t, data, payslipSheet)
	assert.Equal(t, "2025-01", cells["Period"])
	assert.Equal(t, "Jane Doe", cells["Employee"])
	assert.Equal(t, "3000", cells["Base Salary"])
	assert.Equal(t, "200", cells["Allowance: Transport"])
	assert.Equal(t, "3200", cells["Gross Salary"])
	assert.Equal(t, "300", cells["Deduction: Pension (10%)"])
	assert.Equal(t, "100", cells["Loan installment loan-1"])
	assert.Equal(t, "400", cells["Total Deductions"])
	assert.Equal(t, "2800", cells["Net Salary"])
	_, hasAttendance := cells["Attendance deduction"]
	assert.False(t, hasAttendance)

	assert.Equal(t, "payslip-2025-01-2025-0001.xlsx", PayslipFilename(sampleRun(), sampleItem()))
}

func TestRunRegister(t *testing.T) {
	run := sampleRun()
	second := sampleItem()
	second.ID = "item-2"
	second.EmployeeID = "emp-2"
	second.EmployeeName = strPtr("John Roe")
	second.EmployeeCode = strPtr("2025-0002")
	run.Items = []payroll.Item{sampleItem(), second}

	data, err := RunRegister(run)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(registerSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Payroll 2025-01 (approved)", rows[0][0])
	assert.Equal(t, registerHeadings, rows[2])
	assert.Equal(t, "John Roe", rows[4][1])

	total := rows[5]
	assert.Equal(t, "Total", total[1])
	assert.Equal(t, "6000", total[2])
	assert.Equal(t, "5600", total[8])

	assert.Equal(t, "payroll-register-2025-01.xlsx", RegisterFilename(run))
}

func TestRunRegister_NoItems(t *testing.T) {
	data, err := RunRegister(sampleRun())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue(registerSheet, "C4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "0", value)
}
