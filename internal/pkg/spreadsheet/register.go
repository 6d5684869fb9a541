package spreadsheet

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var registerHeadings = []string{
	"Employee Code", "Employee Name", "Base Salary", "Allowances", "Deductions",
	"Loan", "Advance", "Attendance", "Net Salary", "Payment Status",
}

func RegisterFilename(run payroll.Run) string {
	return fmt.Sprintf("payroll-register-%s.xlsx", run.Period())
}

// RunRegister renders every item of a run with a totals row.
func RunRegister(run payroll.Run) ([]byte, error) {
	f, st, err := newWorkbook(registerSheet)
	if err != nil {
		return nil, err
	}
	w := &sheetWriter{f: f, sheet: registerSheet, row: 1}
	if w.err = f.SetColWidth(registerSheet, "A", "J", 16); w.err == nil {
		w.err = f.SetColWidth(registerSheet, "B", "B", 28)
	}

	w.set(1, fmt.Sprintf("Payroll %s (%s)", run.Period(), run.Status), st.bold)
	w.next()
	w.next()

	for i, h := range registerHeadings {
		w.set(i+1, h, st.bold)
	}
	w.next()

	totals := make([]decimal.Decimal, 7)
	for _, item := range run.Items {
		amounts := []decimal.Decimal{
			item.BaseSalary, item.TotalAllowances, item.TotalDeductions,
			item.LoanDeduction, item.AdvanceDeduction, item.AttendanceDeduction, item.NetSalary,
		}
		w.set(1, deref(item.EmployeeCode, ""), 0)
		w.set(2, deref(item.EmployeeName, item.EmployeeID), 0)
		for i, amount := range amounts {
			w.set(i+3, amount, st.money)
			totals[i] = totals[i].Add(amount)
		}
		w.set(10, string(item.PaymentStatus), 0)
		w.next()
	}

	w.set(2, "Total", st.bold)
	for i, total := range totals {
		w.set(i+3, total, st.total)
	}

	return finish(f, w)
}
