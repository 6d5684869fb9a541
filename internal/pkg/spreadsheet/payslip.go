package spreadsheet

import (
	"fmt"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
)

// PayslipFilename is the attachment and download name of an item's payslip.
func PayslipFilename(run payroll.Run, item payroll.Item) string {
	return fmt.Sprintf("payslip-%s-%s.xlsx", run.Period(), deref(item.EmployeeCode, item.EmployeeID))
}

// Payslip renders one payroll item from its stored snapshot.
func Payslip(run payroll.Run, item payroll.Item) ([]byte, error) {
	f, st, err := newWorkbook(payslipSheet)
	if err != nil {
		return nil, err
	}
	w := &sheetWriter{f: f, sheet: payslipSheet, row: 1}
	if w.err = f.SetColWidth(payslipSheet, "A", "A", 36); w.err == nil {
		w.err = f.SetColWidth(payslipSheet, "B", "B", 18)
	}

	w.set(1, "Payslip", st.bold)
	w.next()
	w.set(1, "Period", 0)
	w.set(2, run.Period().String(), 0)
	w.next()
	w.set(1, "Employee", 0)
	w.set(2, deref(item.EmployeeName, ""), 0)
	w.next()
	w.set(1, "Employee Code", 0)
	w.set(2, deref(item.EmployeeCode, ""), 0)
	w.next()
	w.set(1, "Payment Status", 0)
	w.set(2, string(item.PaymentStatus), 0)
	w.next()
	w.next()

	snap := item.Snapshot
	w.set(1, "Description", st.bold)
	w.set(2, "Amount", st.bold)
	w.next()
	w.set(1, "Base Salary", 0)
	w.set(2, snap.BaseSalary, st.money)
	w.next()
	for _, line := range snap.Allowances {
		w.set(1, componentLabel("Allowance", line), 0)
		w.set(2, line.Amount, st.money)
		w.next()
	}
	w.set(1, "Gross Salary", st.bold)
	w.set(2, item.GrossSalary(), st.total)
	w.next()

	for _, line := range snap.Deductions {
		w.set(1, componentLabel("Deduction", line), 0)
		w.set(2, line.Amount, st.money)
		w.next()
	}
	for _, line := range snap.Loans {
		w.set(1, "Loan installment "+line.ID, 0)
		w.set(2, line.Amount, st.money)
		w.next()
	}
	for _, line := range snap.Advances {
		w.set(1, "Salary advance "+line.ID, 0)
		w.set(2, line.Amount, st.money)
		w.next()
	}
	if !snap.Attendance.Amount.IsZero() {
		w.set(1, "Attendance deduction", 0)
		w.set(2, snap.Attendance.Amount, st.money)
		w.next()
	}
	w.set(1, "Total Deductions", st.bold)
	w.set(2, item.TotalCuts(), st.total)
	w.next()
	w.next()
	w.set(1, "Net Salary", st.bold)
	w.set(2, item.NetSalary, st.total)

	return finish(f, w)
}

func componentLabel(kind string, line payroll.ComponentLine) string {
	if line.AmountType == payroll.AmountTypePercent {
		return fmt.Sprintf("%s: %s (%s%%)", kind, line.Name, line.Rate.String())
	}
	return fmt.Sprintf("%s: %s", kind, line.Name)
}
