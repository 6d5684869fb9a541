package payroll

import (
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/advance"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/loan"
	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// currencyPlaces is the precision every produced currency amount is rounded to.
const currencyPlaces = 2

// Inputs is everything gathered for one employee before calculation.
type Inputs struct {
	BaseSalary       decimal.Decimal
	Components       []payroll.ResolvedComponent
	Loans            []loan.Loan
	Advances         []advance.SalaryAdvance
	Attendance       decimal.Decimal
	AttendanceSource string
}

// Breakdown is the output of Calculate: the item totals and the snapshot they were derived from.
type Breakdown struct {
	BaseSalary          decimal.Decimal
	TotalAllowances     decimal.Decimal
	TotalDeductions     decimal.Decimal
	LoanDeduction       decimal.Decimal
	AdvanceDeduction    decimal.Decimal
	AttendanceDeduction decimal.Decimal
	NetSalary           decimal.Decimal
	Snapshot            payroll.Snapshot
}

// ComponentAmount converts a resolved component into currency. Percentages apply to base pay and
// are rounded once, here.
func ComponentAmount(base decimal.Decimal, c payroll.ResolvedComponent) decimal.Decimal {
	if c.AmountType == payroll.AmountTypePercent {
		return base.Mul(c.Amount).Div(hundred).Round(currencyPlaces)
	}
	return c.Amount
}

// LoanInstallment is the amount a loan contributes to one period: its installment, capped at what is still owed.
func LoanInstallment(l loan.Loan) decimal.Decimal {
	return decimal.Min(l.MonthlyInstallment, l.RemainingBalance)
}

// Calculate derives one employee's compensation. It has no side effects and never fails:
// a negative net salary is returned as is.
func Calculate(in Inputs) Breakdown {
	b := Breakdown{
		BaseSalary:          in.BaseSalary,
		TotalAllowances:     decimal.Zero,
		TotalDeductions:     decimal.Zero,
		LoanDeduction:       decimal.Zero,
		AdvanceDeduction:    decimal.Zero,
		AttendanceDeduction: in.Attendance,
		Snapshot: payroll.Snapshot{
			BaseSalary: in.BaseSalary,
			Allowances: []payroll.ComponentLine{},
			Deductions: []payroll.ComponentLine{},
			Loans:      []payroll.LedgerLine{},
			Advances:   []payroll.LedgerLine{},
			Attendance: payroll.AttendanceLine{Source: in.AttendanceSource, Amount: in.Attendance},
		},
	}

	for _, c := range in.Components {
		line := payroll.ComponentLine{
			ComponentID: c.ComponentID,
			Name:        c.Name,
			AmountType:  c.AmountType,
			Rate:        c.Amount,
			Amount:      ComponentAmount(in.BaseSalary, c),
		}
		switch c.Type {
		case payroll.ComponentTypeAllowance:
			b.TotalAllowances = b.TotalAllowances.Add(line.Amount)
			b.Snapshot.Allowances = append(b.Snapshot.Allowances, line)
		case payroll.ComponentTypeDeduction:
			b.TotalDeductions = b.TotalDeductions.Add(line.Amount)
			b.Snapshot.Deductions = append(b.Snapshot.Deductions, line)
		}
	}

	for _, l := range in.Loans {
		if !l.Eligible() {
			continue
		}
		amount := LoanInstallment(l)
		b.LoanDeduction = b.LoanDeduction.Add(amount)
		b.Snapshot.Loans = append(b.Snapshot.Loans, payroll.LedgerLine{ID: l.ID, Amount: amount})
	}

	for _, a := range in.Advances {
		if a.Status != advance.AdvanceStatusApproved {
			continue
		}
		b.AdvanceDeduction = b.AdvanceDeduction.Add(a.Amount)
		b.Snapshot.Advances = append(b.Snapshot.Advances, payroll.LedgerLine{ID: a.ID, Amount: a.Amount})
	}

	b.NetSalary = in.BaseSalary.
		Add(b.TotalAllowances).
		Sub(b.TotalDeductions).
		Sub(b.LoanDeduction).
		Sub(b.AdvanceDeduction).
		Sub(b.AttendanceDeduction)

	return b
}
