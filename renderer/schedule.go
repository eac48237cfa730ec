package renderer

import (
	loans "github.com/jeff-stratofied/loan-dashboard"
)

// ScheduleReport is the data rendered by the schedule report.
type ScheduleReport struct {
	Loan *loans.Loan
	Rows []loans.AmortizationRow
}

// ScheduleMarkdown renders a loan's amortization schedule to markdown.
func ScheduleMarkdown(loan *loans.Loan, rows []loans.AmortizationRow) string {
	return renderTemplate("schedule", "schedule.md", &ScheduleReport{Loan: loan, Rows: rows})
}

// EarningsReport is the data rendered by the earnings report.
type EarningsReport struct {
	Loan    *loans.Loan
	Rows    []loans.EarningsRow
	Current *loans.EarningsRow
}

// EarningsMarkdown renders a loan's earnings timeline to markdown.
func EarningsMarkdown(loan *loans.Loan, rows []loans.EarningsRow, today loans.Date) string {
	return renderTemplate("earnings", "earnings.md", &EarningsReport{
		Loan:    loan,
		Rows:    rows,
		Current: loans.CanonicalCurrentEarningsRow(rows, today),
	})
}
