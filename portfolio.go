package loans

import (
	"errors"
	"fmt"
	"slices"
)

// ExpectedIncomePoint is one month of the forward-looking expected income
// projection: the sum of scheduled payments across owned rows that month.
type ExpectedIncomePoint struct {
	Month  Date    `json:"month"`
	Amount float64 `json:"amount"`
}

// ExpectedIncome projects the portfolio's monthly income for calendar months
// after today. Only owned rows contribute; per-loan failures are isolated.
func ExpectedIncome(loansToProject []*Loan, today Date) ([]ExpectedIncomePoint, error) {
	month := today.StartOfMonth()
	totals := make(map[string]float64)
	var dates []Date

	var errs []error
	for _, loan := range loansToProject {
		schedule, err := BuildSchedule(loan)
		if err != nil {
			errs = append(errs, fmt.Errorf("expected income: %w", err))
			continue
		}
		for _, row := range schedule {
			if !row.IsOwned || !row.Date.After(month) {
				continue
			}
			key := row.Date.MonthKey()
			if _, seen := totals[key]; !seen {
				dates = append(dates, row.Date)
			}
			totals[key] += row.Payment
		}
	}

	slices.SortFunc(dates, func(a, b Date) int { return b.MonthsBetween(a) })
	points := make([]ExpectedIncomePoint, 0, len(dates))
	for _, on := range dates {
		points = append(points, ExpectedIncomePoint{Month: on, Amount: round2(totals[on.MonthKey()])})
	}
	return points, errors.Join(errs...)
}

// PortfolioTotals summarizes the portfolio's capital position as of a date.
type PortfolioTotals struct {
	Invested     float64 // total invested capital
	CurrentValue float64 // investor share of the outstanding balances as of the date
}

// Totals computes the portfolio totals as of today. Per-loan failures are
// isolated.
func Totals(loansToReport []*Loan, today Date) (PortfolioTotals, error) {
	var t PortfolioTotals
	var errs []error
	for _, loan := range loansToReport {
		schedule, err := BuildSchedule(loan)
		if err != nil {
			errs = append(errs, fmt.Errorf("totals: %w", err))
			continue
		}
		t.Invested += Invested(loan)
		if row := rowAsOf(schedule, today); row != nil {
			t.CurrentValue += round2(row.Balance * InvestorFraction(loan))
		}
	}
	t.Invested = round2(t.Invested)
	t.CurrentValue = round2(t.CurrentValue)
	return t, errors.Join(errs...)
}

// TPVSeries is the Total-Portfolio-Value timeline: one value per loan per
// calendar month across the global sorted set of months, zero where a loan
// has no data that month so the series stack cleanly.
type TPVSeries struct {
	Months []Date
	ByLoan map[string][]float64
}

// BuildTPV builds the Total-Portfolio-Value timeline for a set of loans.
// A loan's value for a month with a schedule row is its purchase price plus
// the interest capitalized while owned (grace and deferral months) plus the
// cumulative principal collected. Per-loan failures are isolated.
func BuildTPV(loansToAlign []*Loan) (*TPVSeries, error) {
	type series struct {
		loan *Loan
		rows []AmortizationRow
	}

	var errs []error
	var all []series
	var dateSets [][]Date
	for _, loan := range loansToAlign {
		schedule, err := BuildSchedule(loan)
		if err != nil {
			errs = append(errs, fmt.Errorf("tpv: %w", err))
			continue
		}
		dates := make([]Date, len(schedule))
		for i, row := range schedule {
			dates[i] = row.Date
		}
		all = append(all, series{loan: loan, rows: schedule})
		dateSets = append(dateSets, dates)
	}

	tpv := &TPVSeries{ByLoan: make(map[string][]float64)}
	for on := range mergeDates(dateSets...) {
		tpv.Months = append(tpv.Months, on)
	}

	for _, s := range all {
		byMonth := make(map[string]float64, len(s.rows))
		for _, row := range s.rows {
			byMonth[row.Date.MonthKey()] = round2(s.loan.PurchasePrice + row.CumAccrued + row.CumPrincipal)
		}
		values := make([]float64, len(tpv.Months))
		for i, on := range tpv.Months {
			values[i] = byMonth[on.MonthKey()] // zero when this loan has no row that month
		}
		tpv.ByLoan[s.loan.ID] = values
	}

	return tpv, errors.Join(errs...)
}
