package loans

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// LiquidationDiscount is the fixed factor applied to the outstanding balance
// when valuing the unrealized part of a position.
const LiquidationDiscount = 0.95

// ROIEntry is one month of a loan's return-on-investment timeline. All
// figures are scaled by the investor's ownership fraction.
type ROIEntry struct {
	Date       Date    `json:"date"`
	Realized   float64 `json:"realized"`   // collected principal + interest - fees
	Unrealized float64 `json:"unrealized"` // discounted outstanding balance
	LoanValue  float64 `json:"loanValue"`  // realized + unrealized
	Invested   float64 `json:"invested"`
	ROI        float64 `json:"roi"` // (loanValue - invested) / invested
}

// BuildROI derives the ROI timeline from a loan's amortization schedule, one
// entry per owned, non-terminal row.
func BuildROI(loan *Loan, schedule []AmortizationRow) []ROIEntry {
	pct := InvestorFraction(loan)
	invested := Invested(loan)

	entries := make([]ROIEntry, 0, len(schedule))
	for _, a := range schedule {
		if !a.IsOwned || a.IsTerminal() {
			continue
		}
		e := ROIEntry{
			Date:       a.Date,
			Realized:   round2((a.CumPrincipal + a.CumInterest - a.CumFees) * pct),
			Unrealized: round2(a.Balance * LiquidationDiscount * pct),
			Invested:   invested,
		}
		e.LoanValue = round2(e.Realized + e.Unrealized)
		if invested > 0 {
			e.ROI = (e.LoanValue - invested) / invested
		}
		entries = append(entries, e)
	}
	return entries
}

// Timeline aligns every loan's ROI onto one shared monthly calendar spanning
// the earliest purchase month to the latest contractual maturity. A loan's
// value is nil before its purchase month and forward-filled across months
// without a new observation. Weighted is the invested-capital-weighted
// average ROI across loans with a value each month, nil when no loan has one.
type Timeline struct {
	Months   []Date
	ByLoan   map[string][]*float64
	Weighted []*float64
	Invested map[string]float64
}

// BuildProjectedTimeline builds the shared ROI timeline for a set of loans.
// Per-loan schedule failures are isolated: the timeline covers the loans that
// built cleanly and the joined error describes the ones that did not.
func BuildProjectedTimeline(loansToAlign []*Loan) (*Timeline, error) {
	type series struct {
		loan    *Loan
		entries []ROIEntry
	}

	var errs []error
	var all []series
	var from, to Date
	for _, loan := range loansToAlign {
		schedule, err := BuildSchedule(loan)
		if err != nil {
			errs = append(errs, fmt.Errorf("roi timeline: %w", err))
			continue
		}
		entries := BuildROI(loan, schedule)
		purchase := loan.PurchaseDate.StartOfMonth()
		if from.IsZero() || purchase.Before(from) {
			from = purchase
		}
		if n := len(schedule); n > 0 && schedule[n-1].Date.After(to) {
			to = schedule[n-1].Date
		}
		all = append(all, series{loan: loan, entries: entries})
	}

	tl := &Timeline{
		ByLoan:   make(map[string][]*float64),
		Invested: make(map[string]float64),
	}
	if len(all) == 0 || from.IsZero() {
		return tl, errors.Join(errs...)
	}

	for on := range Months(from, to) {
		tl.Months = append(tl.Months, on)
	}

	for _, s := range all {
		byMonth := make(map[string]float64, len(s.entries))
		for _, e := range s.entries {
			byMonth[e.Date.MonthKey()] = e.ROI
		}
		purchase := s.loan.PurchaseDate.StartOfMonth()
		values := make([]*float64, len(tl.Months))
		var last *float64
		for i, on := range tl.Months {
			if on.Before(purchase) {
				continue // nil before the purchase month
			}
			if roi, ok := byMonth[on.MonthKey()]; ok {
				v := roi
				last = &v
			}
			if last != nil {
				v := *last
				values[i] = &v
			}
		}
		tl.ByLoan[s.loan.ID] = values
		tl.Invested[s.loan.ID] = Invested(s.loan)
	}

	// Accumulate in sorted loan order: float addition is not associative,
	// so map order would make the last bits run-dependent.
	ids := slices.Sorted(maps.Keys(tl.ByLoan))
	tl.Weighted = make([]*float64, len(tl.Months))
	for i := range tl.Months {
		var sum, weight float64
		for _, id := range ids {
			values := tl.ByLoan[id]
			if values[i] == nil {
				continue
			}
			w := tl.Invested[id]
			sum += *values[i] * w
			weight += w
		}
		if weight > 0 {
			v := sum / weight
			tl.Weighted[i] = &v
		}
	}

	return tl, errors.Join(errs...)
}

// WeightedAsOf returns the weighted ROI at the given date's month, falling
// back to the most recent earlier month with a value.
func (tl *Timeline) WeightedAsOf(today Date) (float64, bool) {
	month := today.StartOfMonth()
	var last *float64
	for i, on := range tl.Months {
		if on.After(month) {
			break
		}
		if tl.Weighted[i] != nil {
			last = tl.Weighted[i]
		}
	}
	if last == nil {
		return 0, false
	}
	return *last, true
}

// WeightedTerminal returns the weighted ROI at the end of the projection.
func (tl *Timeline) WeightedTerminal() (float64, bool) {
	for i := len(tl.Months) - 1; i >= 0; i-- {
		if tl.Weighted[i] != nil {
			return *tl.Weighted[i], true
		}
	}
	return 0, false
}

// KPIs are the portfolio-level indicators derived from the ROI timelines.
type KPIs struct {
	TotalInvested       float64 // sum of invested capital across loans
	CurrentROI          float64 // weighted ROI as of today
	ProjectedROI        float64 // weighted ROI at the end of the projection
	CapitalRecovered    float64 // ownership-scaled principal collected to date
	CapitalRecoveredPct Percent // recovered / invested
}

// ComputeKPIs derives the portfolio KPIs for a set of loans as of today.
// Per-loan failures are isolated like in BuildProjectedTimeline.
func ComputeKPIs(loansToReport []*Loan, today Date) (KPIs, error) {
	tl, err := BuildProjectedTimeline(loansToReport)

	var k KPIs
	k.CurrentROI, _ = tl.WeightedAsOf(today)
	k.ProjectedROI, _ = tl.WeightedTerminal()

	var errs []error
	if err != nil {
		errs = append(errs, err)
	}
	for _, loan := range loansToReport {
		schedule, serr := BuildSchedule(loan)
		if serr != nil {
			continue // already reported by the timeline build
		}
		k.TotalInvested += Invested(loan)
		if row := rowAsOf(schedule, today); row != nil {
			k.CapitalRecovered += round2(row.CumPrincipal * InvestorFraction(loan))
		}
	}
	k.TotalInvested = round2(k.TotalInvested)
	k.CapitalRecovered = round2(k.CapitalRecovered)
	if k.TotalInvested > 0 {
		k.CapitalRecoveredPct = Percent(k.CapitalRecovered / k.TotalInvested * 100)
	}
	return k, errors.Join(errs...)
}

// rowAsOf returns the schedule row at today's month, or the most recent row
// before it, or nil when the schedule has not started by then.
func rowAsOf(schedule []AmortizationRow, today Date) *AmortizationRow {
	month := today.StartOfMonth()
	var last *AmortizationRow
	for i := range schedule {
		if schedule[i].Date.After(month) {
			break
		}
		last = &schedule[i]
	}
	return last
}
