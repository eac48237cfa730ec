package loans

import (
	"fmt"
	"math"
)

// schedulePhase tags the scheduler state for a calendar month.
type schedulePhase int

const (
	phaseGrace schedulePhase = iota
	phaseRepayment
	phaseDeferred
	phaseDefaulted // terminal, absorbing
)

// schedulerState is the explicit state value threaded through the monthly
// walk: the current phase plus the deferral counters when one is active.
type schedulerState struct {
	phase             schedulePhase
	deferralRemaining int
	deferralTotal     int
}

// resume returns the state after an event-driven phase ends, based on the
// contractual index against the grace window.
func (s schedulerState) resume(contractualIndex, graceMonths int) schedulerState {
	if contractualIndex < graceMonths {
		return schedulerState{phase: phaseGrace}
	}
	return schedulerState{phase: phaseRepayment}
}

// AmortizationRow is one calendar month of a loan's schedule. All currency
// values are rounded to 2 decimals at row creation.
type AmortizationRow struct {
	ContractualMonth int  `json:"contractualMonth"` // 1-based index along the nominal term, excluding deferral insertions
	Date             Date `json:"loanDate"`         // calendar month (first of month), including deferral insertions

	Payment       float64 `json:"payment"`       // scheduled payment collected this month
	PrincipalPaid float64 `json:"principalPaid"` // principal reduction, including prepayments and default recovery
	Interest      float64 `json:"interest"`      // interest collected as part of the payment
	Balance       float64 `json:"balance"`       // outstanding balance after this month
	Prepayment    float64 `json:"prepayment"`    // extra principal applied this month

	AccruedInterest float64 `json:"accruedInterest"` // interest capitalized into balance (grace and deferral months)

	IsDeferred        bool `json:"isDeferred"`
	DeferralIndex     int  `json:"deferralIndex,omitempty"`     // 1-based position within the active deferral
	DeferralRemaining int  `json:"deferralRemaining,omitempty"` // deferred months still to come after this one

	IsOwned       bool `json:"isOwned"`
	OwnershipDate Date `json:"ownershipDate,omitzero"`

	Defaulted bool `json:"defaulted,omitempty"` // terminal; no rows exist after a defaulted row

	UpfrontFee float64 `json:"upfrontFee,omitempty"` // one-time fee charged on the first owned month
	ServiceFee float64 `json:"serviceFee,omitempty"` // recurring fee on the outstanding balance

	// Running totals over owned rows, filled by a post-pass.
	CumPrincipal float64 `json:"cumPrincipal"`
	CumInterest  float64 `json:"cumInterest"`
	CumPayment   float64 `json:"cumPayment"`
	CumFees      float64 `json:"cumFees"`
	CumAccrued   float64 `json:"cumAccrued"`
}

// Fee returns the total fee charged on this row.
func (r AmortizationRow) Fee() float64 { return round2(r.UpfrontFee + r.ServiceFee) }

// IsTerminal reports whether no rows can exist after this one.
func (r AmortizationRow) IsTerminal() bool { return r.Defaulted }

// round2 rounds a currency value to 2 decimals. Regulatory-grade rounding is
// out of scope; this keeps every derived aggregate consistent with the rows.
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// annuityPayment returns the level payment that amortizes balance at
// monthlyRate over remainingMonths, degenerating to linear division when the
// rate is zero. It is a pure function of its arguments and is recomputed for
// every repayment row, never cached: recomputing from the current balance and
// the remaining contractual months guarantees interest capitalized during
// grace or deferral months is still fully amortized by the final contractual
// month.
func annuityPayment(balance, monthlyRate float64, remainingMonths int) float64 {
	if remainingMonths <= 0 {
		return round2(balance)
	}
	if monthlyRate == 0 {
		return round2(balance / float64(remainingMonths))
	}
	f := math.Pow(1+monthlyRate, float64(remainingMonths))
	return round2(balance * monthlyRate * f / (f - 1))
}

// BuildSchedule consumes a loan and its events and emits the ordered schedule
// of calendar-month rows.
//
// The walk starts at the first of the loan's start month and maintains two
// counters: the contractual index (bounded by (graceYears+termYears)*12) and
// the calendar date. Deferral months advance the calendar but not the
// contractual index. Per month the priority order is: default (terminal),
// deferral, then the normal grace or repayment step.
func BuildSchedule(loan *Loan) ([]AmortizationRow, error) {
	if loan.LoanStartDate.IsZero() {
		return nil, fmt.Errorf("loan %s has no start date", loan.ID)
	}
	if loan.NominalRate < 0 {
		return nil, fmt.Errorf("loan %s has a negative nominal rate", loan.ID)
	}

	idx := indexEvents(loan.Events)
	totalMonths := loan.TotalMonths()
	graceMonths := loan.GraceMonths()
	mrate := loan.MonthlyRate()
	purchaseMonth := loan.PurchaseDate.StartOfMonth()

	rows := make([]AmortizationRow, 0, totalMonths)
	balance := round2(loan.Principal)
	cal := loan.LoanStartDate.StartOfMonth()
	state := schedulerState{}.resume(0, graceMonths)
	upfrontCharged := false

	for i := 0; i < totalMonths; {
		row := AmortizationRow{
			ContractualMonth: i + 1,
			Date:             cal,
			IsOwned:          !cal.Before(purchaseMonth),
			OwnershipDate:    loan.PurchaseDate,
		}
		interest := round2(balance * mrate)

		// Default is terminal and evaluated first.
		if d := idx.defaultAt(cal); d != nil {
			state = schedulerState{phase: phaseDefaulted}
			recovery := round2(math.Min(balance, clamp(d.Recovery)))
			row.PrincipalPaid = recovery
			row.Payment = recovery
			balance = round2(balance - recovery)
			row.Balance = balance
			row.Defaulted = true
			rows = append(rows, row)
			break
		}

		// A deferral starting this calendar month activates only when none
		// is already running; requests whose start month falls inside an
		// active deferral are not honored.
		if state.phase != phaseDeferred {
			if months := idx.deferralAt(cal); months > 0 {
				state = schedulerState{phase: phaseDeferred, deferralRemaining: months, deferralTotal: months}
			}
		}

		switch state.phase {
		case phaseDeferred:
			row.IsDeferred = true
			row.DeferralIndex = state.deferralTotal - state.deferralRemaining + 1
			row.AccruedInterest = interest
			balance = round2(balance + interest)
			balance = applyPrepayment(&row, idx, cal, balance)
			row.Balance = balance
			state.deferralRemaining--
			row.DeferralRemaining = state.deferralRemaining
			if state.deferralRemaining == 0 {
				state = state.resume(i, graceMonths)
			}
			cal = cal.AddMonths(1)
			// the contractual index does not advance

		case phaseGrace:
			row.AccruedInterest = interest
			balance = round2(balance + interest)
			balance = applyPrepayment(&row, idx, cal, balance)
			row.Balance = balance
			i++
			cal = cal.AddMonths(1)
			state = state.resume(i, graceMonths)

		case phaseRepayment:
			remaining := totalMonths - i
			payment := annuityPayment(balance, mrate, remaining)
			principal := round2(payment - interest)
			if principal < 0 {
				principal = 0
			}
			if remaining == 1 || principal > balance {
				// the final contractual month clears the balance exactly
				principal = balance
				payment = round2(balance + interest)
			}
			row.Payment = payment
			row.Interest = interest
			balance = round2(balance - principal)
			balance = applyPrepayment(&row, idx, cal, balance)
			row.PrincipalPaid = round2(principal + row.Prepayment)
			row.Balance = balance
			i++
			cal = cal.AddMonths(1)
		}

		// Fees are charged on owned, non-deferred rows only: the one-time
		// upfront fee on the first such month, plus a recurring fee on the
		// outstanding balance.
		if row.IsOwned && !row.IsDeferred {
			if !upfrontCharged {
				row.UpfrontFee = round2(loan.UpfrontFee)
				upfrontCharged = true
			}
			row.ServiceFee = round2(balance * loan.MonthlyFeeRate)
		}

		rows = append(rows, row)

		// Early termination: a zero balance with no deferral pending stops
		// the schedule even if contractual months remain.
		if balance <= 0 && state.phase != phaseDeferred {
			break
		}
	}

	accumulate(rows)
	return rows, nil
}

// applyPrepayment applies the month's prepayment request, capped at the
// current balance, recording it on the row as its principal reduction. On
// repayment months the caller folds the scheduled principal back in
// afterwards. It returns the new balance.
func applyPrepayment(row *AmortizationRow, idx eventIndex, cal Date, balance float64) float64 {
	p := idx.prepaymentAt(cal)
	if p <= 0 {
		return balance
	}
	prepay := round2(math.Min(p, balance))
	row.Prepayment = prepay
	row.PrincipalPaid = prepay
	return round2(balance - prepay)
}

// accumulate fills the running cumulative totals over owned rows.
func accumulate(rows []AmortizationRow) {
	var principal, interest, payment, fees, accrued float64
	for j := range rows {
		r := &rows[j]
		if r.IsOwned {
			principal += r.PrincipalPaid
			interest += r.Interest
			payment += r.Payment
			fees += r.Fee()
			accrued += r.AccruedInterest
		}
		r.CumPrincipal = round2(principal)
		r.CumInterest = round2(interest)
		r.CumPayment = round2(payment)
		r.CumFees = round2(fees)
		r.CumAccrued = round2(accrued)
	}
}
