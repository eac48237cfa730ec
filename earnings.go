package loans

// EarningsRow re-expresses one amortization row as investor earnings.
// Deferred months contribute zero principal, interest and fee even though the
// underlying amortization row still exists: capitalization is a balance-sheet
// event, not an earnings event. Months before ownership contribute zero as
// well. Cumulative principal and interest are monotonic non-decreasing and
// fees only add.
type EarningsRow struct {
	Date                Date `json:"date"`
	ContractualMonth    int  `json:"contractualMonth"`
	OwnershipMonthIndex int  `json:"ownershipMonthIndex"` // contractual month re-based on the purchase month
	IsOwned             bool `json:"isOwned"`
	IsDeferred          bool `json:"isDeferred"`

	Principal float64 `json:"principal"` // incremental
	Interest  float64 `json:"interest"`
	Fee       float64 `json:"fee"`
	Net       float64 `json:"net"` // interest minus fees

	CumPrincipal float64 `json:"cumPrincipal"`
	CumInterest  float64 `json:"cumInterest"`
	CumFees      float64 `json:"cumFees"`
	CumNet       float64 `json:"cumNet"`
}

// BuildEarnings derives the earnings timeline from a loan's amortization
// schedule, one row per amortization row.
func BuildEarnings(loan *Loan, schedule []AmortizationRow) []EarningsRow {
	offset := loan.LoanStartDate.StartOfMonth().MonthsBetween(loan.PurchaseDate.StartOfMonth())

	rows := make([]EarningsRow, 0, len(schedule))
	var cumPrincipal, cumInterest, cumFees float64
	for _, a := range schedule {
		e := EarningsRow{
			Date:                a.Date,
			ContractualMonth:    a.ContractualMonth,
			OwnershipMonthIndex: a.ContractualMonth - offset,
			IsOwned:             a.IsOwned,
			IsDeferred:          a.IsDeferred,
		}
		if a.IsOwned && !a.IsDeferred {
			e.Principal = a.PrincipalPaid
			e.Interest = a.Interest
			e.Fee = a.Fee()
			e.Net = round2(e.Interest - e.Fee)
			cumPrincipal += e.Principal
			cumInterest += e.Interest
			cumFees += e.Fee
		}
		e.CumPrincipal = round2(cumPrincipal)
		e.CumInterest = round2(cumInterest)
		e.CumFees = round2(cumFees)
		e.CumNet = round2(cumInterest - cumFees)
		rows = append(rows, e)
	}
	return rows
}

// CanonicalCurrentEarningsRow selects the earnings row representing "now":
// the row matching today's calendar month, else the last owned row, else the
// last row overall. It returns nil on an empty timeline.
func CanonicalCurrentEarningsRow(rows []EarningsRow, today Date) *EarningsRow {
	if len(rows) == 0 {
		return nil
	}
	var lastOwned *EarningsRow
	for i := range rows {
		r := &rows[i]
		if r.Date.SameMonth(today) {
			return r
		}
		if r.IsOwned {
			lastOwned = r
		}
	}
	if lastOwned != nil {
		return lastOwned
	}
	return &rows[len(rows)-1]
}
