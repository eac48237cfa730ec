package loans

import "math"

// percentTolerance is the float tolerance used when comparing allocation
// percents.
const percentTolerance = 1e-6

// Holder identifies the owner of an ownership allocation. The unattributed
// remainder of a loan belongs to the market, represented by an explicit
// Market tag rather than a sentinel name, so it can never collide with a
// user-supplied holder identifier.
type Holder struct {
	Market bool   `json:"market,omitempty"`
	Name   string `json:"name,omitempty"`
}

// MarketHolder returns the holder absorbing the unattributed remainder.
func MarketHolder() Holder { return Holder{Market: true} }

// NamedHolder returns a holder for a user-supplied identifier.
func NamedHolder(name string) Holder { return Holder{Name: name} }

func (h Holder) String() string {
	if h.Market {
		return "Market"
	}
	return h.Name
}

// Allocation is an ownership lot: a percent of the loan attributed to a
// holder, optionally priced and date-stamped when it was acquired.
type Allocation struct {
	Holder  Holder  `json:"holder"`
	Percent float64 `json:"percent"`
	Price   float64 `json:"price,omitempty"`
	Date    Date    `json:"date,omitzero"`
}

// Ownership tracks the fractional ownership allocations of a loan.
// After NormalizeOwnership the percents, including the Market remainder,
// sum to 100.
type Ownership struct {
	Allocations []Allocation `json:"allocations"`
}

// NormalizeOwnership ensures the loan has an allocation set, coerces invalid
// percents, rescales over-allocated lots, and (re)inserts the unattributed
// remainder under the Market holder. After it returns the percents, Market
// remainder included, sum to 100. It is idempotent: calling it twice yields
// the same allocations as calling it once.
func NormalizeOwnership(loan *Loan) {
	if loan.Ownership == nil {
		loan.Ownership = &Ownership{}
	}

	// Rebuild the set without any previous Market remainder.
	kept := make([]Allocation, 0, len(loan.Ownership.Allocations)+1)
	var sum float64
	for _, a := range loan.Ownership.Allocations {
		if a.Holder.Market {
			continue
		}
		a.Percent = clamp(a.Percent)
		a.Price = clamp(a.Price)
		sum += a.Percent
		kept = append(kept, a)
	}

	remainder := 100 - sum
	if remainder < 0 {
		// Over-allocated input: rescale the lots proportionally, percents
		// and prices alike, so the total stays at 100.
		scale := 100 / sum
		for i := range kept {
			kept[i].Percent *= scale
			kept[i].Price = round2(kept[i].Price * scale)
		}
		remainder = 0
	}
	kept = append(kept, Allocation{Holder: MarketHolder(), Percent: remainder})
	loan.Ownership.Allocations = kept
}

// Allocate records (or replaces) a holder's allocation and rebalances the
// Market remainder. Percent is in percent points.
func Allocate(loan *Loan, holder Holder, percent, price float64, on Date) {
	NormalizeOwnership(loan)
	allocs := loan.Ownership.Allocations[:0]
	for _, a := range loan.Ownership.Allocations {
		if a.Holder == holder || a.Holder.Market {
			continue
		}
		allocs = append(allocs, a)
	}
	if !holder.Market {
		allocs = append(allocs, Allocation{Holder: holder, Percent: percent, Price: price, Date: on})
	}
	loan.Ownership.Allocations = allocs
	NormalizeOwnership(loan)
}

// OwnershipPct returns the holder's ownership of the loan as a fraction in
// [0,1].
func OwnershipPct(loan *Loan, holder Holder) float64 {
	if loan.Ownership == nil {
		return 0
	}
	var sum float64
	for _, a := range loan.Ownership.Allocations {
		if a.Holder == holder {
			sum += a.Percent
		}
	}
	return sum / 100
}

// InvestorFraction returns the total non-Market ownership of the loan as a
// fraction in [0,1]. This is the fraction all ownership-scaled figures
// (earnings, ROI, recovered capital) are computed against.
func InvestorFraction(loan *Loan) float64 {
	if loan.Ownership == nil {
		return 0
	}
	var sum float64
	for _, a := range loan.Ownership.Allocations {
		if !a.Holder.Market {
			sum += a.Percent
		}
	}
	return sum / 100
}

// Invested returns the invested capital for the loan: the sum of priced
// ownership lots when lot prices are recorded, otherwise the owned fraction
// of the purchase price.
func Invested(loan *Loan) float64 {
	var priced float64
	hasPriced := false
	if loan.Ownership != nil {
		for _, a := range loan.Ownership.Allocations {
			if !a.Holder.Market && a.Price > 0 {
				priced += a.Price
				hasPriced = true
			}
		}
	}
	if hasPriced {
		return round2(priced)
	}
	return round2(InvestorFraction(loan) * loan.PurchasePrice)
}

// percentsSumTo100 reports whether the allocation percents sum to 100 within
// float tolerance.
func percentsSumTo100(o *Ownership) bool {
	var sum float64
	for _, a := range o.Allocations {
		sum += a.Percent
	}
	return math.Abs(sum-100) < percentTolerance
}
