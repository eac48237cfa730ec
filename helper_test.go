package loans

import "math"

// on is a test helper to build a date from an ISO string.
func on(s string) Date { return MustParseDate(s) }

// near reports whether two currency values agree within a cent.
func near(got, want float64) bool { return math.Abs(got-want) <= 0.01 }

// intp is a test helper to build the optional term pointer of a record.
func intp(v int) *int { return &v }

// oneYearLoan returns a canonical one-year loan: principal 10000 at 12%
// nominal, no grace, no fees, starting and purchased 2024-01-15, fully owned.
func oneYearLoan(events ...Event) *Loan {
	loan := &Loan{
		ID:            "L1",
		Name:          "Loan L1",
		LoanStartDate: on("2024-01-15"),
		PurchaseDate:  on("2024-01-15"),
		Principal:     10000,
		PurchasePrice: 10000,
		NominalRate:   0.12,
		TermYears:     1,
		Events:        events,
		Ownership: &Ownership{Allocations: []Allocation{
			{Holder: NamedHolder(DefaultHolderName), Percent: 100, Date: on("2024-01-15")},
		}},
	}
	NormalizeOwnership(loan)
	return loan
}
