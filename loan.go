package loans

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Default substitutions applied at normalization time when a field is absent.
const (
	// DefaultTermYears is substituted when a record carries no term.
	DefaultTermYears = 10
	// DefaultHolderName is the holder credited with full ownership when a
	// record carries no ownership block: a purchased loan with no explicit
	// allocations belongs entirely to the dashboard owner.
	DefaultHolderName = "Owner"
)

// LoanRecord is the raw, heterogeneous shape of a loan as stored in the
// remote JSON store. Numeric fields may be absent or invalid; dates are
// plain strings. Normalize converts it into the canonical Loan.
type LoanRecord struct {
	ID             string          `json:"id"`
	Name           string          `json:"name,omitempty"`
	School         string          `json:"school,omitempty"`
	LoanStartDate  string          `json:"loanStartDate"`
	PurchaseDate   string          `json:"purchaseDate,omitempty"`
	Principal      float64         `json:"principal"`
	PurchasePrice  float64         `json:"purchasePrice,omitempty"`
	NominalRate    float64         `json:"nominalRate"`
	TermYears      *int            `json:"termYears,omitempty"`
	GraceYears     int             `json:"graceYears,omitempty"`
	UpfrontFee     float64         `json:"upfrontFee,omitempty"`
	MonthlyFeeRate float64         `json:"monthlyFeeRate,omitempty"`
	Events         json.RawMessage `json:"events,omitempty"`
	Ownership      *Ownership      `json:"ownership,omitempty"`
}

// Loan is the canonical loan shape consumed by the scheduler. It is created
// at normalize time and never mutated by the engines; ownership changes go
// through explicit allocation updates followed by NormalizeOwnership.
type Loan struct {
	ID             string
	Name           string
	School         string
	LoanStartDate  Date
	PurchaseDate   Date
	Principal      float64
	PurchasePrice  float64
	NominalRate    float64 // annual rate as a decimal, e.g. 0.12
	TermYears      int
	GraceYears     int
	UpfrontFee     float64
	MonthlyFeeRate float64
	Events         []Event
	Ownership      *Ownership
}

// Normalize converts a raw record into a canonical Loan.
//
// Recoverable gaps are filled with documented defaults: an absent termYears
// defaults to DefaultTermYears, an absent purchaseDate to the loan start
// date, an absent purchasePrice to the principal, and an absent name to
// "Loan <id>". Invalid (negative) numeric fields are coerced to 0. An
// unparseable loanStartDate or purchaseDate is a hard error: this loan has
// no derivable schedule.
func (r LoanRecord) Normalize() (*Loan, error) {
	if r.ID == "" {
		return nil, errors.New("loan record has no id")
	}

	start, err := ParseDate(r.LoanStartDate)
	if err != nil {
		return nil, fmt.Errorf("loan %s: invalid loanStartDate: %w", r.ID, err)
	}

	purchase := start
	if r.PurchaseDate != "" {
		purchase, err = ParseDate(r.PurchaseDate)
		if err != nil {
			return nil, fmt.Errorf("loan %s: invalid purchaseDate: %w", r.ID, err)
		}
	}

	termYears := DefaultTermYears
	if r.TermYears != nil {
		termYears = clampInt(*r.TermYears)
	}

	principal := clamp(r.Principal)
	purchasePrice := clamp(r.PurchasePrice)
	if purchasePrice == 0 {
		purchasePrice = principal
	}

	name := r.Name
	if name == "" {
		name = "Loan " + r.ID
	}

	var events []Event
	if len(r.Events) > 0 {
		events, err = DecodeEvents(r.Events)
		if err != nil {
			return nil, fmt.Errorf("loan %s: %w", r.ID, err)
		}
	}

	loan := &Loan{
		ID:             r.ID,
		Name:           name,
		School:         r.School,
		LoanStartDate:  start,
		PurchaseDate:   purchase,
		Principal:      principal,
		PurchasePrice:  purchasePrice,
		NominalRate:    clamp(r.NominalRate),
		TermYears:      termYears,
		GraceYears:     clampInt(r.GraceYears),
		UpfrontFee:     clamp(r.UpfrontFee),
		MonthlyFeeRate: clamp(r.MonthlyFeeRate),
		Events:         events,
		Ownership:      r.Ownership,
	}
	if loan.Ownership == nil {
		loan.Ownership = &Ownership{Allocations: []Allocation{
			{Holder: NamedHolder(DefaultHolderName), Percent: 100, Date: purchase},
		}}
	}
	NormalizeOwnership(loan)
	return loan, nil
}

// clamp coerces invalid negative numeric inputs to 0.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// NormalizeAll normalizes a batch of records, isolating per-loan failures so
// one malformed record does not abort the batch. It returns the loans that
// normalized cleanly and a joined error describing the ones that did not.
func NormalizeAll(records []LoanRecord) ([]*Loan, error) {
	var errs []error
	normalized := make([]*Loan, 0, len(records))
	for _, r := range records {
		loan, err := r.Normalize()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		normalized = append(normalized, loan)
	}
	return normalized, errors.Join(errs...)
}

// TotalMonths returns the loan's contractual month count, independent of any
// deferral insertions.
func (l *Loan) TotalMonths() int { return (l.GraceYears + l.TermYears) * 12 }

// GraceMonths returns the number of contractual months in the grace window.
func (l *Loan) GraceMonths() int { return l.GraceYears * 12 }

// MonthlyRate returns the monthly interest rate derived from the annual
// nominal rate.
func (l *Loan) MonthlyRate() float64 { return l.NominalRate / 12 }

// Record converts the canonical loan back to its raw store shape.
func (l *Loan) Record() (LoanRecord, error) {
	rec := LoanRecord{
		ID:             l.ID,
		Name:           l.Name,
		School:         l.School,
		LoanStartDate:  l.LoanStartDate.String(),
		PurchaseDate:   l.PurchaseDate.String(),
		Principal:      l.Principal,
		PurchasePrice:  l.PurchasePrice,
		NominalRate:    l.NominalRate,
		GraceYears:     l.GraceYears,
		UpfrontFee:     l.UpfrontFee,
		MonthlyFeeRate: l.MonthlyFeeRate,
		Ownership:      l.Ownership,
	}
	term := l.TermYears
	rec.TermYears = &term
	if len(l.Events) > 0 {
		raw, err := EncodeEvents(l.Events)
		if err != nil {
			return rec, fmt.Errorf("loan %s: encoding events: %w", l.ID, err)
		}
		rec.Events = raw
	}
	return rec, nil
}
