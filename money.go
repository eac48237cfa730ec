package loans

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a monetary value in the reporting currency, used when
// rendering reports. The engine itself computes in float64 rounded to two
// decimals; Money exists to format those values consistently.
type Money struct {
	value decimal.Decimal // as major unit value
	cur   string
}

// ReportingCurrency is the single currency the dashboard reports in.
// Multi-currency computation is out of scope.
const ReportingCurrency = "USD"

// M creates a Money in the given currency.
func M(value float64, currency string) Money {
	return Money{value: decimal.NewFromFloat(value), cur: currency}
}

// USD creates a Money in the reporting currency.
func USD(value float64) Money { return M(value, ReportingCurrency) }

// currency returns the money's currency, never nil.
func (m Money) currency() money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return *money.New(0, m.cur).Currency()
}

// String returns the string representation of the money value.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.IntPart())
}

func (m Money) Currency() string   { return m.cur }
func (m Money) IsZero() bool       { return m.value.IsZero() }
func (m Money) IsNegative() bool   { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) Add(n Money) Money  { return Money{value: m.value.Add(n.value), cur: m.cur} }

// SignedString returns the string representation of the money value with a
// sign. Zero is represented as "-".
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// Percent is a ratio expressed in percent points (5.0 means 5%).
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return decimal.NewFromFloat(float64(p)).Round(2).String() + "%"
}

func (p Percent) SignedString() string {
	if p.Equal(0) {
		return "-"
	}
	if p > 0 {
		return "+" + p.String()
	}
	return p.String()
}
