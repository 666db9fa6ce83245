package payroll

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal digits kept for every amount.
const MoneyScale = 2

var hundred = decimal.NewFromInt(100)

// Money is a non-negative currency amount with two decimal digits.
// All arithmetic rounds half-up at MoneyScale; subtraction clamps at zero.
type Money struct {
	amount decimal.Decimal
}

func Zero() Money {
	return Money{}
}

// NewMoney rejects negative amounts and rounds to MoneyScale.
func NewMoney(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrNegativeAmount, d.String())
	}
	return Money{amount: d.Round(MoneyScale)}, nil
}

func MoneyFromInt(n int64) Money {
	m, err := NewMoney(decimal.NewFromInt(n))
	if err != nil {
		panic(err)
	}
	return m
}

// MustMoney parses s and panics on malformed or negative input. Intended for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	m, err := NewMoney(d)
	if err != nil {
		panic(err)
	}
	return m
}

func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d)
}

func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount).Round(MoneyScale)}
}

// Sub never goes below zero.
func (m Money) Sub(o Money) Money {
	r := m.amount.Sub(o.amount)
	if r.IsNegative() {
		return Zero()
	}
	return Money{amount: r.Round(MoneyScale)}
}

// Percentage returns p percent of m, e.g. Percentage(9) is 9%.
func (m Money) Percentage(p decimal.Decimal) Money {
	r := m.amount.Mul(p).DivRound(hundred, MoneyScale)
	if r.IsNegative() {
		return Zero()
	}
	return Money{amount: r}
}

func (m Money) MulInt(n int) Money {
	if n <= 0 {
		return Zero()
	}
	return Money{amount: m.amount.Mul(decimal.NewFromInt(int64(n))).Round(MoneyScale)}
}

// ProratedOver divides by n. n <= 0 yields zero.
func (m Money) ProratedOver(n int) Money {
	if n <= 0 {
		return Zero()
	}
	return Money{amount: m.amount.DivRound(decimal.NewFromInt(int64(n)), MoneyScale)}
}

func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func (m Money) Cmp(o Money) int {
	return m.amount.Cmp(o.amount)
}

func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) String() string {
	return m.amount.StringFixed(MoneyScale)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	parsed, err := NewMoney(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalCSV lets gocsv write amounts with a fixed scale.
func (m Money) MarshalCSV() (string, error) {
	return m.String(), nil
}

// Value stores amounts as fixed-scale text; both NUMERIC and TEXT columns accept it.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *Money) Scan(src interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	parsed, err := NewMoney(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
