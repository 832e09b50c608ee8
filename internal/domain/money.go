package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyCodeLength is the fixed length of a currency code.
const CurrencyCodeLength = 3

// Money is an immutable decimal amount in a single currency.
//
// Negative amounts can be built directly (fees, rebates, realized losses),
// but Sub refuses to produce one.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney creates Money after normalizing and validating the currency code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != CurrencyCodeLength {
		return Money{}, fmt.Errorf("%w: %q must be %d characters", ErrInvalidCurrency, currency, CurrencyCodeLength)
	}

	return Money{amount: amount, currency: code}, nil
}

// MustMoney is NewMoney for literals known to be valid.
func MustMoney(amount, currency string) Money {
	m, err := NewMoney(decimal.RequireFromString(amount), currency)
	if err != nil {
		panic(err)
	}
	return m
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) (Money, error) {
	return NewMoney(decimal.Zero, currency)
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// Equal reports whether both amount and currency match.
func (m Money) Equal(n Money) bool {
	return m.currency == n.currency && m.amount.Equal(n.amount)
}

// Add returns m + n.
func (m Money) Add(n Money) (Money, error) {
	if err := m.sameCurrency(n); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(n.amount), currency: m.currency}, nil
}

// Sub returns m - n and fails when the result would be negative.
func (m Money) Sub(n Money) (Money, error) {
	if err := m.sameCurrency(n); err != nil {
		return Money{}, err
	}

	result := m.amount.Sub(n.amount)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrMoneyUnderflow, m, n)
	}

	return Money{amount: result, currency: m.currency}, nil
}

// Mul scales the amount by a plain factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Neg flips the sign.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// GreaterThan compares amounts of the same currency.
func (m Money) GreaterThan(n Money) (bool, error) {
	if err := m.sameCurrency(n); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(n.amount), nil
}

// String formats known ISO currencies with their symbol and fraction digits.
func (m Money) String() string {
	cur := money.GetCurrency(m.currency)
	if cur == nil {
		return m.amount.String() + " " + m.currency
	}

	minor := m.amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

func (m Money) sameCurrency(n Money) error {
	if m.currency != n.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, n.currency)
	}
	return nil
}
