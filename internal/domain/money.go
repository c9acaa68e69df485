package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents an immutable monetary amount in a single currency.
// Instances are only built through NewMoney, so an existing Money value is
// guaranteed to hold a non-negative amount and a non-empty currency code.
// Every arithmetic operation returns a new Money and leaves the receiver
// untouched.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney creates a Money value after validating the amount and currency.
// Returns an error if the amount is negative or the currency code is empty.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("money amount cannot be negative (got %s)", amount)
	}

	currency = strings.TrimSpace(currency)
	if currency == "" {
		return Money{}, errors.New("money currency cannot be empty")
	}

	return Money{amount: amount, currency: currency}, nil
}

// Amount returns the decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code.
func (m Money) Currency() string {
	return m.currency
}

// Add returns a new Money with the sum of both amounts.
// Fails when the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: cannot add %s to %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns a new Money with the difference of both amounts.
// Fails when the currencies differ or the result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: cannot subtract %s from %s", other.currency, m.currency)
	}

	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, fmt.Errorf("insufficient amount: cannot subtract %s %s from %s %s",
			other.amount, other.currency, m.amount, m.currency)
	}

	return Money{amount: result, currency: m.currency}, nil
}

// Multiply returns a new Money scaled by the given factor.
// Fails when the factor is negative.
func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, fmt.Errorf("multiplication factor cannot be negative (got %s)", factor)
	}
	return Money{amount: m.amount.Mul(factor), currency: m.currency}, nil
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Equals reports value equality: same currency and numerically equal amount.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount, m.currency)
}
