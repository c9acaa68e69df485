package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validation bounds for the percentage value objects.
// Markup and discount are kept as distinct types on purpose: they have
// different valid ranges and different sign conventions in the pricing
// formula, and keeping them apart prevents a markup value from silently
// being applied as a discount (or the other way around).
var (
	minPercentage      = decimal.Zero
	maxMarkupPercent   = decimal.NewFromInt(500)
	maxDiscountPercent = decimal.NewFromInt(100)

	oneHundred = decimal.NewFromInt(100)
)

// checkPercentageRange validates that value lies within [min, max].
func checkPercentageRange(value, min, max decimal.Decimal, label string) error {
	if value.LessThan(min) {
		return fmt.Errorf("%s percentage cannot be negative (got %s)", label, value)
	}
	if value.GreaterThan(max) {
		return fmt.Errorf("%s percentage cannot exceed %s%% (got %s%%)", label, max, value)
	}
	return nil
}

// MarkupPercentage is a bounded percentage in [0, 500] applied on top of a
// base cost to derive a selling price.
type MarkupPercentage struct {
	value decimal.Decimal
}

// NewMarkupPercentage validates the range and returns the value object.
func NewMarkupPercentage(value decimal.Decimal) (MarkupPercentage, error) {
	if err := checkPercentageRange(value, minPercentage, maxMarkupPercent, "markup"); err != nil {
		return MarkupPercentage{}, err
	}
	return MarkupPercentage{value: value}, nil
}

// Value returns the raw percentage value.
func (m MarkupPercentage) Value() decimal.Decimal {
	return m.value
}

// Multiplier converts the percentage to a factor, e.g. 150% markup -> 2.5.
func (m MarkupPercentage) Multiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Add(m.value.Div(oneHundred))
}

// ApplyToAmount returns amount * (1 + value/100). The transform is a pure
// magnitude operation; wrapping the result back into a Money is the
// caller's job.
func (m MarkupPercentage) ApplyToAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(m.Multiplier())
}

// Add combines two markups, re-validating the combined value.
func (m MarkupPercentage) Add(other MarkupPercentage) (MarkupPercentage, error) {
	return NewMarkupPercentage(m.value.Add(other.value))
}

// Equals reports value-based equality.
func (m MarkupPercentage) Equals(other MarkupPercentage) bool {
	return m.value.Equal(other.value)
}

func (m MarkupPercentage) String() string {
	return fmt.Sprintf("%s%%", m.value)
}

// DiscountPercentage is a bounded percentage in [0, 100] subtracted from a
// price.
type DiscountPercentage struct {
	value decimal.Decimal
}

// NewDiscountPercentage validates the range and returns the value object.
func NewDiscountPercentage(value decimal.Decimal) (DiscountPercentage, error) {
	if err := checkPercentageRange(value, minPercentage, maxDiscountPercent, "discount"); err != nil {
		return DiscountPercentage{}, err
	}
	return DiscountPercentage{value: value}, nil
}

// Value returns the raw percentage value.
func (d DiscountPercentage) Value() decimal.Decimal {
	return d.value
}

// Multiplier converts the percentage to a factor, e.g. 20% discount -> 0.8.
func (d DiscountPercentage) Multiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(d.value.Div(oneHundred))
}

// ApplyToAmount returns amount * (1 - value/100). A 100% discount yields
// exactly zero.
func (d DiscountPercentage) ApplyToAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(d.Multiplier())
}

// Add combines two discounts additively (10% + 20% = 30%), re-validating
// the combined value. This is additive, not compounding.
func (d DiscountPercentage) Add(other DiscountPercentage) (DiscountPercentage, error) {
	return NewDiscountPercentage(d.value.Add(other.value))
}

// GreaterThan reports whether this discount is deeper than the other.
func (d DiscountPercentage) GreaterThan(other DiscountPercentage) bool {
	return d.value.GreaterThan(other.value)
}

// Equals reports value-based equality.
func (d DiscountPercentage) Equals(other DiscountPercentage) bool {
	return d.value.Equal(other.value)
}

func (d DiscountPercentage) String() string {
	return fmt.Sprintf("%s%%", d.value)
}
