package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ModifierKind discriminates the adjustment a PriceModifier performs.
type ModifierKind string

const (
	ModifierPercentageDiscount  ModifierKind = "PERCENTAGE_DISCOUNT"
	ModifierFixedDiscount       ModifierKind = "FIXED_DISCOUNT"
	ModifierPercentageSurcharge ModifierKind = "PERCENTAGE_SURCHARGE"
	ModifierFixedSurcharge      ModifierKind = "FIXED_SURCHARGE"
)

// PriceModifier is a named, prioritized price adjustment (promotion,
// surcharge). Modifiers sharing a calculation are applied in descending
// priority order; ties keep insertion order. Each modifier consumes the
// output of the previous one, so the ordering rule is load-bearing:
// percentage-then-fixed does not equal fixed-then-percentage.
type PriceModifier struct {
	kind        ModifierKind
	name        string
	description string
	value       decimal.Decimal
	currency    string // set for fixed kinds only
	priority    int
	promotional bool
}

// NewPercentageDiscount creates a modifier that removes a percentage of the
// price. The percentage must be a valid DiscountPercentage.
func NewPercentageDiscount(name, description string, percentage decimal.Decimal, priority int) (PriceModifier, error) {
	if _, err := NewDiscountPercentage(percentage); err != nil {
		return PriceModifier{}, err
	}
	if name == "" {
		return PriceModifier{}, errors.New("price modifier name cannot be empty")
	}

	return PriceModifier{
		kind:        ModifierPercentageDiscount,
		name:        name,
		description: description,
		value:       percentage,
		priority:    priority,
	}, nil
}

// NewFixedDiscount creates a modifier that subtracts a fixed amount from
// the price. The amount must be positive and carry the currency it is
// denominated in.
func NewFixedDiscount(name, description string, amount decimal.Decimal, currency string, priority int) (PriceModifier, error) {
	if name == "" {
		return PriceModifier{}, errors.New("price modifier name cannot be empty")
	}
	if currency == "" {
		return PriceModifier{}, errors.New("currency is required for a fixed discount")
	}
	if !amount.IsPositive() {
		return PriceModifier{}, errors.New("fixed discount amount must be positive")
	}

	return PriceModifier{
		kind:        ModifierFixedDiscount,
		name:        name,
		description: description,
		value:       amount,
		currency:    currency,
		priority:    priority,
	}, nil
}

// NewPercentageSurcharge creates a modifier that adds a percentage of the
// price on top. The percentage must be in (0, 100].
func NewPercentageSurcharge(name, description string, percentage decimal.Decimal, priority int) (PriceModifier, error) {
	if name == "" {
		return PriceModifier{}, errors.New("price modifier name cannot be empty")
	}
	if !percentage.IsPositive() || percentage.GreaterThan(oneHundred) {
		return PriceModifier{}, fmt.Errorf("percentage surcharge must be between 0 and 100 (got %s)", percentage)
	}

	return PriceModifier{
		kind:        ModifierPercentageSurcharge,
		name:        name,
		description: description,
		value:       percentage,
		priority:    priority,
	}, nil
}

// NewFixedSurcharge creates a modifier that adds a fixed amount to the
// price.
func NewFixedSurcharge(name, description string, amount decimal.Decimal, currency string, priority int) (PriceModifier, error) {
	if name == "" {
		return PriceModifier{}, errors.New("price modifier name cannot be empty")
	}
	if currency == "" {
		return PriceModifier{}, errors.New("currency is required for a fixed surcharge")
	}
	if !amount.IsPositive() {
		return PriceModifier{}, errors.New("fixed surcharge amount must be positive")
	}

	return PriceModifier{
		kind:        ModifierFixedSurcharge,
		name:        name,
		description: description,
		value:       amount,
		currency:    currency,
		priority:    priority,
	}, nil
}

// NewPriceModifier rebuilds a modifier from its stored parts, running the
// kind's constructor validation. Used when loading persisted campaigns.
func NewPriceModifier(kind ModifierKind, name, description string, value decimal.Decimal, currency string, priority int) (PriceModifier, error) {
	switch kind {
	case ModifierPercentageDiscount:
		return NewPercentageDiscount(name, description, value, priority)
	case ModifierFixedDiscount:
		return NewFixedDiscount(name, description, value, currency, priority)
	case ModifierPercentageSurcharge:
		return NewPercentageSurcharge(name, description, value, priority)
	case ModifierFixedSurcharge:
		return NewFixedSurcharge(name, description, value, currency, priority)
	default:
		return PriceModifier{}, fmt.Errorf("unknown price modifier kind: %q", kind)
	}
}

// Kind returns the modifier kind.
func (m PriceModifier) Kind() ModifierKind { return m.kind }

// Name returns the modifier name.
func (m PriceModifier) Name() string { return m.name }

// Description returns the human-readable description.
func (m PriceModifier) Description() string { return m.description }

// Value returns the percentage or fixed amount, depending on the kind.
func (m PriceModifier) Value() decimal.Decimal { return m.value }

// Currency returns the currency for fixed kinds; empty for percentage kinds.
func (m PriceModifier) Currency() string { return m.currency }

// Priority returns the application priority; higher applies earlier.
func (m PriceModifier) Priority() int { return m.priority }

// Apply transforms the given price according to the modifier kind and
// returns the adjusted price. Failures carry a human-readable reason
// (currency mismatch, discount exceeding the price).
func (m PriceModifier) Apply(price Money) (Money, error) {
	switch m.kind {
	case ModifierPercentageDiscount:
		discount, err := NewDiscountPercentage(m.value)
		if err != nil {
			return Money{}, err
		}
		return price.Multiply(discount.Multiplier())

	case ModifierPercentageSurcharge:
		return price.Multiply(decimal.NewFromInt(1).Add(m.value.Div(oneHundred)))

	case ModifierFixedDiscount:
		if m.currency != price.Currency() {
			return Money{}, fmt.Errorf("currency mismatch: price is in %s but discount is in %s", price.Currency(), m.currency)
		}
		deduction, err := NewMoney(m.value, m.currency)
		if err != nil {
			return Money{}, err
		}
		return price.Subtract(deduction)

	case ModifierFixedSurcharge:
		if m.currency != price.Currency() {
			return Money{}, fmt.Errorf("currency mismatch: price is in %s but surcharge is in %s", price.Currency(), m.currency)
		}
		surcharge, err := NewMoney(m.value, m.currency)
		if err != nil {
			return Money{}, err
		}
		return price.Add(surcharge)

	default:
		return Money{}, fmt.Errorf("unknown price modifier kind: %q", m.kind)
	}
}

// AsPromotional returns a copy of the modifier marked as a promotional
// discount. Campaign modifiers are marked at quotation time so the
// stacking limit holds regardless of how the campaign is named.
func (m PriceModifier) AsPromotional() PriceModifier {
	m.promotional = true
	return m
}

// IsPromotional reports whether the modifier counts against the
// promotion stacking limit. A discount counts when it carries the
// promotional mark or, for ad-hoc modifiers, when its name says so.
func (m PriceModifier) IsPromotional() bool {
	if !m.IsDiscount() {
		return false
	}
	return m.promotional || strings.Contains(strings.ToLower(m.name), "promo")
}

// IsDiscount reports whether the modifier reduces the price.
func (m PriceModifier) IsDiscount() bool {
	return m.kind == ModifierPercentageDiscount || m.kind == ModifierFixedDiscount
}

// IsSurcharge reports whether the modifier increases the price.
func (m PriceModifier) IsSurcharge() bool {
	return m.kind == ModifierPercentageSurcharge || m.kind == ModifierFixedSurcharge
}

// IsPercentage reports whether the modifier value is a percentage.
func (m PriceModifier) IsPercentage() bool {
	return m.kind == ModifierPercentageDiscount || m.kind == ModifierPercentageSurcharge
}

// IsFixed reports whether the modifier value is a fixed amount.
func (m PriceModifier) IsFixed() bool {
	return m.kind == ModifierFixedDiscount || m.kind == ModifierFixedSurcharge
}

func (m PriceModifier) String() string {
	switch m.kind {
	case ModifierPercentageDiscount:
		return fmt.Sprintf("%s: %s%% discount", m.name, m.value)
	case ModifierFixedDiscount:
		return fmt.Sprintf("%s: %s %s discount", m.name, m.currency, m.value)
	case ModifierPercentageSurcharge:
		return fmt.Sprintf("%s: %s%% surcharge", m.name, m.value)
	case ModifierFixedSurcharge:
		return fmt.Sprintf("%s: %s %s surcharge", m.name, m.currency, m.value)
	default:
		return fmt.Sprintf("%s: unknown modifier", m.name)
	}
}

// SortModifiersByPriority returns a copy of the modifiers sorted by
// descending priority. The sort is stable: priority does not guarantee
// uniqueness, and ties must keep insertion order.
func SortModifiersByPriority(modifiers []PriceModifier) []PriceModifier {
	sorted := make([]PriceModifier, len(modifiers))
	copy(sorted, modifiers)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority > sorted[j].priority
	})

	return sorted
}
