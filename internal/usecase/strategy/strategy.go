package strategy

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/priceflow/priceflow-backend/internal/domain"
)

// Kind selects a pricing strategy variant. Variants are chosen by explicit
// configuration, never by runtime type inspection.
type Kind string

const (
	KindFixed  Kind = "FIXED"
	KindVolume Kind = "VOLUME"
)

// ParseKind parses a strategy kind from its string form.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(s))) {
	case KindFixed:
		return KindFixed, nil
	case KindVolume:
		return KindVolume, nil
	default:
		return "", fmt.Errorf("unknown pricing strategy kind: %q", s)
	}
}

// PricingContext carries everything a strategy needs to price one line.
// It is a plain input: strategies never mutate it.
type PricingContext struct {
	BaseCost               domain.Money
	Quantity               int
	Tier                   domain.PricingTier
	UseCustomMarkup        bool
	CustomMarkupPercentage *decimal.Decimal
	Modifiers              []domain.PriceModifier
}

// PricingStrategy computes a final price for a pricing context.
// Business-rule failures come back as errors; a margin-floor rejection is
// always a *domain.MarginFloorError so callers can branch on it.
type PricingStrategy interface {
	CalculatePrice(pc PricingContext) (domain.Money, error)
}

var oneHundred = decimal.NewFromInt(100)

// marginPercentage computes the gross margin of price over totalCost as a
// percentage of price.
func marginPercentage(price, totalCost domain.Money) decimal.Decimal {
	if price.Amount().IsZero() {
		return decimal.Zero
	}
	return price.Amount().Sub(totalCost.Amount()).Div(price.Amount()).Mul(oneHundred)
}

// verifyMarginFloor checks the final price against the tier's floor margin.
// A price of zero (a 100% discount) always breaches a positive floor.
func verifyMarginFloor(price, totalCost domain.Money, tier domain.PricingTier) *domain.MarginFloorError {
	margin := marginPercentage(price, totalCost)
	floor := tier.FloorGrossMarginPercentage()
	if margin.LessThan(floor) {
		return &domain.MarginFloorError{
			Tier:             tier.Type(),
			Price:            price,
			Cost:             totalCost,
			CalculatedMargin: margin,
			FloorMargin:      floor,
		}
	}
	return nil
}

// resolveMarkup picks the custom markup when requested, else the tier's
// base markup, validating the resolved value.
func resolveMarkup(pc PricingContext) (domain.MarkupPercentage, error) {
	if pc.UseCustomMarkup && pc.CustomMarkupPercentage != nil {
		return domain.NewMarkupPercentage(*pc.CustomMarkupPercentage)
	}
	return domain.NewMarkupPercentage(pc.Tier.BaseMarkupPercentage())
}

// applyModifiers applies the context's modifiers in descending priority
// order. The first failing modifier aborts with its name in the error.
func applyModifiers(price domain.Money, modifiers []domain.PriceModifier) (domain.Money, error) {
	for _, m := range domain.SortModifiersByPriority(modifiers) {
		next, err := m.Apply(price)
		if err != nil {
			return domain.Money{}, fmt.Errorf("applying modifier %q: %w", m.Name(), err)
		}
		price = next
	}
	return price, nil
}

// totalCost scales the base cost by quantity.
func totalCost(pc PricingContext) (domain.Money, error) {
	if pc.Quantity > 1 {
		return pc.BaseCost.Multiply(decimalFromQuantity(pc.Quantity))
	}
	return pc.BaseCost, nil
}

func decimalFromQuantity(quantity int) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity))
}
