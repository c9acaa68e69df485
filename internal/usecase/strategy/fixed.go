package strategy

import (
	"errors"

	"github.com/priceflow/priceflow-backend/internal/domain"
)

// FixedPricingStrategy prices a line by applying a fixed markup (the tier's
// base markup or a validated custom override) to the base cost, scaling by
// quantity, running the modifiers and enforcing the tier's margin floor.
type FixedPricingStrategy struct{}

func NewFixedPricingStrategy() *FixedPricingStrategy {
	return &FixedPricingStrategy{}
}

// CalculatePrice is a pure function of its context: identical inputs yield
// identical results.
func (s *FixedPricingStrategy) CalculatePrice(pc PricingContext) (domain.Money, error) {
	if pc.Quantity < 1 {
		return domain.Money{}, errors.New("quantity must be at least 1")
	}

	markup, err := resolveMarkup(pc)
	if err != nil {
		return domain.Money{}, err
	}

	unitPrice, err := domain.NewMoney(markup.ApplyToAmount(pc.BaseCost.Amount()), pc.BaseCost.Currency())
	if err != nil {
		return domain.Money{}, err
	}

	price := unitPrice
	if pc.Quantity > 1 {
		price, err = unitPrice.Multiply(decimalFromQuantity(pc.Quantity))
		if err != nil {
			return domain.Money{}, err
		}
	}

	price, err = applyModifiers(price, pc.Modifiers)
	if err != nil {
		return domain.Money{}, err
	}

	cost, err := totalCost(pc)
	if err != nil {
		return domain.Money{}, err
	}
	if floorErr := verifyMarginFloor(price, cost, pc.Tier); floorErr != nil {
		return domain.Money{}, floorErr
	}

	return price, nil
}
