package strategy

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/priceflow/priceflow-backend/internal/domain"
)

// VolumeBreak maps a minimum quantity to the discount earned at that volume.
type VolumeBreak struct {
	MinQuantity        int
	DiscountPercentage decimal.Decimal
}

// DefaultVolumeBreaks is the standard quantity ladder. The zero-discount
// entry at quantity 1 keeps lookup total: every valid quantity matches a
// break.
func DefaultVolumeBreaks() []VolumeBreak {
	return []VolumeBreak{
		{MinQuantity: 1, DiscountPercentage: decimal.Zero},
		{MinQuantity: 5, DiscountPercentage: decimal.NewFromInt(5)},
		{MinQuantity: 10, DiscountPercentage: decimal.NewFromInt(8)},
		{MinQuantity: 20, DiscountPercentage: decimal.NewFromInt(12)},
		{MinQuantity: 50, DiscountPercentage: decimal.NewFromInt(15)},
		{MinQuantity: 100, DiscountPercentage: decimal.NewFromInt(20)},
	}
}

// VolumePricingStrategy extends fixed pricing with a quantity-break
// discount applied before the context's own modifiers. The earned discount
// is capped at the tier's maximum discount so volume alone can never push a
// tier past its discount policy.
type VolumePricingStrategy struct {
	breaks []VolumeBreak
}

// NewVolumePricingStrategy builds the strategy with the given breaks, or
// the default ladder when none are supplied. Breaks are kept sorted by
// minimum quantity.
func NewVolumePricingStrategy(breaks []VolumeBreak) *VolumePricingStrategy {
	if len(breaks) == 0 {
		breaks = DefaultVolumeBreaks()
	}
	sorted := make([]VolumeBreak, len(breaks))
	copy(sorted, breaks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity < sorted[j].MinQuantity
	})
	return &VolumePricingStrategy{breaks: sorted}
}

// discountFor returns the discount of the highest break the quantity
// reaches.
func (s *VolumePricingStrategy) discountFor(quantity int) decimal.Decimal {
	discount := decimal.Zero
	for _, b := range s.breaks {
		if quantity < b.MinQuantity {
			break
		}
		discount = b.DiscountPercentage
	}
	return discount
}

func (s *VolumePricingStrategy) CalculatePrice(pc PricingContext) (domain.Money, error) {
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

	volumeDiscount := s.discountFor(pc.Quantity)
	if maxDiscount := pc.Tier.MaxDiscountPercentage(); volumeDiscount.GreaterThan(maxDiscount) {
		volumeDiscount = maxDiscount
	}
	if volumeDiscount.IsPositive() {
		discount, err := domain.NewDiscountPercentage(volumeDiscount)
		if err != nil {
			return domain.Money{}, err
		}
		price, err = domain.NewMoney(discount.ApplyToAmount(price.Amount()), price.Currency())
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
