package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PricingTierType identifies a customer/channel segment. The set is closed
// and known at compile time; an unrecognized value reaching a tier accessor
// is a programming defect, not a business-rule failure.
type PricingTierType string

const (
	TierGuest      PricingTierType = "GUEST"      // Unregistered customers
	TierRetail     PricingTierType = "RETAIL"     // Registered individual consumers (B2C)
	TierCommercial PricingTierType = "COMMERCIAL" // Food trucks, small restaurants
	TierWholesale  PricingTierType = "WHOLESALE"  // Mini-markets, larger establishments
	TierImporter   PricingTierType = "IMPORTER"   // Regional importers at FOB prices
)

// ParsePricingTierType converts wire input into a tier type.
// Unknown input is a validation failure (callers pass user data here).
func ParsePricingTierType(s string) (PricingTierType, error) {
	switch PricingTierType(strings.ToUpper(strings.TrimSpace(s))) {
	case TierGuest:
		return TierGuest, nil
	case TierRetail:
		return TierRetail, nil
	case TierCommercial:
		return TierCommercial, nil
	case TierWholesale:
		return TierWholesale, nil
	case TierImporter:
		return TierImporter, nil
	default:
		return "", fmt.Errorf("invalid pricing tier type: %q", s)
	}
}

// PricingTier is reference data describing a segment's pricing policy:
// its base markup and the minimum gross margin it permits. Tiers are
// immutable once created.
type PricingTier struct {
	tierType PricingTierType
	name     string
}

// NewPricingTier creates a tier for a known tier type.
func NewPricingTier(tierType PricingTierType) (PricingTier, error) {
	switch tierType {
	case TierGuest, TierRetail, TierCommercial, TierWholesale, TierImporter:
	default:
		return PricingTier{}, fmt.Errorf("invalid pricing tier type: %q", tierType)
	}

	name := string(tierType[0]) + strings.ToLower(string(tierType[1:]))
	return PricingTier{tierType: tierType, name: name}, nil
}

// MustNewPricingTier is a convenience for static tier construction; it
// panics on an unknown tier type.
func MustNewPricingTier(tierType PricingTierType) PricingTier {
	tier, err := NewPricingTier(tierType)
	if err != nil {
		panic(err)
	}
	return tier
}

// Type returns the tier type.
func (t PricingTier) Type() PricingTierType {
	return t.tierType
}

// Name returns the display name, e.g. "Wholesale".
func (t PricingTier) Name() string {
	return t.name
}

// BaseMarkupPercentage returns the default markup applied to base cost for
// this segment.
func (t PricingTier) BaseMarkupPercentage() decimal.Decimal {
	switch t.tierType {
	case TierGuest, TierRetail:
		return decimal.NewFromInt(150)
	case TierCommercial:
		return decimal.NewFromInt(125)
	case TierWholesale:
		return decimal.NewFromInt(100)
	case TierImporter:
		return decimal.NewFromInt(60)
	default:
		panic(fmt.Sprintf("unknown pricing tier type: %q", t.tierType))
	}
}

// MaxDiscountPercentage returns the deepest discount the segment allows.
func (t PricingTier) MaxDiscountPercentage() decimal.Decimal {
	switch t.tierType {
	case TierGuest, TierImporter:
		return decimal.NewFromInt(15)
	case TierRetail:
		return decimal.NewFromInt(20)
	case TierCommercial:
		return decimal.NewFromInt(25)
	case TierWholesale:
		return decimal.NewFromInt(30)
	default:
		panic(fmt.Sprintf("unknown pricing tier type: %q", t.tierType))
	}
}

// FloorGrossMarginPercentage returns the minimum acceptable gross margin
// (as a percentage of the selling price) for this segment. Prices whose
// margin falls below this floor are rejected.
// Each floor is satisfiable at the tier's base markup, with headroom for
// the tier's maximum discount.
func (t PricingTier) FloorGrossMarginPercentage() decimal.Decimal {
	switch t.tierType {
	case TierGuest, TierRetail:
		return decimal.NewFromInt(50)
	case TierCommercial:
		return decimal.NewFromInt(40)
	case TierWholesale:
		return decimal.NewFromInt(25)
	case TierImporter:
		return decimal.NewFromInt(20)
	default:
		panic(fmt.Sprintf("unknown pricing tier type: %q", t.tierType))
	}
}

// TargetGrossMarginPercentage returns the margin the segment aims for under
// normal (undiscounted) pricing.
func (t PricingTier) TargetGrossMarginPercentage() decimal.Decimal {
	switch t.tierType {
	case TierGuest, TierRetail:
		return decimal.NewFromInt(58)
	case TierCommercial:
		return decimal.NewFromInt(52)
	case TierWholesale:
		return decimal.NewFromInt(45)
	case TierImporter:
		return decimal.NewFromInt(33)
	default:
		panic(fmt.Sprintf("unknown pricing tier type: %q", t.tierType))
	}
}

// Equals reports value-based equality by tier type.
func (t PricingTier) Equals(other PricingTier) bool {
	return t.tierType == other.tierType
}

func (t PricingTier) String() string {
	return string(t.tierType)
}
