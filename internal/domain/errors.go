package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MarginFloorError is the policy failure returned when a calculated price
// falls below a tier's margin floor. It is a typed error (rather than a
// plain message) so callers can tell a policy rejection apart from a
// validation failure and translate it into a MarginFloorBreached audit
// event. Price and Cost are the exact values the check rejected; the
// audit record is built from them, never recomputed.
type MarginFloorError struct {
	Tier             PricingTierType
	Price            Money           // the rejected total price
	Cost             Money           // the total cost for the quantity
	CalculatedMargin decimal.Decimal // percentage of the selling price
	FloorMargin      decimal.Decimal
}

func (e *MarginFloorError) Error() string {
	return fmt.Sprintf("calculated margin (%s%%) is below the floor margin (%s%%) for tier %s",
		e.CalculatedMargin.StringFixed(2), e.FloorMargin, e.Tier)
}
