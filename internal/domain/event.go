package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DomainEvent is the contract every pricing event satisfies. Events are
// plain data carriers: the decision of when to emit one belongs to the
// orchestrating service, never to the calculation itself.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
}

// Severity levels for PricingRuleViolated.
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// MarginFloorBreached records a pricing attempt that was rejected because
// the calculated margin fell below the tier's floor. It carries enough data
// to reconstruct the rejected calculation without the original context.
// The calculation ID correlates back to the rejected attempt; a rejected
// calculation has no aggregate of its own.
type MarginFloorBreached struct {
	ProductID        string          `json:"productId"`
	Price            decimal.Decimal `json:"price"`
	Cost             decimal.Decimal `json:"cost"`
	Currency         string          `json:"currency"`
	CalculatedMargin decimal.Decimal `json:"calculatedMargin"`
	FloorMargin      decimal.Decimal `json:"floorMargin"`
	PricingTierType  PricingTierType `json:"pricingTierType"`
	CalculationID    uuid.UUID       `json:"calculationId"`
	OrderID          string          `json:"orderId,omitempty"`
	Occurred         time.Time       `json:"occurredAt"`
}

// NewMarginFloorBreached builds the event with a fresh timestamp.
// The timestamp is truncated to millisecond precision so the serialized
// form round-trips exactly.
func NewMarginFloorBreached(
	productID string,
	price, cost Money,
	calculatedMargin, floorMargin decimal.Decimal,
	tierType PricingTierType,
	calculationID uuid.UUID,
	orderID string,
) MarginFloorBreached {
	return MarginFloorBreached{
		ProductID:        productID,
		Price:            price.Amount(),
		Cost:             cost.Amount(),
		Currency:         price.Currency(),
		CalculatedMargin: calculatedMargin,
		FloorMargin:      floorMargin,
		PricingTierType:  tierType,
		CalculationID:    calculationID,
		OrderID:          orderID,
		Occurred:         time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (e MarginFloorBreached) EventName() string { return "pricing.margin_floor_breached" }

func (e MarginFloorBreached) OccurredAt() time.Time { return e.Occurred }

// AggregateID returns the calculation ID, not a persisted aggregate's
// identity.
func (e MarginFloorBreached) AggregateID() uuid.UUID { return e.CalculationID }

// PricingRuleViolated records a pricing governance violation, e.g. an
// attempt to stack multiple promotional campaigns on one order.
type PricingRuleViolated struct {
	RuleID    uuid.UUID         `json:"ruleId"`
	RuleName  string            `json:"ruleName"`
	Severity  string            `json:"severity"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
	OrderID   string            `json:"orderId,omitempty"`
	ProductID string            `json:"productId,omitempty"`
	Occurred  time.Time         `json:"occurredAt"`
}

// NewPricingRuleViolated builds the event with a fresh timestamp at
// millisecond precision.
func NewPricingRuleViolated(ruleID uuid.UUID, ruleName, severity, message string, context map[string]string, orderID, productID string) PricingRuleViolated {
	return PricingRuleViolated{
		RuleID:    ruleID,
		RuleName:  ruleName,
		Severity:  severity,
		Message:   message,
		Context:   context,
		OrderID:   orderID,
		ProductID: productID,
		Occurred:  time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (e PricingRuleViolated) EventName() string { return "pricing.rule_violated" }

func (e PricingRuleViolated) OccurredAt() time.Time { return e.Occurred }

func (e PricingRuleViolated) AggregateID() uuid.UUID { return e.RuleID }
