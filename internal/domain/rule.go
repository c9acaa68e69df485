package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RuleConditionType enumerates what a pricing rule condition tests.
type RuleConditionType string

const (
	ConditionCustomerSegment RuleConditionType = "CUSTOMER_SEGMENT"
	ConditionProductCategory RuleConditionType = "PRODUCT_CATEGORY"
	ConditionMinimumQuantity RuleConditionType = "MINIMUM_QUANTITY"
	ConditionMinimumSpend    RuleConditionType = "MINIMUM_SPEND"
	ConditionTimeBased       RuleConditionType = "TIME_BASED"
	ConditionFirstPurchase   RuleConditionType = "FIRST_PURCHASE"
)

// RuleCondition is a single predicate that determines when a pricing rule
// applies. Conditions are evaluated by the campaign management layer; the
// calculation core only carries them.
type RuleCondition struct {
	Type     RuleConditionType `json:"type"`
	Operator string            `json:"operator,omitempty"` // EQUALS, GREATER_THAN, ...
	Value    string            `json:"value"`
}

// PricingRule describes when a price modifier applies: its conditions, the
// tiers it covers and an optional effective window.
type PricingRule struct {
	ID              uuid.UUID
	Name            string
	Description     string
	Conditions      []RuleCondition
	Modifier        PriceModifier
	ApplicableTiers []PricingTier
	StartDate       *time.Time
	EndDate         *time.Time
	Active          bool
	Priority        int
}

// NewPricingRule validates and creates a pricing rule.
func NewPricingRule(
	name, description string,
	conditions []RuleCondition,
	modifier PriceModifier,
	applicableTiers []PricingTier,
	startDate, endDate *time.Time,
	active bool,
	priority int,
) (*PricingRule, error) {
	if name == "" {
		return nil, errors.New("pricing rule name cannot be empty")
	}
	if len(conditions) == 0 {
		return nil, errors.New("pricing rule must have at least one condition")
	}
	if len(applicableTiers) == 0 {
		return nil, errors.New("pricing rule must apply to at least one pricing tier")
	}
	if startDate != nil && endDate != nil && startDate.After(*endDate) {
		return nil, errors.New("pricing rule start date must be before end date")
	}

	return &PricingRule{
		ID:              uuid.New(),
		Name:            name,
		Description:     description,
		Conditions:      conditions,
		Modifier:        modifier,
		ApplicableTiers: applicableTiers,
		StartDate:       startDate,
		EndDate:         endDate,
		Active:          active,
		Priority:        priority,
	}, nil
}

// IsApplicableTo reports whether the rule covers the given tier.
func (r *PricingRule) IsApplicableTo(tier PricingTier) bool {
	for _, t := range r.ApplicableTiers {
		if t.Equals(tier) {
			return true
		}
	}
	return false
}

// IsEffectiveAt reports whether the rule is active and inside its
// effective window at the given time. A missing boundary is open-ended.
func (r *PricingRule) IsEffectiveAt(at time.Time) bool {
	if !r.Active {
		return false
	}
	if r.StartDate != nil && at.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && at.After(*r.EndDate) {
		return false
	}
	return true
}
