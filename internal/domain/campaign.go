package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CampaignType classifies a promotional campaign.
type CampaignType string

const (
	CampaignSeasonal            CampaignType = "SEASONAL"
	CampaignClearance           CampaignType = "CLEARANCE"
	CampaignNewProduct          CampaignType = "NEW_PRODUCT"
	CampaignCustomerAcquisition CampaignType = "CUSTOMER_ACQUISITION"
	CampaignLoyalty             CampaignType = "LOYALTY"
	CampaignBundle              CampaignType = "BUNDLE"
)

// CampaignStatus tracks the campaign lifecycle.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignScheduled CampaignStatus = "SCHEDULED"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignPaused    CampaignStatus = "PAUSED"
	CampaignCompleted CampaignStatus = "COMPLETED"
	CampaignCancelled CampaignStatus = "CANCELLED"
)

// PromotionalCampaign is a time-bound promotion carrying a price modifier
// and the rules that determine when it applies.
type PromotionalCampaign struct {
	ID                uuid.UUID
	Name              string
	Description       string
	Type              CampaignType
	Status            CampaignStatus
	StartDate         time.Time
	EndDate           time.Time
	ApplicableTiers   []PricingTier
	Modifier          PriceModifier
	Rules             []*PricingRule
	ProductIDs        []string
	MaxUsageCount     *int
	CurrentUsageCount int
	Code              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewPromotionalCampaign validates and creates a campaign in DRAFT status.
func NewPromotionalCampaign(
	name, description string,
	campaignType CampaignType,
	startDate, endDate time.Time,
	applicableTiers []PricingTier,
	modifier PriceModifier,
	rules []*PricingRule,
	productIDs []string,
	maxUsageCount *int,
	code string,
) (*PromotionalCampaign, error) {
	if name == "" {
		return nil, errors.New("campaign name cannot be empty")
	}
	if !startDate.Before(endDate) {
		return nil, errors.New("campaign start date must be before end date")
	}
	if len(applicableTiers) == 0 {
		return nil, errors.New("campaign must specify at least one applicable pricing tier")
	}
	if len(rules) == 0 {
		return nil, errors.New("campaign must specify at least one pricing rule")
	}
	if len(productIDs) == 0 {
		return nil, errors.New("campaign must specify at least one product ID")
	}
	if maxUsageCount != nil && *maxUsageCount <= 0 {
		return nil, errors.New("campaign maximum usage count must be positive")
	}

	now := time.Now().UTC()
	return &PromotionalCampaign{
		ID:              uuid.New(),
		Name:            name,
		Description:     description,
		Type:            campaignType,
		Status:          CampaignDraft,
		StartDate:       startDate,
		EndDate:         endDate,
		ApplicableTiers: applicableTiers,
		Modifier:        modifier,
		Rules:           rules,
		ProductIDs:      productIDs,
		MaxUsageCount:   maxUsageCount,
		Code:            code,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// IsApplicableTo reports whether the campaign covers the given tier.
func (c *PromotionalCampaign) IsApplicableTo(tier PricingTier) bool {
	for _, t := range c.ApplicableTiers {
		if t.Equals(tier) {
			return true
		}
	}
	return false
}

// AppliesToProduct reports whether the campaign covers the given product.
func (c *PromotionalCampaign) AppliesToProduct(productID string) bool {
	for _, id := range c.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// IsCurrentlyActive reports whether the campaign can be applied at the
// given time: ACTIVE status, inside the date window, usage limit not
// reached.
func (c *PromotionalCampaign) IsCurrentlyActive(at time.Time) bool {
	return c.Status == CampaignActive &&
		!at.Before(c.StartDate) &&
		!at.After(c.EndDate) &&
		!c.HasReachedUsageLimit()
}

// HasReachedUsageLimit reports whether the usage cap, if any, is exhausted.
func (c *PromotionalCampaign) HasReachedUsageLimit() bool {
	return c.MaxUsageCount != nil && c.CurrentUsageCount >= *c.MaxUsageCount
}

// IncrementUsage counts one application of the campaign.
func (c *PromotionalCampaign) IncrementUsage() error {
	if c.HasReachedUsageLimit() {
		return errors.New("campaign has reached its usage limit")
	}
	c.CurrentUsageCount++
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate moves the campaign to ACTIVE. Only DRAFT, SCHEDULED and PAUSED
// campaigns can be activated, and never after the campaign has ended.
func (c *PromotionalCampaign) Activate(at time.Time) error {
	switch c.Status {
	case CampaignDraft, CampaignScheduled, CampaignPaused:
	default:
		return fmt.Errorf("cannot activate campaign with status %s", c.Status)
	}

	if at.After(c.EndDate) {
		return errors.New("cannot activate a campaign that has already ended")
	}

	c.Status = CampaignActive
	c.UpdatedAt = at
	return nil
}

// Pause suspends an ACTIVE campaign.
func (c *PromotionalCampaign) Pause() error {
	if c.Status != CampaignActive {
		return fmt.Errorf("cannot pause campaign with status %s", c.Status)
	}
	c.Status = CampaignPaused
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete ends the campaign normally.
func (c *PromotionalCampaign) Complete() error {
	switch c.Status {
	case CampaignActive, CampaignPaused, CampaignScheduled:
	default:
		return fmt.Errorf("cannot complete campaign with status %s", c.Status)
	}
	c.Status = CampaignCompleted
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel aborts the campaign unless it already finished.
func (c *PromotionalCampaign) Cancel() error {
	if c.Status == CampaignCompleted || c.Status == CampaignCancelled {
		return fmt.Errorf("cannot cancel campaign with status %s", c.Status)
	}
	c.Status = CampaignCancelled
	c.UpdatedAt = time.Now().UTC()
	return nil
}
