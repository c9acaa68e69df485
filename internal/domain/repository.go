package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrCampaignNotFound is returned by CampaignRepository lookups that match
// nothing.
var ErrCampaignNotFound = errors.New("campaign not found")

// CampaignRepository defines the interface for promotional campaign
// persistence operations.
type CampaignRepository interface {
	// Save inserts or updates a campaign with all its rules.
	Save(ctx context.Context, campaign *PromotionalCampaign) error

	// FindByID retrieves a campaign by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*PromotionalCampaign, error)

	// FindByCode retrieves a campaign by its promotion code.
	FindByCode(ctx context.Context, code string) (*PromotionalCampaign, error)

	// FindCurrentlyActive retrieves campaigns that are ACTIVE and inside
	// their date window at query time.
	FindCurrentlyActive(ctx context.Context) ([]*PromotionalCampaign, error)

	// FindActiveByTier retrieves currently active campaigns applicable to
	// the given tier type.
	FindActiveByTier(ctx context.Context, tierType PricingTierType) ([]*PromotionalCampaign, error)

	// IncrementUsage atomically counts one application of a campaign.
	IncrementUsage(ctx context.Context, id uuid.UUID) error

	// Delete removes a campaign and its rules.
	Delete(ctx context.Context, id uuid.UUID) error
}

// BreachRepository defines the interface for the margin-floor breach audit
// log. Rejected pricing attempts are recorded for compliance tracking.
type BreachRepository interface {
	// Record appends a breach event to the audit log.
	Record(ctx context.Context, breach MarginFloorBreached) error

	// ListRecent retrieves the most recent breaches, newest first.
	ListRecent(ctx context.Context, limit int) ([]MarginFloorBreached, error)
}

// EventPublisher publishes domain events to external collaborators
// (audit consumers, analytics). Implementations must not block on
// consumer availability beyond the context deadline.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}
