package stacking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/priceflow/priceflow-backend/internal/domain"
)

// Service enforces promotion stacking policy: at most one promotional
// discount may apply to an order. Violations are published as
// PricingRuleViolated events so governance consumers see attempted abuse
// even when the order is rejected.
type Service struct {
	publisher domain.EventPublisher
	log       zerolog.Logger
}

func NewService(publisher domain.EventPublisher, log zerolog.Logger) *Service {
	return &Service{
		publisher: publisher,
		log:       log.With().Str("component", "stacking").Logger(),
	}
}

// ValidateModifiers checks a modifier set against the one-promotion rule.
// Surcharges and operational discounts (price corrections, goodwill
// credits) do not count against the stacking limit.
func (s *Service) ValidateModifiers(ctx context.Context, orderID string, modifiers []domain.PriceModifier) error {
	count := 0
	for _, m := range modifiers {
		if m.IsPromotional() {
			count++
		}
	}
	if count <= 1 {
		return nil
	}

	s.reportViolation(ctx, orderID, "", count)
	return fmt.Errorf("order carries %d promotional discounts, at most 1 is allowed", count)
}

// ValidateCampaigns checks that at most one campaign applies to the order.
func (s *Service) ValidateCampaigns(ctx context.Context, orderID, productID string, campaigns []*domain.PromotionalCampaign) error {
	if len(campaigns) <= 1 {
		return nil
	}

	s.reportViolation(ctx, orderID, productID, len(campaigns))
	return fmt.Errorf("order carries %d promotional campaigns, at most 1 is allowed", len(campaigns))
}

// BestCampaign picks the campaign to keep when several are eligible:
// percentage discounts win over fixed ones, then the larger value wins.
// Returns nil when no campaign is eligible.
func (s *Service) BestCampaign(candidates []*domain.PromotionalCampaign, tier domain.PricingTier, productID string, at time.Time) *domain.PromotionalCampaign {
	var best *domain.PromotionalCampaign
	for _, c := range candidates {
		if !c.IsCurrentlyActive(at) || !c.IsApplicableTo(tier) || !c.AppliesToProduct(productID) {
			continue
		}
		if best == nil || preferModifier(c.Modifier, best.Modifier) {
			best = c
		}
	}
	return best
}

func preferModifier(candidate, current domain.PriceModifier) bool {
	if candidate.IsPercentage() != current.IsPercentage() {
		return candidate.IsPercentage()
	}
	return candidate.Value().GreaterThan(current.Value())
}

func (s *Service) reportViolation(ctx context.Context, orderID, productID string, count int) {
	event := domain.NewPricingRuleViolated(
		uuid.New(),
		"one-promotion-per-order",
		domain.SeverityWarning,
		fmt.Sprintf("order carries %d promotional discounts, at most 1 is allowed", count),
		map[string]string{"promotionCount": strconv.Itoa(count)},
		orderID,
		productID,
	)

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error().Err(err).
			Str("order_id", orderID).
			Msg("failed to publish rule violation event")
	}
}
