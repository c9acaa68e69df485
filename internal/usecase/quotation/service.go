package quotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/priceflow/priceflow-backend/internal/domain"
	"github.com/priceflow/priceflow-backend/internal/usecase/stacking"
	"github.com/priceflow/priceflow-backend/internal/usecase/strategy"
)

// QuoteRequest is the service-level input for one price quotation.
type QuoteRequest struct {
	ProductID              string
	OrderID                string
	BaseCost               decimal.Decimal
	Currency               string
	Quantity               int
	TierType               string
	StrategyKind           string
	UseCustomMarkup        bool
	CustomMarkupPercentage *decimal.Decimal
	Modifiers              []domain.PriceModifier
	CampaignCodes          []string
}

// QuoteResult is a successfully priced quotation.
type QuoteResult struct {
	ProductID        string
	Quantity         int
	TierType         domain.PricingTierType
	UnitPrice        domain.Money
	TotalPrice       domain.Money
	TotalCost        domain.Money
	MarginAmount     domain.Money
	MarginPercentage decimal.Decimal
	AppliedCampaigns []string
}

// Service orchestrates a quotation: tier resolution, campaign lookup,
// stacking validation, strategy dispatch and breach auditing.
type Service struct {
	campaigns   domain.CampaignRepository
	breaches    domain.BreachRepository
	publisher   domain.EventPublisher
	stacking    *stacking.Service
	strategies  map[strategy.Kind]strategy.PricingStrategy
	defaultKind strategy.Kind
	log         zerolog.Logger
	now         func() time.Time
}

func NewService(
	campaigns domain.CampaignRepository,
	breaches domain.BreachRepository,
	publisher domain.EventPublisher,
	stackingSvc *stacking.Service,
	strategies map[strategy.Kind]strategy.PricingStrategy,
	defaultKind strategy.Kind,
	log zerolog.Logger,
) *Service {
	return &Service{
		campaigns:   campaigns,
		breaches:    breaches,
		publisher:   publisher,
		stacking:    stackingSvc,
		strategies:  strategies,
		defaultKind: defaultKind,
		log:         log.With().Str("component", "quotation").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Quote prices one request. Policy failures (margin floor) come back as
// *domain.MarginFloorError after being recorded for audit; validation
// failures come back as plain errors.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	tierType, err := domain.ParsePricingTierType(req.TierType)
	if err != nil {
		return QuoteResult{}, err
	}
	tier, err := domain.NewPricingTier(tierType)
	if err != nil {
		return QuoteResult{}, err
	}

	baseCost, err := domain.NewMoney(req.BaseCost, req.Currency)
	if err != nil {
		return QuoteResult{}, err
	}

	applied, modifiers, err := s.resolveCampaigns(ctx, req, tier)
	if err != nil {
		return QuoteResult{}, err
	}
	modifiers = append(modifiers, req.Modifiers...)

	if err := s.stacking.ValidateModifiers(ctx, req.OrderID, modifiers); err != nil {
		return QuoteResult{}, err
	}

	strat, err := s.selectStrategy(req.StrategyKind)
	if err != nil {
		return QuoteResult{}, err
	}

	pc := strategy.PricingContext{
		BaseCost:               baseCost,
		Quantity:               req.Quantity,
		Tier:                   tier,
		UseCustomMarkup:        req.UseCustomMarkup,
		CustomMarkupPercentage: req.CustomMarkupPercentage,
		Modifiers:              modifiers,
	}

	totalPrice, err := strat.CalculatePrice(pc)
	if err != nil {
		var floorErr *domain.MarginFloorError
		if errors.As(err, &floorErr) {
			s.auditBreach(ctx, req, floorErr)
		}
		return QuoteResult{}, err
	}

	s.countUsage(ctx, applied)

	return s.buildResult(req, tierType, baseCost, totalPrice, applied)
}

// resolveCampaigns loads the requested campaign codes, checks each for
// eligibility and returns their modifiers in request order.
func (s *Service) resolveCampaigns(ctx context.Context, req QuoteRequest, tier domain.PricingTier) ([]*domain.PromotionalCampaign, []domain.PriceModifier, error) {
	if len(req.CampaignCodes) == 0 {
		return nil, nil, nil
	}

	at := s.now()
	applied := make([]*domain.PromotionalCampaign, 0, len(req.CampaignCodes))
	modifiers := make([]domain.PriceModifier, 0, len(req.CampaignCodes))

	for _, code := range req.CampaignCodes {
		campaign, err := s.campaigns.FindByCode(ctx, code)
		if err != nil {
			return nil, nil, fmt.Errorf("campaign %q: %w", code, err)
		}
		if !campaign.IsCurrentlyActive(at) {
			return nil, nil, fmt.Errorf("campaign %q is not currently active", code)
		}
		if !campaign.IsApplicableTo(tier) {
			return nil, nil, fmt.Errorf("campaign %q does not apply to tier %s", code, tier.Type())
		}
		if !campaign.AppliesToProduct(req.ProductID) {
			return nil, nil, fmt.Errorf("campaign %q does not apply to product %s", code, req.ProductID)
		}
		applied = append(applied, campaign)
		// Campaign discounts are promotional by definition, whatever
		// the campaign happens to be named.
		modifiers = append(modifiers, campaign.Modifier.AsPromotional())
	}

	if err := s.stacking.ValidateCampaigns(ctx, req.OrderID, req.ProductID, applied); err != nil {
		return nil, nil, err
	}
	return applied, modifiers, nil
}

func (s *Service) selectStrategy(kindStr string) (strategy.PricingStrategy, error) {
	kind := s.defaultKind
	if kindStr != "" {
		parsed, err := strategy.ParseKind(kindStr)
		if err != nil {
			return nil, err
		}
		kind = parsed
	}

	strat, ok := s.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("no strategy registered for kind %s", kind)
	}
	return strat, nil
}

// auditBreach records the rejected calculation and publishes the breach
// event. The event carries the exact price and cost the floor check
// rejected. Neither failure masks the policy rejection.
func (s *Service) auditBreach(ctx context.Context, req QuoteRequest, floorErr *domain.MarginFloorError) {
	event := domain.NewMarginFloorBreached(
		req.ProductID,
		floorErr.Price, floorErr.Cost,
		floorErr.CalculatedMargin,
		floorErr.FloorMargin,
		floorErr.Tier,
		uuid.New(),
		req.OrderID,
	)

	if err := s.breaches.Record(ctx, event); err != nil {
		s.log.Error().Err(err).
			Str("product_id", req.ProductID).
			Str("calculation_id", event.CalculationID.String()).
			Msg("failed to record margin floor breach")
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Error().Err(err).
			Str("product_id", req.ProductID).
			Str("calculation_id", event.CalculationID.String()).
			Msg("failed to publish margin floor breach event")
	}
}

// countUsage counts campaign applications best-effort: a counter failure
// never fails an already-priced quote.
func (s *Service) countUsage(ctx context.Context, applied []*domain.PromotionalCampaign) {
	for _, campaign := range applied {
		if err := s.campaigns.IncrementUsage(ctx, campaign.ID); err != nil {
			s.log.Warn().Err(err).
				Str("campaign_id", campaign.ID.String()).
				Msg("failed to count campaign usage")
		}
	}
}

func (s *Service) buildResult(
	req QuoteRequest,
	tierType domain.PricingTierType,
	baseCost, totalPrice domain.Money,
	applied []*domain.PromotionalCampaign,
) (QuoteResult, error) {
	quantity := decimal.NewFromInt(int64(req.Quantity))

	cost := baseCost
	if req.Quantity > 1 {
		scaled, err := baseCost.Multiply(quantity)
		if err != nil {
			return QuoteResult{}, err
		}
		cost = scaled
	}

	unitPrice, err := domain.NewMoney(totalPrice.Amount().Div(quantity), totalPrice.Currency())
	if err != nil {
		return QuoteResult{}, err
	}

	marginAmount, err := totalPrice.Subtract(cost)
	if err != nil {
		return QuoteResult{}, err
	}

	marginPct := decimal.Zero
	if totalPrice.IsPositive() {
		marginPct = marginAmount.Amount().Div(totalPrice.Amount()).Mul(decimal.NewFromInt(100))
	}

	names := make([]string, 0, len(applied))
	for _, campaign := range applied {
		names = append(names, campaign.Name)
	}

	return QuoteResult{
		ProductID:        req.ProductID,
		Quantity:         req.Quantity,
		TierType:         tierType,
		UnitPrice:        unitPrice,
		TotalPrice:       totalPrice,
		TotalCost:        cost,
		MarginAmount:     marginAmount,
		MarginPercentage: marginPct,
		AppliedCampaigns: names,
	}, nil
}
