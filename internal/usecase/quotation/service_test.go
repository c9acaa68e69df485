package quotation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceflow/priceflow-backend/internal/domain"
	"github.com/priceflow/priceflow-backend/internal/usecase/stacking"
	"github.com/priceflow/priceflow-backend/internal/usecase/strategy"
)

type fakeCampaignRepo struct {
	byCode     map[string]*domain.PromotionalCampaign
	usageCalls []uuid.UUID
	usageErr   error
}

func (r *fakeCampaignRepo) Save(context.Context, *domain.PromotionalCampaign) error { return nil }

func (r *fakeCampaignRepo) FindByID(context.Context, uuid.UUID) (*domain.PromotionalCampaign, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeCampaignRepo) FindByCode(_ context.Context, code string) (*domain.PromotionalCampaign, error) {
	c, ok := r.byCode[code]
	if !ok {
		return nil, errors.New("campaign not found")
	}
	return c, nil
}

func (r *fakeCampaignRepo) FindCurrentlyActive(context.Context) ([]*domain.PromotionalCampaign, error) {
	return nil, nil
}

func (r *fakeCampaignRepo) FindActiveByTier(context.Context, domain.PricingTierType) ([]*domain.PromotionalCampaign, error) {
	return nil, nil
}

func (r *fakeCampaignRepo) IncrementUsage(_ context.Context, id uuid.UUID) error {
	r.usageCalls = append(r.usageCalls, id)
	return r.usageErr
}

func (r *fakeCampaignRepo) Delete(context.Context, uuid.UUID) error { return nil }

type fakeBreachRepo struct {
	records []domain.MarginFloorBreached
	err     error
}

func (r *fakeBreachRepo) Record(_ context.Context, breach domain.MarginFloorBreached) error {
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, breach)
	return nil
}

func (r *fakeBreachRepo) ListRecent(context.Context, int) ([]domain.MarginFloorBreached, error) {
	return r.records, nil
}

type fakePublisher struct {
	events []domain.DomainEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event domain.DomainEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func newTestService(campaigns *fakeCampaignRepo, breaches *fakeBreachRepo, pub *fakePublisher) *Service {
	log := zerolog.Nop()
	return NewService(
		campaigns,
		breaches,
		pub,
		stacking.NewService(pub, log),
		map[strategy.Kind]strategy.PricingStrategy{
			strategy.KindFixed:  strategy.NewFixedPricingStrategy(),
			strategy.KindVolume: strategy.NewVolumePricingStrategy(nil),
		},
		strategy.KindFixed,
		log,
	)
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func activeCampaign(t *testing.T, code string, discountPct int64) *domain.PromotionalCampaign {
	t.Helper()
	now := time.Now().UTC()

	modifier, err := domain.NewPercentageDiscount(code+" promo", "", decimal.NewFromInt(discountPct), 10)
	require.NoError(t, err)

	rule, err := domain.NewPricingRule(
		code+"-rule",
		"",
		[]domain.RuleCondition{{Type: domain.ConditionCustomerSegment, Value: "RETAIL"}},
		modifier,
		[]domain.PricingTier{domain.MustNewPricingTier(domain.TierRetail)},
		nil, nil, true, 0,
	)
	require.NoError(t, err)

	c, err := domain.NewPromotionalCampaign(
		code+" campaign", "",
		domain.CampaignSeasonal,
		now.Add(-time.Hour), now.Add(time.Hour),
		[]domain.PricingTier{domain.MustNewPricingTier(domain.TierRetail)},
		modifier,
		[]*domain.PricingRule{rule},
		[]string{"prod-1"},
		nil,
		code,
	)
	require.NoError(t, err)
	require.NoError(t, c.Activate(now))
	return c
}

func TestQuote_Success(t *testing.T) {
	svc := newTestService(&fakeCampaignRepo{}, &fakeBreachRepo{}, &fakePublisher{})

	result, err := svc.Quote(context.Background(), QuoteRequest{
		ProductID: "prod-1",
		BaseCost:  decimal.NewFromInt(100),
		Currency:  "BBD",
		Quantity:  2,
		TierType:  "RETAIL",
	})
	require.NoError(t, err)

	// Retail base markup 150%: unit 250, total 500 against 200 cost
	assert.True(t, result.UnitPrice.Amount().Equal(decimal.NewFromInt(250)))
	assert.True(t, result.TotalPrice.Amount().Equal(decimal.NewFromInt(500)))
	assert.True(t, result.TotalCost.Amount().Equal(decimal.NewFromInt(200)))
	assert.True(t, result.MarginAmount.Amount().Equal(decimal.NewFromInt(300)))
	assert.True(t, result.MarginPercentage.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, domain.TierRetail, result.TierType)
	assert.Empty(t, result.AppliedCampaigns)
}

func TestQuote_UnknownTierFails(t *testing.T) {
	svc := newTestService(&fakeCampaignRepo{}, &fakeBreachRepo{}, &fakePublisher{})

	_, err := svc.Quote(context.Background(), QuoteRequest{
		ProductID: "prod-1",
		BaseCost:  decimal.NewFromInt(100),
		Currency:  "BBD",
		Quantity:  1,
		TierType:  "PLATINUM",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pricing tier type")
}

func TestQuote_AppliesCampaign(t *testing.T) {
	campaign := activeCampaign(t, "SUMMER10", 10)
	repo := &fakeCampaignRepo{byCode: map[string]*domain.PromotionalCampaign{"SUMMER10": campaign}}
	svc := newTestService(repo, &fakeBreachRepo{}, &fakePublisher{})

	result, err := svc.Quote(context.Background(), QuoteRequest{
		ProductID:     "prod-1",
		BaseCost:      decimal.NewFromInt(100),
		Currency:      "BBD",
		Quantity:      1,
		TierType:      "RETAIL",
		CampaignCodes: []string{"SUMMER10"},
	})
	require.NoError(t, err)

	// 250 list price less the campaign's 10% -> 225
	assert.True(t, result.TotalPrice.Amount().Equal(decimal.NewFromInt(225)), "got %s", result.TotalPrice.Amount())
	assert.Equal(t, []string{"SUMMER10 campaign"}, result.AppliedCampaigns)
	require.Len(t, repo.usageCalls, 1)
	assert.Equal(t, campaign.ID, repo.usageCalls[0])
}

func TestQuote_RejectsIneligibleCampaign(t *testing.T) {
	campaign := activeCampaign(t, "SUMMER10", 10)
	repo := &fakeCampaignRepo{byCode: map[string]*domain.PromotionalCampaign{"SUMMER10": campaign}}
	svc := newTestService(repo, &fakeBreachRepo{}, &fakePublisher{})

	// Wrong product
	_, err := svc.Quote(context.Background(), QuoteRequest{
		ProductID:     "prod-99",
		BaseCost:      decimal.NewFromInt(100),
		Currency:      "BBD",
		Quantity:      1,
		TierType:      "RETAIL",
		CampaignCodes: []string{"SUMMER10"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not apply to product")

	// Wrong tier
	_, err = svc.Quote(context.Background(), QuoteRequest{
		ProductID:     "prod-1",
		BaseCost:      decimal.NewFromInt(100),
		Currency:      "BBD",
		Quantity:      1,
		TierType:      "WHOLESALE",
		CampaignCodes: []string{"SUMMER10"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not apply to tier")

	// Unknown code
	_, err = svc.Quote(context.Background(), QuoteRequest{
		ProductID:     "prod-1",
		BaseCost:      decimal.NewFromInt(100),
		Currency:      "BBD",
		Quantity:      1,
		TierType:      "RETAIL",
		CampaignCodes: []string{"NOPE"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	assert.Empty(t, repo.usageCalls)
}

func TestQuote_StackedCampaignsRejected(t *testing.T) {
	a := activeCampaign(t, "SUMMER10", 10)
	b := activeCampaign(t, "LAUNCH5", 5)
	repo := &fakeCampaignRepo{byCode: map[string]*domain.PromotionalCampaign{
		"SUMMER10": a,
		"LAUNCH5":  b,
	}}
	pub := &fakePublisher{}
	svc := newTestService(repo, &fakeBreachRepo{}, pub)

	_, err := svc.Quote(context.Background(), QuoteRequest{
		ProductID:     "prod-1",
		OrderID:       "order-1",
		BaseCost:      decimal.NewFromInt(100),
		Currency:      "BBD",
		Quantity:      1,
		TierType:      "RETAIL",
		CampaignCodes: []string{"SUMMER10", "LAUNCH5"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 1")

	// The violation was published for governance
	require.Len(t, pub.events, 1)
	_, ok := pub.events[0].(domain.PricingRuleViolated)
	assert.True(t, ok)
}

func TestQuote_RenamedCampaignDiscountStillCountsAsPromotion(t *testing.T) {
	// The campaign's modifier name says nothing about a promotion, but a
	// campaign discount is promotional by definition: stacking it with an
	// ad-hoc promotional discount must be rejected.
	now := time.Now().UTC()
	modifier, err := domain.NewPercentageDiscount("loyalty boost", "", decimal.NewFromInt(10), 10)
	require.NoError(t, err)

	rule, err := domain.NewPricingRule(
		"loyalty-rule",
		"",
		[]domain.RuleCondition{{Type: domain.ConditionCustomerSegment, Value: "RETAIL"}},
		modifier,
		[]domain.PricingTier{domain.MustNewPricingTier(domain.TierRetail)},
		nil, nil, true, 0,
	)
	require.NoError(t, err)

	campaign, err := domain.NewPromotionalCampaign(
		"Loyalty Boost", "",
		domain.CampaignSeasonal,
		now.Add(-time.Hour), now.Add(time.Hour),
		[]domain.PricingTier{domain.MustNewPricingTier(domain.TierRetail)},
		modifier,
		[]*domain.PricingRule{rule},
		[]string{"prod-1"},
		nil,
		"LOYALTY",
	)
	require.NoError(t, err)
	require.NoError(t, campaign.Activate(now))

	repo := &fakeCampaignRepo{byCode: map[string]*domain.PromotionalCampaign{"LOYALTY": campaign}}
	pub := &fakePublisher{}
	svc := newTestService(repo, &fakeBreachRepo{}, pub)

	adHocPromo, err := domain.NewPercentageDiscount("spring promo", "", decimal.NewFromInt(5), 5)
	require.NoError(t, err)

	_, err = svc.Quote(context.Background(), QuoteRequest{
		ProductID:     "prod-1",
		OrderID:       "order-1",
		BaseCost:      decimal.NewFromInt(100),
		Currency:      "BBD",
		Quantity:      1,
		TierType:      "RETAIL",
		CampaignCodes: []string{"LOYALTY"},
		Modifiers:     []domain.PriceModifier{adHocPromo},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 1")
	assert.Empty(t, repo.usageCalls)
}

func TestQuote_MarginFloorBreachIsAudited(t *testing.T) {
	breaches := &fakeBreachRepo{}
	pub := &fakePublisher{}
	svc := newTestService(&fakeCampaignRepo{}, breaches, pub)

	_, err := svc.Quote(context.Background(), QuoteRequest{
		ProductID:              "prod-1",
		OrderID:                "order-1",
		BaseCost:               decimal.NewFromInt(100),
		Currency:               "BBD",
		Quantity:               1,
		TierType:               "IMPORTER",
		UseCustomMarkup:        true,
		CustomMarkupPercentage: decimalPtr("10"),
	})
	require.Error(t, err)

	var floorErr *domain.MarginFloorError
	require.ErrorAs(t, err, &floorErr)
	assert.Equal(t, domain.TierImporter, floorErr.Tier)

	require.Len(t, breaches.records, 1)
	recorded := breaches.records[0]
	assert.Equal(t, "prod-1", recorded.ProductID)
	assert.Equal(t, "order-1", recorded.OrderID)
	assert.Equal(t, domain.TierImporter, recorded.PricingTierType)
	assert.NotEqual(t, uuid.Nil, recorded.CalculationID)

	// The audit record carries the exact rejected price and cost
	assert.True(t, recorded.Price.Equal(decimal.NewFromInt(110)), "got %s", recorded.Price)
	assert.True(t, recorded.Cost.Equal(decimal.NewFromInt(100)), "got %s", recorded.Cost)
	assert.Equal(t, "BBD", recorded.Currency)

	require.Len(t, pub.events, 1)
	published, ok := pub.events[0].(domain.MarginFloorBreached)
	require.True(t, ok)
	assert.Equal(t, recorded.CalculationID, published.CalculationID)
}

func TestQuote_FullDiscountBreachRecordsZeroPrice(t *testing.T) {
	breaches := &fakeBreachRepo{}
	svc := newTestService(&fakeCampaignRepo{}, breaches, &fakePublisher{})

	clearance, err := domain.NewPercentageDiscount("full clearance", "", decimal.NewFromInt(100), 0)
	require.NoError(t, err)

	_, err = svc.Quote(context.Background(), QuoteRequest{
		ProductID: "prod-1",
		OrderID:   "order-1",
		BaseCost:  decimal.NewFromInt(100),
		Currency:  "BBD",
		Quantity:  1,
		TierType:  "RETAIL",
		Modifiers: []domain.PriceModifier{clearance},
	})

	var floorErr *domain.MarginFloorError
	require.ErrorAs(t, err, &floorErr)

	require.Len(t, breaches.records, 1)
	recorded := breaches.records[0]
	assert.True(t, recorded.Price.IsZero(), "got %s", recorded.Price)
	assert.True(t, recorded.Cost.Equal(decimal.NewFromInt(100)), "got %s", recorded.Cost)
	assert.Equal(t, "BBD", recorded.Currency)
}

func TestQuote_AuditFailuresDoNotMaskPolicyFailure(t *testing.T) {
	breaches := &fakeBreachRepo{err: errors.New("db down")}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(&fakeCampaignRepo{}, breaches, pub)

	_, err := svc.Quote(context.Background(), QuoteRequest{
		ProductID:              "prod-1",
		BaseCost:               decimal.NewFromInt(100),
		Currency:               "BBD",
		Quantity:               1,
		TierType:               "IMPORTER",
		UseCustomMarkup:        true,
		CustomMarkupPercentage: decimalPtr("10"),
	})

	var floorErr *domain.MarginFloorError
	require.ErrorAs(t, err, &floorErr)
}

func TestQuote_UsageCounterFailureDoesNotFailQuote(t *testing.T) {
	campaign := activeCampaign(t, "SUMMER10", 10)
	repo := &fakeCampaignRepo{
		byCode:   map[string]*domain.PromotionalCampaign{"SUMMER10": campaign},
		usageErr: errors.New("db down"),
	}
	svc := newTestService(repo, &fakeBreachRepo{}, &fakePublisher{})

	result, err := svc.Quote(context.Background(), QuoteRequest{
		ProductID:     "prod-1",
		BaseCost:      decimal.NewFromInt(100),
		Currency:      "BBD",
		Quantity:      1,
		TierType:      "RETAIL",
		CampaignCodes: []string{"SUMMER10"},
	})
	require.NoError(t, err)
	assert.True(t, result.TotalPrice.Amount().Equal(decimal.NewFromInt(225)))
}

func TestQuote_VolumeStrategySelection(t *testing.T) {
	svc := newTestService(&fakeCampaignRepo{}, &fakeBreachRepo{}, &fakePublisher{})

	result, err := svc.Quote(context.Background(), QuoteRequest{
		ProductID:    "prod-1",
		BaseCost:     decimal.NewFromInt(10),
		Currency:     "BBD",
		Quantity:     10,
		TierType:     "WHOLESALE",
		StrategyKind: "volume",
	})
	require.NoError(t, err)

	// Wholesale markup 100%: total 200, 8% volume break -> 184
	assert.True(t, result.TotalPrice.Amount().Equal(decimal.NewFromInt(184)), "got %s", result.TotalPrice.Amount())

	_, err = svc.Quote(context.Background(), QuoteRequest{
		ProductID:    "prod-1",
		BaseCost:     decimal.NewFromInt(10),
		Currency:     "BBD",
		Quantity:     1,
		TierType:     "WHOLESALE",
		StrategyKind: "dynamic",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pricing strategy kind")
}
