package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/priceflow/priceflow-backend/internal/domain"
	"github.com/priceflow/priceflow-backend/internal/usecase/quotation"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field names as their json tags so error details match the
	// wire format clients actually sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func decodeJSONBody(r *http.Request, dest interface{}) error {
	defer io.Copy(io.Discard, r.Body)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validation failed: %w", err)
	}

	parts := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		parts = append(parts, fieldErr.Field()+" "+validationMessage(fieldErr))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(parts, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "datetime":
		return "must be an RFC 3339 timestamp"
	}
	return "is invalid"
}

type modifierPayload struct {
	Kind        string `json:"kind" validate:"required,oneof=PERCENTAGE_DISCOUNT FIXED_DISCOUNT PERCENTAGE_SURCHARGE FIXED_SURCHARGE"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Value       string `json:"value" validate:"required"`
	Currency    string `json:"currency"`
	Priority    int    `json:"priority"`
}

func (p modifierPayload) toDomain() (domain.PriceModifier, error) {
	value, err := decimal.NewFromString(p.Value)
	if err != nil {
		return domain.PriceModifier{}, fmt.Errorf("modifier %q: invalid value: %w", p.Name, err)
	}
	return domain.NewPriceModifier(domain.ModifierKind(p.Kind), p.Name, p.Description, value, p.Currency, p.Priority)
}

type quotePayload struct {
	ProductID              string            `json:"productId" validate:"required"`
	OrderID                string            `json:"orderId"`
	BaseCost               string            `json:"baseCost" validate:"required"`
	Currency               string            `json:"currency" validate:"required"`
	Quantity               int               `json:"quantity" validate:"required,min=1"`
	TierType               string            `json:"tierType" validate:"required"`
	StrategyKind           string            `json:"strategyKind"`
	UseCustomMarkup        bool              `json:"useCustomMarkup"`
	CustomMarkupPercentage *string           `json:"customMarkupPercentage"`
	Modifiers              []modifierPayload `json:"modifiers" validate:"dive"`
	CampaignCodes          []string          `json:"campaignCodes"`
}

func (p quotePayload) toRequest() (quotation.QuoteRequest, error) {
	baseCost, err := decimal.NewFromString(p.BaseCost)
	if err != nil {
		return quotation.QuoteRequest{}, fmt.Errorf("invalid baseCost: %w", err)
	}

	var customMarkup *decimal.Decimal
	if p.CustomMarkupPercentage != nil {
		markup, err := decimal.NewFromString(*p.CustomMarkupPercentage)
		if err != nil {
			return quotation.QuoteRequest{}, fmt.Errorf("invalid customMarkupPercentage: %w", err)
		}
		customMarkup = &markup
	}

	modifiers := make([]domain.PriceModifier, 0, len(p.Modifiers))
	for _, mp := range p.Modifiers {
		modifier, err := mp.toDomain()
		if err != nil {
			return quotation.QuoteRequest{}, err
		}
		modifiers = append(modifiers, modifier)
	}

	return quotation.QuoteRequest{
		ProductID:              p.ProductID,
		OrderID:                p.OrderID,
		BaseCost:               baseCost,
		Currency:               p.Currency,
		Quantity:               p.Quantity,
		TierType:               p.TierType,
		StrategyKind:           p.StrategyKind,
		UseCustomMarkup:        p.UseCustomMarkup,
		CustomMarkupPercentage: customMarkup,
		Modifiers:              modifiers,
		CampaignCodes:          p.CampaignCodes,
	}, nil
}

type rulePayload struct {
	Name        string                 `json:"name" validate:"required"`
	Description string                 `json:"description"`
	Conditions  []domain.RuleCondition `json:"conditions" validate:"required,min=1"`
	Modifier    modifierPayload        `json:"modifier" validate:"required"`
	Tiers       []string               `json:"tiers" validate:"required,min=1"`
	StartDate   *time.Time             `json:"startDate"`
	EndDate     *time.Time             `json:"endDate"`
	Active      bool                   `json:"active"`
	Priority    int                    `json:"priority"`
}

type campaignPayload struct {
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	Type          string          `json:"type" validate:"required,oneof=SEASONAL CLEARANCE NEW_PRODUCT CUSTOMER_ACQUISITION LOYALTY BUNDLE"`
	StartDate     time.Time       `json:"startDate" validate:"required"`
	EndDate       time.Time       `json:"endDate" validate:"required"`
	Tiers         []string        `json:"tiers" validate:"required,min=1"`
	Modifier      modifierPayload `json:"modifier" validate:"required"`
	Rules         []rulePayload   `json:"rules" validate:"required,min=1,dive"`
	ProductIDs    []string        `json:"productIds" validate:"required,min=1"`
	MaxUsageCount *int            `json:"maxUsageCount"`
	Code          string          `json:"code"`
	Activate      bool            `json:"activate"`
}

func tiersFromPayload(values []string) ([]domain.PricingTier, error) {
	tiers := make([]domain.PricingTier, 0, len(values))
	for _, v := range values {
		tierType, err := domain.ParsePricingTierType(v)
		if err != nil {
			return nil, err
		}
		tier, err := domain.NewPricingTier(tierType)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

func (p campaignPayload) toDomain() (*domain.PromotionalCampaign, error) {
	tiers, err := tiersFromPayload(p.Tiers)
	if err != nil {
		return nil, err
	}

	modifier, err := p.Modifier.toDomain()
	if err != nil {
		return nil, err
	}

	rules := make([]*domain.PricingRule, 0, len(p.Rules))
	for _, rp := range p.Rules {
		ruleTiers, err := tiersFromPayload(rp.Tiers)
		if err != nil {
			return nil, err
		}
		ruleModifier, err := rp.Modifier.toDomain()
		if err != nil {
			return nil, err
		}
		rule, err := domain.NewPricingRule(
			rp.Name, rp.Description, rp.Conditions, ruleModifier,
			ruleTiers, rp.StartDate, rp.EndDate, rp.Active, rp.Priority,
		)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return domain.NewPromotionalCampaign(
		p.Name, p.Description,
		domain.CampaignType(p.Type),
		p.StartDate, p.EndDate,
		tiers, modifier, rules,
		p.ProductIDs, p.MaxUsageCount, p.Code,
	)
}
