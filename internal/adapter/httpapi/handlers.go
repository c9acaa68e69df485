package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/priceflow/priceflow-backend/internal/domain"
	"github.com/priceflow/priceflow-backend/internal/usecase/quotation"
)

// QuoteService is the quotation entry point the API depends on.
type QuoteService interface {
	Quote(ctx context.Context, req quotation.QuoteRequest) (quotation.QuoteResult, error)
}

// Handlers carries the collaborators behind the HTTP surface.
type Handlers struct {
	quotes    QuoteService
	campaigns domain.CampaignRepository
	breaches  domain.BreachRepository
	log       zerolog.Logger
}

func NewHandlers(quotes QuoteService, campaigns domain.CampaignRepository, breaches domain.BreachRepository, log zerolog.Logger) *Handlers {
	return &Handlers{
		quotes:    quotes,
		campaigns: campaigns,
		breaches:  breaches,
		log:       log.With().Str("component", "httpapi").Logger(),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type moneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func moneyToResponse(m domain.Money) moneyResponse {
	return moneyResponse{Amount: m.Amount().String(), Currency: m.Currency()}
}

type quoteResponse struct {
	ProductID        string        `json:"productId"`
	Quantity         int           `json:"quantity"`
	TierType         string        `json:"tierType"`
	UnitPrice        moneyResponse `json:"unitPrice"`
	TotalPrice       moneyResponse `json:"totalPrice"`
	TotalCost        moneyResponse `json:"totalCost"`
	MarginAmount     moneyResponse `json:"marginAmount"`
	MarginPercentage string        `json:"marginPercentage"`
	AppliedCampaigns []string      `json:"appliedCampaigns"`
}

// CreateQuote prices one request.
// POST /v1/quotes
func (h *Handlers) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var payload quotePayload
	if err := decodeJSONBody(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := payload.toRequest()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.quotes.Quote(r.Context(), req)
	if err != nil {
		h.respondQuoteError(w, err)
		return
	}

	campaigns := result.AppliedCampaigns
	if campaigns == nil {
		campaigns = []string{}
	}

	respondJSON(w, http.StatusOK, quoteResponse{
		ProductID:        result.ProductID,
		Quantity:         result.Quantity,
		TierType:         string(result.TierType),
		UnitPrice:        moneyToResponse(result.UnitPrice),
		TotalPrice:       moneyToResponse(result.TotalPrice),
		TotalCost:        moneyToResponse(result.TotalCost),
		MarginAmount:     moneyToResponse(result.MarginAmount),
		MarginPercentage: result.MarginPercentage.Round(4).String(),
		AppliedCampaigns: campaigns,
	})
}

// The failure reason travels to the client verbatim: callers diagnose
// rejected prices from the message alone.
func (h *Handlers) respondQuoteError(w http.ResponseWriter, err error) {
	var floorErr *domain.MarginFloorError
	switch {
	case errors.As(err, &floorErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrCampaignNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		respondError(w, http.StatusBadRequest, err.Error())
	}
}

type campaignResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	StartDate         time.Time `json:"startDate"`
	EndDate           time.Time `json:"endDate"`
	Tiers             []string  `json:"tiers"`
	Modifier          string    `json:"modifier"`
	ProductIDs        []string  `json:"productIds"`
	MaxUsageCount     *int      `json:"maxUsageCount,omitempty"`
	CurrentUsageCount int       `json:"currentUsageCount"`
	Code              string    `json:"code,omitempty"`
}

func campaignToResponse(c *domain.PromotionalCampaign) campaignResponse {
	tiers := make([]string, 0, len(c.ApplicableTiers))
	for _, t := range c.ApplicableTiers {
		tiers = append(tiers, string(t.Type()))
	}
	return campaignResponse{
		ID:                c.ID.String(),
		Name:              c.Name,
		Description:       c.Description,
		Type:              string(c.Type),
		Status:            string(c.Status),
		StartDate:         c.StartDate,
		EndDate:           c.EndDate,
		Tiers:             tiers,
		Modifier:          c.Modifier.String(),
		ProductIDs:        c.ProductIDs,
		MaxUsageCount:     c.MaxUsageCount,
		CurrentUsageCount: c.CurrentUsageCount,
		Code:              c.Code,
	}
}

// CreateCampaign stores a new campaign, optionally activating it.
// POST /v1/campaigns
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var payload campaignPayload
	if err := decodeJSONBody(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	campaign, err := payload.toDomain()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if payload.Activate {
		if err := campaign.Activate(time.Now().UTC()); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.campaigns.Save(r.Context(), campaign); err != nil {
		h.log.Error().Err(err).Str("campaign", campaign.Name).Msg("failed to save campaign")
		respondError(w, http.StatusInternalServerError, "failed to save campaign")
		return
	}

	respondJSON(w, http.StatusCreated, campaignToResponse(campaign))
}

// ListCampaigns returns currently active campaigns, optionally filtered by
// tier.
// GET /v1/campaigns?tier=RETAIL
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	var (
		campaigns []*domain.PromotionalCampaign
		err       error
	)

	if tierParam := r.URL.Query().Get("tier"); tierParam != "" {
		tierType, parseErr := domain.ParsePricingTierType(tierParam)
		if parseErr != nil {
			respondError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		campaigns, err = h.campaigns.FindActiveByTier(r.Context(), tierType)
	} else {
		campaigns, err = h.campaigns.FindCurrentlyActive(r.Context())
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list campaigns")
		respondError(w, http.StatusInternalServerError, "failed to list campaigns")
		return
	}

	out := make([]campaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, campaignToResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

type breachResponse struct {
	CalculationID    string    `json:"calculationId"`
	ProductID        string    `json:"productId"`
	Price            string    `json:"price"`
	Cost             string    `json:"cost"`
	Currency         string    `json:"currency"`
	CalculatedMargin string    `json:"calculatedMargin"`
	FloorMargin      string    `json:"floorMargin"`
	TierType         string    `json:"pricingTierType"`
	OrderID          string    `json:"orderId,omitempty"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// ListBreaches returns the most recent margin-floor breaches.
// GET /v1/breaches?limit=50
func (h *Handlers) ListBreaches(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			respondError(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	breaches, err := h.breaches.ListRecent(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list breaches")
		respondError(w, http.StatusInternalServerError, "failed to list breaches")
		return
	}

	out := make([]breachResponse, 0, len(breaches))
	for _, b := range breaches {
		out = append(out, breachResponse{
			CalculationID:    b.CalculationID.String(),
			ProductID:        b.ProductID,
			Price:            b.Price.String(),
			Cost:             b.Cost.String(),
			Currency:         b.Currency,
			CalculatedMargin: b.CalculatedMargin.String(),
			FloorMargin:      b.FloorMargin.String(),
			TierType:         string(b.PricingTierType),
			OrderID:          b.OrderID,
			OccurredAt:       b.Occurred,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// Healthz reports liveness.
// GET /healthz
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
