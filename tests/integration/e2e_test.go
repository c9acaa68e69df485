//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceflow/priceflow-backend/internal/adapter/repository/postgres"
	"github.com/priceflow/priceflow-backend/internal/domain"
)

var (
	db       *postgres.DB
	baseURL  string
	apiToken string
)

// TestMain connects to the database and the running server. The server and
// Postgres are expected to be up (docker compose) before the suite runs.
func TestMain(m *testing.M) {
	dsn := os.Getenv("PRICEFLOW_DB_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=postgres password=postgres dbname=priceflow sslmode=disable"
	}

	var err error
	db, err = postgres.NewDB(dsn)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	baseURL = os.Getenv("PRICEFLOW_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	apiToken = os.Getenv("PRICEFLOW_API_TOKEN")
	if apiToken == "" {
		apiToken = "dev-token"
	}

	os.Exit(m.Run())
}

func doJSON(t *testing.T, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func TestHealthz(t *testing.T) {
	resp, err := http.Get(baseURL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQuoteLifecycle(t *testing.T) {
	// A plain retail quote
	resp, body := doJSON(t, http.MethodPost, "/v1/quotes", map[string]interface{}{
		"productId": "it-prod-1",
		"baseCost":  "100",
		"currency":  "BBD",
		"quantity":  2,
		"tierType":  "RETAIL",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var quote struct {
		TotalPrice struct {
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
		} `json:"totalPrice"`
		MarginPercentage string `json:"marginPercentage"`
	}
	require.NoError(t, json.Unmarshal(body, &quote))
	assert.Equal(t, "500", quote.TotalPrice.Amount)
	assert.Equal(t, "BBD", quote.TotalPrice.Currency)
}

func TestQuoteMarginFloorBreachIsPersisted(t *testing.T) {
	ctx := context.Background()

	resp, body := doJSON(t, http.MethodPost, "/v1/quotes", map[string]interface{}{
		"productId":              "it-prod-breach",
		"orderId":                "it-order-breach",
		"baseCost":               "100",
		"currency":               "BBD",
		"quantity":               1,
		"tierType":               "IMPORTER",
		"useCustomMarkup":        true,
		"customMarkupPercentage": "10",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "IMPORTER")

	// The breach must land in the audit log
	breachRepo := postgres.NewBreachRepository(db)
	deadline := time.Now().Add(5 * time.Second)
	found := false
	for time.Now().Before(deadline) {
		breaches, err := breachRepo.ListRecent(ctx, 20)
		require.NoError(t, err)
		for _, b := range breaches {
			if b.ProductID == "it-prod-breach" {
				assert.Equal(t, domain.TierImporter, b.PricingTierType)
				assert.True(t, b.FloorMargin.Equal(decimal.NewFromInt(20)))
				found = true
			}
		}
		if found {
			break
		}
		time.Sleep(200 * time.Millisecond)
	}
	assert.True(t, found, "breach was not recorded in the audit log")
}

func TestCampaignRoundTrip(t *testing.T) {
	ctx := context.Background()
	code := fmt.Sprintf("IT-%d", time.Now().UnixNano())

	modifier := map[string]interface{}{
		"kind":     "PERCENTAGE_DISCOUNT",
		"name":     "integration promo",
		"value":    "10",
		"priority": 10,
	}

	resp, body := doJSON(t, http.MethodPost, "/v1/campaigns", map[string]interface{}{
		"name":      "Integration Sale " + code,
		"type":      "SEASONAL",
		"startDate": time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
		"endDate":   time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		"tiers":     []string{"RETAIL"},
		"modifier":  modifier,
		"rules": []map[string]interface{}{
			{
				"name": "it-rule-" + code,
				"conditions": []map[string]string{
					{"type": "CUSTOMER_SEGMENT", "operator": "EQUALS", "value": "RETAIL"},
				},
				"modifier": modifier,
				"tiers":    []string{"RETAIL"},
				"active":   true,
			},
		},
		"productIds": []string{"it-prod-1"},
		"code":       code,
		"activate":   true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	// Quote against the fresh campaign
	resp, body = doJSON(t, http.MethodPost, "/v1/quotes", map[string]interface{}{
		"productId":     "it-prod-1",
		"baseCost":      "100",
		"currency":      "BBD",
		"quantity":      1,
		"tierType":      "RETAIL",
		"campaignCodes": []string{code},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var quote struct {
		TotalPrice struct {
			Amount string `json:"amount"`
		} `json:"totalPrice"`
		AppliedCampaigns []string `json:"appliedCampaigns"`
	}
	require.NoError(t, json.Unmarshal(body, &quote))
	assert.Equal(t, "225", quote.TotalPrice.Amount)
	require.Len(t, quote.AppliedCampaigns, 1)

	// Usage was counted
	campaignRepo := postgres.NewCampaignRepository(db)
	stored, err := campaignRepo.FindByCode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentUsageCount)
	require.Len(t, stored.Rules, 1)
	assert.True(t, stored.Modifier.Value().Equal(decimal.NewFromInt(10)))
}

func TestUnauthorizedRequestRejected(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, baseURL+"/v1/campaigns", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
