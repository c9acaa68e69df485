package eventbus

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/priceflow/priceflow-backend/internal/domain"
)

func TestBuildMessage(t *testing.T) {
	price, err := domain.NewMoney(decimal.NewFromInt(110), "BBD")
	require.NoError(t, err)
	cost, err := domain.NewMoney(decimal.NewFromInt(100), "BBD")
	require.NoError(t, err)

	calcID := uuid.New()
	event := domain.NewMarginFloorBreached(
		"prod-1", price, cost,
		decimal.RequireFromString("9.09"), decimal.NewFromInt(20),
		domain.TierImporter, calcID, "order-1",
	)

	msg, err := buildMessage(event)
	require.NoError(t, err)

	assert.Equal(t, calcID.String(), string(msg.Key))

	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event-name", msg.Headers[0].Key)
	assert.Equal(t, "pricing.margin_floor_breached", string(msg.Headers[0].Value))

	var decoded domain.MarginFloorBreached
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "prod-1", decoded.ProductID)
	assert.Equal(t, calcID, decoded.CalculationID)
	assert.True(t, decoded.Occurred.Equal(event.Occurred))
}
