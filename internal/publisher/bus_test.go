package publisher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clob/internal/domain"
)

func TestEncode_TradeUsesSymbolTopic(t *testing.T) {
	channel, payload, err := encode(domain.ExternalEvent{PublicTrade: &domain.PublicTrade{
		TradeId: 1, Symbol: "BTC-USD", Price: 100, Quantity: 5,
	}})
	require.NoError(t, err)
	assert.Equal(t, "market:trade:BTC-USD", channel)

	var decoded domain.PublicTrade
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, domain.TradeId(1), decoded.TradeId)
}

func TestEncode_DepthUsesSymbolTopic(t *testing.T) {
	channel, _, err := encode(domain.ExternalEvent{PublicDepth: &domain.PublicDepth{Symbol: "ETH-USD"}})
	require.NoError(t, err)
	assert.Equal(t, "market:depth:ETH-USD", channel)
}

func TestEncode_TickerUsesSymbolTopic(t *testing.T) {
	channel, _, err := encode(domain.ExternalEvent{PublicTicker: &domain.PublicTicker{Symbol: "ETH-USD"}})
	require.NoError(t, err)
	assert.Equal(t, "market:ticker:ETH-USD", channel)
}

func TestEncode_OrderUpdateIsPerUserPrivateTopic(t *testing.T) {
	channel, payload, err := encode(domain.ExternalEvent{OrderUpdate: &domain.OrderUpdate{UserId: 42, OrderId: 1}})
	require.NoError(t, err)
	assert.Equal(t, "market:order:user:42", channel)

	var decoded domain.OrderUpdate
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, domain.UserId(42), decoded.UserId)
}

func TestEncode_EmptyEventYieldsNoChannel(t *testing.T) {
	channel, payload, err := encode(domain.ExternalEvent{})
	require.NoError(t, err)
	assert.Empty(t, channel)
	assert.Nil(t, payload)
}
