package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clob/internal/domain"
)

func testOrder(id domain.OrderId, side domain.Side, price, qty domain.Quantity) domain.Order {
	return domain.Order{
		OrderId:   id,
		UserId:    1,
		Symbol:    "BTC-USD",
		Side:      side,
		OrderType: domain.Limit,
		Price:     price,
		Quantity:  qty,
		Remaining: qty,
	}
}

func TestAddOrder_SortsLevelsByPriceTimePriority(t *testing.T) {
	ob := New("BTC-USD")

	require.NoError(t, ob.AddOrder(testOrder(1, domain.Buy, 99, 100)))
	require.NoError(t, ob.AddOrder(testOrder(2, domain.Buy, 98, 50)))
	require.NoError(t, ob.AddOrder(testOrder(3, domain.Sell, 101, 20)))
	require.NoError(t, ob.AddOrder(testOrder(4, domain.Sell, 100, 90)))

	require.NotNil(t, ob.BestBid())
	require.NotNil(t, ob.BestAsk())
	assert.Equal(t, domain.Price(99), *ob.BestBid())
	assert.Equal(t, domain.Price(100), *ob.BestAsk())

	depth := ob.GetDepth(10)
	require.Len(t, depth.Bids, 2)
	require.Len(t, depth.Asks, 2)
	assert.Equal(t, domain.PriceLevelView{Price: 99, Quantity: 100}, depth.Bids[0])
	assert.Equal(t, domain.PriceLevelView{Price: 98, Quantity: 50}, depth.Bids[1])
	assert.Equal(t, domain.PriceLevelView{Price: 100, Quantity: 90}, depth.Asks[0])
	assert.Equal(t, domain.PriceLevelView{Price: 101, Quantity: 20}, depth.Asks[1])
}

func TestAddOrder_RejectsZeroQuantityAndPrice(t *testing.T) {
	ob := New("BTC-USD")
	assert.ErrorIs(t, ob.AddOrder(testOrder(1, domain.Buy, 99, 0)), ErrInvalidOrder)
	assert.ErrorIs(t, ob.AddOrder(testOrder(2, domain.Buy, 0, 10)), ErrInvalidOrder)
}

func TestRemoveOrder_DropsEmptyLevelAndRecomputesBest(t *testing.T) {
	ob := New("BTC-USD")
	require.NoError(t, ob.AddOrder(testOrder(1, domain.Buy, 99, 100)))
	require.NoError(t, ob.AddOrder(testOrder(2, domain.Buy, 98, 50)))

	removed, err := ob.RemoveOrder(1)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderId(1), removed.OrderId)

	require.NotNil(t, ob.BestBid())
	assert.Equal(t, domain.Price(98), *ob.BestBid())

	_, err = ob.RemoveOrder(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveOrder_ClearsBestWhenBookEmptied(t *testing.T) {
	ob := New("BTC-USD")
	require.NoError(t, ob.AddOrder(testOrder(1, domain.Sell, 100, 10)))
	_, err := ob.RemoveOrder(1)
	require.NoError(t, err)
	assert.Nil(t, ob.BestAsk())
}

func TestUpdateFill_PartialLeavesOrderResting(t *testing.T) {
	ob := New("BTC-USD")
	require.NoError(t, ob.AddOrder(testOrder(1, domain.Sell, 100, 90)))

	require.NoError(t, ob.UpdateFill(1, 20))

	order, ok := ob.GetOrder(1)
	require.True(t, ok)
	assert.Equal(t, domain.Quantity(70), order.Remaining)

	depth := ob.GetDepth(10)
	require.Len(t, depth.Asks, 1)
	assert.Equal(t, domain.Quantity(70), depth.Asks[0].Quantity)
}

func TestUpdateFill_FullConsumptionRemovesOrder(t *testing.T) {
	ob := New("BTC-USD")
	require.NoError(t, ob.AddOrder(testOrder(1, domain.Sell, 100, 90)))

	require.NoError(t, ob.UpdateFill(1, 90))

	_, ok := ob.GetOrder(1)
	assert.False(t, ok)
	assert.Nil(t, ob.BestAsk())
}

func TestNextMatchCandidate_ReturnsFIFOHeadOfBestLevel(t *testing.T) {
	ob := New("BTC-USD")
	require.NoError(t, ob.AddOrder(testOrder(1, domain.Sell, 100, 10)))
	require.NoError(t, ob.AddOrder(testOrder(2, domain.Sell, 100, 20)))

	id, ok := ob.NextMatchCandidate(domain.Buy)
	require.True(t, ok)
	assert.Equal(t, domain.OrderId(1), id)

	_, err := ob.RemoveOrder(1)
	require.NoError(t, err)

	id, ok = ob.NextMatchCandidate(domain.Buy)
	require.True(t, ok)
	assert.Equal(t, domain.OrderId(2), id)
}

func TestGetDepth_TruncatesToLimit(t *testing.T) {
	ob := New("BTC-USD")
	for i := domain.OrderId(1); i <= 5; i++ {
		require.NoError(t, ob.AddOrder(testOrder(i, domain.Buy, domain.Price(100-i), 10)))
	}

	depth := ob.GetDepth(2)
	assert.Len(t, depth.Bids, 2)
}

func TestGetDepth_CacheRefreshedAfterMutation(t *testing.T) {
	ob := New("BTC-USD")
	require.NoError(t, ob.AddOrder(testOrder(1, domain.Buy, 99, 10)))

	_ = ob.GetDepth(10) // prime the cache

	require.NoError(t, ob.AddOrder(testOrder(2, domain.Buy, 105, 5)))
	depth := ob.GetDepth(10)
	require.Len(t, depth.Bids, 2)
	assert.Equal(t, domain.Price(105), depth.Bids[0].Price)
}

func TestNextTradeId_MonotonicPerSymbol(t *testing.T) {
	ob := New("BTC-USD")
	assert.Equal(t, domain.TradeId(0), ob.NextTradeId())
	assert.Equal(t, domain.TradeId(1), ob.NextTradeId())
	assert.Equal(t, domain.TradeId(2), ob.NextTradeId())
}
