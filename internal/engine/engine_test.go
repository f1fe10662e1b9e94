package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/domain"
)

func startEngine(t *testing.T, symbols []domain.Symbol) *Engine {
	t.Helper()
	e := New(symbols, WithClock(func() int64 { return 1000 }))

	tb := &tomb.Tomb{}
	tb.Go(func() error { return e.Run(tb) })
	t.Cleanup(func() {
		tb.Kill(nil)
		_ = tb.Wait()
	})
	return e
}

func recvEvent(t *testing.T, events <-chan domain.EngineEvent) domain.EngineEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for engine event")
		return domain.EngineEvent{}
	}
}

func TestHandlePlaceOrder_EmitsAckThenRests(t *testing.T) {
	e := startEngine(t, []domain.Symbol{"BTC-USD"})

	e.Commands() <- domain.OrderCommand{PlaceOrder: &domain.PlaceOrderCommand{
		OrderId: 1, UserId: 7, Symbol: "BTC-USD", Side: domain.Buy, OrderType: domain.Limit,
		Quantity: 10, Price: 100,
	}}

	ack := recvEvent(t, e.Events())
	require.NotNil(t, ack.OrderAck)
	assert.Equal(t, domain.OrderId(1), ack.OrderAck.OrderId)

	bookUpdate := recvEvent(t, e.Events())
	require.NotNil(t, bookUpdate.BookUpdate)
	require.Len(t, bookUpdate.BookUpdate.Bids, 1)
	assert.Equal(t, domain.Price(100), bookUpdate.BookUpdate.Bids[0].Price)
}

func TestHandlePlaceOrder_UnknownSymbolRejects(t *testing.T) {
	e := startEngine(t, []domain.Symbol{"BTC-USD"})

	e.Commands() <- domain.OrderCommand{PlaceOrder: &domain.PlaceOrderCommand{
		OrderId: 1, UserId: 7, Symbol: "ETH-USD", Side: domain.Buy, OrderType: domain.Limit,
		Quantity: 10, Price: 100,
	}}

	reject := recvEvent(t, e.Events())
	require.NotNil(t, reject.OrderReject)
	assert.Equal(t, domain.SymbolNotFound, reject.OrderReject.Reason)
}

func TestHandlePlaceOrder_MatchEmitsTradeFillsAndBookUpdate(t *testing.T) {
	e := startEngine(t, []domain.Symbol{"BTC-USD"})

	e.Commands() <- domain.OrderCommand{PlaceOrder: &domain.PlaceOrderCommand{
		OrderId: 1, UserId: 1, Symbol: "BTC-USD", Side: domain.Sell, OrderType: domain.Limit,
		Quantity: 10, Price: 100,
	}}
	_ = recvEvent(t, e.Events()) // ack
	_ = recvEvent(t, e.Events()) // book update (resting)

	e.Commands() <- domain.OrderCommand{PlaceOrder: &domain.PlaceOrderCommand{
		OrderId: 2, UserId: 2, Symbol: "BTC-USD", Side: domain.Buy, OrderType: domain.Limit,
		Quantity: 10, Price: 100,
	}}

	ack := recvEvent(t, e.Events())
	require.NotNil(t, ack.OrderAck)

	trade := recvEvent(t, e.Events())
	require.NotNil(t, trade.Trade)
	assert.Equal(t, domain.Quantity(10), trade.Trade.Quantity)

	makerFill := recvEvent(t, e.Events())
	require.NotNil(t, makerFill.Fill)
	assert.Equal(t, domain.OrderId(1), makerFill.Fill.OrderId)

	takerFill := recvEvent(t, e.Events())
	require.NotNil(t, takerFill.Fill)
	assert.Equal(t, domain.OrderId(2), takerFill.Fill.OrderId)

	bookUpdate := recvEvent(t, e.Events())
	require.NotNil(t, bookUpdate.BookUpdate)
	assert.Empty(t, bookUpdate.BookUpdate.Bids)
	assert.Empty(t, bookUpdate.BookUpdate.Asks)
	require.NotNil(t, bookUpdate.BookUpdate.LastPrice)
	assert.Equal(t, domain.Price(100), *bookUpdate.BookUpdate.LastPrice)
}

func TestHandleCancelOrder_RemovesRestingOrderAndEmitsCancelled(t *testing.T) {
	e := startEngine(t, []domain.Symbol{"BTC-USD"})

	e.Commands() <- domain.OrderCommand{PlaceOrder: &domain.PlaceOrderCommand{
		OrderId: 1, UserId: 7, Symbol: "BTC-USD", Side: domain.Buy, OrderType: domain.Limit,
		Quantity: 10, Price: 100,
	}}
	_ = recvEvent(t, e.Events()) // ack
	_ = recvEvent(t, e.Events()) // book update

	e.Commands() <- domain.OrderCommand{CancelOrder: &domain.CancelOrderCommand{
		OrderId: 1, UserId: 7, Symbol: "BTC-USD",
	}}

	cancelled := recvEvent(t, e.Events())
	require.NotNil(t, cancelled.OrderCancelled)
	assert.Equal(t, domain.UserRequested, cancelled.OrderCancelled.Reason)

	bookUpdate := recvEvent(t, e.Events())
	require.NotNil(t, bookUpdate.BookUpdate)
	assert.Empty(t, bookUpdate.BookUpdate.Bids)
}

func TestHandleCancelOrder_WrongOwnerRejects(t *testing.T) {
	e := startEngine(t, []domain.Symbol{"BTC-USD"})

	e.Commands() <- domain.OrderCommand{PlaceOrder: &domain.PlaceOrderCommand{
		OrderId: 1, UserId: 7, Symbol: "BTC-USD", Side: domain.Buy, OrderType: domain.Limit,
		Quantity: 10, Price: 100,
	}}
	_ = recvEvent(t, e.Events())
	_ = recvEvent(t, e.Events())

	e.Commands() <- domain.OrderCommand{CancelOrder: &domain.CancelOrderCommand{
		OrderId: 1, UserId: 999, Symbol: "BTC-USD",
	}}

	reject := recvEvent(t, e.Events())
	require.NotNil(t, reject.OrderReject)
	assert.Equal(t, domain.InvalidOrder, reject.OrderReject.Reason)
}

func TestHandleGetDepth_SynchronousReply(t *testing.T) {
	e := startEngine(t, []domain.Symbol{"BTC-USD"})

	e.Commands() <- domain.OrderCommand{PlaceOrder: &domain.PlaceOrderCommand{
		OrderId: 1, UserId: 7, Symbol: "BTC-USD", Side: domain.Buy, OrderType: domain.Limit,
		Quantity: 10, Price: 100,
	}}
	_ = recvEvent(t, e.Events())
	_ = recvEvent(t, e.Events())

	reply := make(chan domain.DepthReply, 1)
	e.Commands() <- domain.OrderCommand{GetDepth: &domain.GetDepthCommand{Symbol: "BTC-USD", Limit: 5, Reply: reply}}

	select {
	case r := <-reply:
		require.NoError(t, r.Err)
		require.Len(t, r.Update.Bids, 1)
		assert.Equal(t, domain.Price(100), r.Update.Bids[0].Price)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for depth reply")
	}
}
