// Package marketdata implements the per-event transformer (C5) and the
// ticker/depth aggregator (C6) that sit between the engine loop and the
// publisher fan-out.
package marketdata

import "clob/internal/domain"

// Transformer is a pure, stateless mapping from internal engine events to
// external wire events. It performs no I/O and allocates nothing beyond
// the event it returns.
type Transformer struct {
	now func() int64
}

// NewTransformer builds a Transformer using now to stamp output events.
func NewTransformer(now func() int64) *Transformer {
	return &Transformer{now: now}
}

// Transform maps a single engine event to its external projection.
func (t *Transformer) Transform(ev domain.EngineEvent) domain.ExternalEvent {
	switch {
	case ev.Trade != nil:
		return domain.ExternalEvent{PublicTrade: &domain.PublicTrade{
			TradeId:   ev.Trade.TradeId,
			Symbol:    ev.Trade.Symbol,
			Price:     ev.Trade.Price,
			Quantity:  ev.Trade.Quantity,
			Timestamp: ev.Trade.Timestamp,
		}}
	case ev.BookUpdate != nil:
		return domain.ExternalEvent{PublicDepth: &domain.PublicDepth{
			Symbol:    ev.BookUpdate.Symbol,
			Bids:      ev.BookUpdate.Bids,
			Asks:      ev.BookUpdate.Asks,
			LastPrice: ev.BookUpdate.LastPrice,
			Timestamp: t.now(),
		}}
	case ev.Fill != nil:
		return domain.ExternalEvent{OrderUpdate: &domain.OrderUpdate{
			Kind:              domain.OrderUpdateFill,
			OrderId:           ev.Fill.OrderId,
			UserId:            ev.Fill.UserId,
			Symbol:            ev.Fill.Symbol,
			FilledQuantity:    ev.Fill.FilledQuantity,
			FilledPrice:       ev.Fill.FilledPrice,
			RemainingQuantity: ev.Fill.RemainingQuantity,
			Timestamp:         t.now(),
		}}
	case ev.OrderAck != nil:
		return domain.ExternalEvent{OrderUpdate: &domain.OrderUpdate{
			Kind:      domain.OrderUpdateAck,
			OrderId:   ev.OrderAck.OrderId,
			UserId:    ev.OrderAck.UserId,
			Symbol:    ev.OrderAck.Symbol,
			Timestamp: t.now(),
		}}
	case ev.OrderReject != nil:
		return domain.ExternalEvent{OrderUpdate: &domain.OrderUpdate{
			Kind:          domain.OrderUpdateReject,
			OrderId:       ev.OrderReject.OrderId,
			UserId:        ev.OrderReject.UserId,
			Symbol:        ev.OrderReject.Symbol,
			RejectReason:  ev.OrderReject.Reason.String(),
			RejectMessage: ev.OrderReject.Message,
			Timestamp:     t.now(),
		}}
	case ev.OrderCancelled != nil:
		return domain.ExternalEvent{OrderUpdate: &domain.OrderUpdate{
			Kind:         domain.OrderUpdateCancelled,
			OrderId:      ev.OrderCancelled.OrderId,
			UserId:       ev.OrderCancelled.UserId,
			Symbol:       ev.OrderCancelled.Symbol,
			CancelReason: ev.OrderCancelled.Reason,
			Timestamp:    t.now(),
		}}
	}
	return domain.ExternalEvent{}
}
