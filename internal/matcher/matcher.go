// Package matcher applies limit and market orders against a book.OrderBook
// in strict price-time priority, producing trades and fills and reporting
// whether the book changed.
// It owns no state of its own; all state lives in the book it is handed.
package matcher

import (
	"errors"

	"clob/internal/book"
	"clob/internal/domain"
)

var (
	// ErrInvalidQuantity is returned when an order's quantity is zero.
	ErrInvalidQuantity = errors.New("matcher: invalid quantity")
	// ErrInvalidPrice is returned when a limit order's price is zero.
	ErrInvalidPrice = errors.New("matcher: invalid price")
)

// Result carries everything a single PlaceLimit/PlaceMarket call produced.
// Trades are in sweep order; Fills holds two entries per trade (maker,
// then taker) in the same order. BookChanged is set when any fill
// happened or a remainder was rested.
type Result struct {
	Trades      []domain.Trade
	Fills       []domain.Fill
	BookChanged bool
}

// PlaceLimit validates and applies a limit order against ob. Any unfilled
// remainder rests in the book.
func PlaceLimit(ob *book.OrderBook, order domain.Order) (Result, error) {
	if order.Quantity == 0 {
		return Result{}, ErrInvalidQuantity
	}
	if order.Price == 0 {
		return Result{}, ErrInvalidPrice
	}
	order.Remaining = order.Quantity

	res := sweep(ob, &order, marketableLimit(order))

	if order.Remaining > 0 {
		if err := ob.AddOrder(order); err != nil {
			return res, err
		}
		res.BookChanged = true
	}
	return res, nil
}

// PlaceMarket validates and applies a market order against ob. Any
// unfilled remainder is abandoned — market orders never rest.
func PlaceMarket(ob *book.OrderBook, order domain.Order) (Result, error) {
	if order.Quantity == 0 {
		return Result{}, ErrInvalidQuantity
	}
	order.Remaining = order.Quantity

	res := sweep(ob, &order, func(domain.Order) bool { return true })
	return res, nil
}

// marketableLimit returns a predicate telling the sweep whether the
// candidate at the opposing best is still marketable against order's
// limit price: a Buy stops once best ask exceeds its price, a Sell stops
// once best bid falls below it.
func marketableLimit(order domain.Order) func(candidate domain.Order) bool {
	return func(candidate domain.Order) bool {
		switch order.Side {
		case domain.Buy:
			return candidate.Price <= order.Price
		case domain.Sell:
			return candidate.Price >= order.Price
		}
		return false
	}
}

// sweep repeatedly matches order against the best opposing candidate
// while marketable(candidate) holds and order has remaining quantity.
func sweep(ob *book.OrderBook, order *domain.Order, marketable func(domain.Order) bool) Result {
	var res Result

	for order.Remaining > 0 {
		candidateId, ok := ob.NextMatchCandidate(order.Side)
		if !ok {
			break
		}
		candidate, ok := ob.GetOrder(candidateId)
		if !ok {
			break
		}
		if !marketable(candidate) {
			break
		}

		fillQty := min(order.Remaining, candidate.Remaining)
		fillPrice := candidate.Price // maker's price, always

		trade := domain.Trade{
			TradeId:      ob.NextTradeId(),
			Symbol:       order.Symbol,
			MakerOrderId: candidate.OrderId,
			MakerUserId:  candidate.UserId,
			TakerOrderId: order.OrderId,
			TakerUserId:  order.UserId,
			Price:        fillPrice,
			Quantity:     fillQty,
			Timestamp:    order.Timestamp,
		}
		res.Trades = append(res.Trades, trade)

		makerRemaining := candidate.Remaining - fillQty
		takerRemaining := order.Remaining - fillQty

		res.Fills = append(res.Fills,
			domain.Fill{
				OrderId:           candidate.OrderId,
				UserId:            candidate.UserId,
				Symbol:            order.Symbol,
				Side:              candidate.Side,
				FilledQuantity:    fillQty,
				FilledPrice:       fillPrice,
				RemainingQuantity: makerRemaining,
			},
			domain.Fill{
				OrderId:           order.OrderId,
				UserId:            order.UserId,
				Symbol:            order.Symbol,
				Side:              order.Side,
				FilledQuantity:    fillQty,
				FilledPrice:       fillPrice,
				RemainingQuantity: takerRemaining,
			},
		)

		_ = ob.UpdateFill(candidate.OrderId, fillQty)
		order.Remaining = takerRemaining
		res.BookChanged = true
	}

	return res
}
