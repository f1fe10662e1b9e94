package book

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"

	"clob/internal/domain"
)

// CacheLimit bounds how many price rungs per side the depth cache keeps
// before a caller's own limit truncates further. Mirrors the fixed-size
// depth cache in the original engine core.
const CacheLimit = 50

var (
	// ErrInvalidOrder is returned by AddOrder when quantity or price is
	// non-positive.
	ErrInvalidOrder = errors.New("book: invalid order")
	// ErrNotFound is returned by RemoveOrder/UpdateFill for an unknown
	// order id.
	ErrNotFound = errors.New("book: order not found")
)

type priceLevels = btree.BTreeG[*PriceLevel]

// Depth is a top-N snapshot of both ladders, highest bid first and lowest
// ask first.
type Depth struct {
	Bids []domain.PriceLevelView
	Asks []domain.PriceLevelView
}

type cachedDepth struct {
	bids     []domain.PriceLevelView
	asks     []domain.PriceLevelView
	isLatest bool
}

// OrderBook is the two sorted price ladders, order index and best-price
// tracking for a single symbol. All mutation happens from a single
// goroutine (the owning engine's loop); no internal locking.
type OrderBook struct {
	Symbol Symbol

	bids *priceLevels // sorted descending on access (best bid first)
	asks *priceLevels // sorted ascending on access (best ask first)

	orders map[domain.OrderId]*domain.Order

	bestBid *domain.Price
	bestAsk *domain.Price

	depth cachedDepth

	nextTradeId domain.TradeId
}

// Symbol is a local alias so callers don't need to import domain just to
// construct the field above from a string literal.
type Symbol = domain.Symbol

// New creates an empty order book for symbol.
func New(symbol Symbol) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.Price > b.Price })
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool { return a.Price < b.Price })
	return &OrderBook{
		Symbol: symbol,
		bids:   bids,
		asks:   asks,
		orders: make(map[domain.OrderId]*domain.Order),
	}
}

// NextTradeId returns the next monotonically increasing trade id for this
// symbol and advances the counter.
func (b *OrderBook) NextTradeId() domain.TradeId {
	id := b.nextTradeId
	b.nextTradeId++
	return id
}

func (b *OrderBook) ladder(side domain.Side) *priceLevels {
	if side == domain.Buy {
		return b.bids
	}
	return b.asks
}

// AddOrder validates and inserts order into the book. The matcher must
// ensure the order does not cross the opposite best before calling this;
// AddOrder itself performs no matching.
func (b *OrderBook) AddOrder(order domain.Order) error {
	if order.Quantity == 0 || order.Remaining == 0 {
		return ErrInvalidOrder
	}
	if order.Price == 0 {
		return ErrInvalidOrder
	}

	stored := order
	b.orders[order.OrderId] = &stored

	levels := b.ladder(order.Side)
	if level, ok := levels.Get(&PriceLevel{Price: order.Price}); ok {
		level.AddOrder(order.OrderId, order.Remaining)
	} else {
		level := newPriceLevel(order.Price)
		level.AddOrder(order.OrderId, order.Remaining)
		levels.Set(level)
	}

	switch order.Side {
	case domain.Buy:
		if b.bestBid == nil || order.Price > *b.bestBid {
			p := order.Price
			b.bestBid = &p
		}
	case domain.Sell:
		if b.bestAsk == nil || order.Price < *b.bestAsk {
			p := order.Price
			b.bestAsk = &p
		}
	}

	b.depth.isLatest = false
	return nil
}

// RemoveOrder removes order_id from the index and its level, returning the
// removed order. If removing its price leaves the level empty, the level
// is dropped and, when the removed price was the best, the best is
// recomputed from the new extremum.
func (b *OrderBook) RemoveOrder(orderId domain.OrderId) (domain.Order, error) {
	order, ok := b.orders[orderId]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	delete(b.orders, orderId)

	levels := b.ladder(order.Side)
	if level, ok := levels.Get(&PriceLevel{Price: order.Price}); ok {
		if !level.RemoveOrder(orderId, order.Remaining) {
			log.Error().Str("symbol", b.Symbol).Uint64("order_id", orderId).Uint64("price", order.Price).Msg("order book: indexed order missing from its price level")
		}
		if level.IsEmpty() {
			levels.Delete(level)
			b.recomputeBestIfNeeded(order.Side, order.Price)
		}
	}

	b.depth.isLatest = false
	return *order, nil
}

func (b *OrderBook) recomputeBestIfNeeded(side domain.Side, removedPrice domain.Price) {
	switch side {
	case domain.Buy:
		if b.bestBid != nil && *b.bestBid == removedPrice {
			if top, ok := b.bids.Min(); ok {
				p := top.Price
				b.bestBid = &p
			} else {
				b.bestBid = nil
			}
		}
	case domain.Sell:
		if b.bestAsk != nil && *b.bestAsk == removedPrice {
			if top, ok := b.asks.Min(); ok {
				p := top.Price
				b.bestAsk = &p
			} else {
				b.bestAsk = nil
			}
		}
	}
}

// UpdateFill decrements the resting order's remaining quantity and its
// level's total by filledQty. If filledQty consumes the order entirely it
// is removed from the book, symmetric with RemoveOrder.
func (b *OrderBook) UpdateFill(orderId domain.OrderId, filledQty domain.Quantity) error {
	order, ok := b.orders[orderId]
	if !ok {
		return ErrNotFound
	}

	remainingBefore := order.Remaining
	order.Remaining -= filledQty
	b.depth.isLatest = false

	levels := b.ladder(order.Side)
	level, ok := levels.Get(&PriceLevel{Price: order.Price})
	if !ok {
		return nil
	}

	if remainingBefore == filledQty {
		level.RemoveOrder(orderId, filledQty)
		delete(b.orders, orderId)
		if level.IsEmpty() {
			levels.Delete(level)
			b.recomputeBestIfNeeded(order.Side, order.Price)
		}
		return nil
	}

	level.totalQuantity -= filledQty
	return nil
}

// BestBid returns the highest resting buy price, or nil if the bid side
// is empty.
func (b *OrderBook) BestBid() *domain.Price { return b.bestBid }

// BestAsk returns the lowest resting sell price, or nil if the ask side
// is empty.
func (b *OrderBook) BestAsk() *domain.Price { return b.bestAsk }

// GetOrder looks up a resting order by id without removing it.
func (b *OrderBook) GetOrder(orderId domain.OrderId) (domain.Order, bool) {
	order, ok := b.orders[orderId]
	if !ok {
		return domain.Order{}, false
	}
	return *order, true
}

// NextMatchCandidate returns the FIFO head of the best opposing level for
// an incoming order of the given side: best ask for a Buy, best bid for a
// Sell.
func (b *OrderBook) NextMatchCandidate(incomingSide domain.Side) (domain.OrderId, bool) {
	switch incomingSide {
	case domain.Buy:
		if b.bestAsk == nil {
			return 0, false
		}
		level, ok := b.asks.Get(&PriceLevel{Price: *b.bestAsk})
		if !ok {
			return 0, false
		}
		return level.FrontOrder()
	case domain.Sell:
		if b.bestBid == nil {
			return 0, false
		}
		level, ok := b.bids.Get(&PriceLevel{Price: *b.bestBid})
		if !ok {
			return 0, false
		}
		return level.FrontOrder()
	}
	return 0, false
}

// GetDepth returns the top-limit aggregated depth, recomputing the cache
// if it was marked dirty by an intervening mutation.
func (b *OrderBook) GetDepth(limit int) Depth {
	if !b.depth.isLatest {
		b.refreshDepthCache()
	}

	bids := b.depth.bids
	asks := b.depth.asks
	if limit >= 0 && limit < len(bids) {
		bids = bids[:limit]
	}
	if limit >= 0 && limit < len(asks) {
		asks = asks[:limit]
	}
	// Defensive copies: callers must not observe cache mutation.
	out := Depth{
		Bids: append([]domain.PriceLevelView(nil), bids...),
		Asks: append([]domain.PriceLevelView(nil), asks...),
	}
	return out
}

func (b *OrderBook) refreshDepthCache() {
	bids := make([]domain.PriceLevelView, 0, CacheLimit)
	b.bids.Scan(func(level *PriceLevel) bool {
		bids = append(bids, domain.PriceLevelView{Price: level.Price, Quantity: level.TotalQuantity()})
		return len(bids) < CacheLimit
	})

	asks := make([]domain.PriceLevelView, 0, CacheLimit)
	b.asks.Scan(func(level *PriceLevel) bool {
		asks = append(asks, domain.PriceLevelView{Price: level.Price, Quantity: level.TotalQuantity()})
		return len(asks) < CacheLimit
	})

	b.depth = cachedDepth{bids: bids, asks: asks, isLatest: true}
}
