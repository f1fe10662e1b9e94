// Package domain holds the scalar types and wire-level schemas shared by
// the matching core and the market-data pipeline: orders, trades, fills,
// book snapshots, commands and the two event unions described in the
// engine/pipeline boundary.
package domain

// Price and Quantity are fixed-point ticks. No floating-point price
// arithmetic anywhere in the core.
type Price = uint64
type Quantity = uint64

// OrderId, UserId and TradeId are opaque identifiers assigned by callers
// (OrderId, UserId) or by the book (TradeId, monotonic per symbol).
type OrderId = uint64
type UserId = uint64
type TradeId = uint64

// Symbol is a short interned string naming a trading pair.
type Symbol = string

// Side of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderType distinguishes resting limit orders from immediate-or-abandon
// market orders.
type OrderType int

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	default:
		return "unknown"
	}
}

// OrderStatus is the lifecycle state of an order as seen from outside the
// engine. New -> Accepted -> {PartiallyFilled, Filled, Cancelled, Rejected}.
type OrderStatus int

const (
	Pending OrderStatus = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// RejectReason is the stable wire name for why an order was rejected.
type RejectReason int

const (
	InvalidPrice RejectReason = iota
	InvalidOrder
	InvalidQuantity
	InsufficientBalance
	SymbolNotFound
	MarketClosed
	InternalError
)

func (r RejectReason) String() string {
	switch r {
	case InvalidPrice:
		return "invalid_price"
	case InvalidOrder:
		return "invalid_order"
	case InvalidQuantity:
		return "invalid_quantity"
	case InsufficientBalance:
		return "insufficient_balance"
	case SymbolNotFound:
		return "symbol_not_found"
	case MarketClosed:
		return "market_closed"
	case InternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// CancelReason is the stable wire name for why a resting order left the book.
type CancelReason int

const (
	UserRequested CancelReason = iota
	SystemCancelled
	Expired
	Liquidation
)

func (r CancelReason) String() string {
	switch r {
	case UserRequested:
		return "user_requested"
	case SystemCancelled:
		return "system_cancelled"
	case Expired:
		return "expired"
	case Liquidation:
		return "liquidation"
	default:
		return "unknown"
	}
}

// Order is the resting/incoming order record. Quantity is the originally
// requested amount; Remaining tracks what is left to fill.
type Order struct {
	OrderId   OrderId
	UserId    UserId
	Symbol    Symbol
	Side      Side
	OrderType OrderType
	Price     Price // ignored for Market orders
	Quantity  Quantity
	Remaining Quantity
	Timestamp int64 // ms since epoch, set on entry
}

// Trade is the immutable record of a single fill between a maker and a
// taker. TradeId is strictly increasing within a symbol.
type Trade struct {
	TradeId      TradeId
	Symbol       Symbol
	MakerOrderId OrderId
	MakerUserId  UserId
	TakerOrderId OrderId
	TakerUserId  UserId
	Price        Price
	Quantity     Quantity
	Timestamp    int64
}

// Fill is one side's user-facing projection of a Trade. Two Fills are
// emitted per Trade: one for the maker, one for the taker.
type Fill struct {
	OrderId           OrderId
	UserId            UserId
	Symbol            Symbol
	Side              Side
	FilledQuantity    Quantity
	FilledPrice       Price
	RemainingQuantity Quantity
}

// PriceLevelView is one aggregated rung of a BookUpdate/Depth snapshot.
type PriceLevelView struct {
	Price    Price
	Quantity Quantity
}

// BookUpdate is a top-N aggregated depth snapshot for one symbol.
type BookUpdate struct {
	Symbol    Symbol
	Bids      []PriceLevelView
	Asks      []PriceLevelView
	LastPrice *Price
}
