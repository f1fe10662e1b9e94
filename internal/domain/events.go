package domain

// EngineEvent is the union of outputs the engine loop (C4) produces for
// the fan-out pipeline (C7). Exactly one field is non-nil.
type EngineEvent struct {
	Trade           *Trade
	Fill            *Fill
	OrderAck        *OrderAck
	OrderReject     *OrderReject
	OrderCancelled  *OrderCancelled
	BookUpdate      *BookUpdate
}

// OrderAck confirms acceptance of a PlaceOrder command, even if the order
// has not yet been (fully) filled.
type OrderAck struct {
	OrderId OrderId
	UserId  UserId
	Symbol  Symbol
}

// OrderReject reports that a command could not be applied; no state
// mutation occurred.
type OrderReject struct {
	OrderId OrderId
	UserId  UserId
	Symbol  Symbol
	Reason  RejectReason
	Message string
}

// OrderCancelled reports that a resting order left the book without
// being filled.
type OrderCancelled struct {
	OrderId OrderId
	UserId  UserId
	Symbol  Symbol
	Reason  CancelReason
}

// ExternalEvent is the union of outputs the fan-out pipeline (C7) hands
// to publishers (C8), after C5/C6 have run. Public events are keyed by
// symbol; private events are keyed by user id.
type ExternalEvent struct {
	PublicTrade   *PublicTrade
	PublicDepth   *PublicDepth
	PublicTicker  *PublicTicker
	OrderUpdate   *OrderUpdate
}

// PublicTrade is the market-wide trade tape entry.
type PublicTrade struct {
	TradeId   TradeId
	Symbol    Symbol
	Price     Price
	Quantity  Quantity
	Timestamp int64
}

// PublicDepth is the debounced aggregated depth snapshot.
type PublicDepth struct {
	Symbol    Symbol
	Bids      []PriceLevelView
	Asks      []PriceLevelView
	LastPrice *Price
	Timestamp int64
}

// PublicTicker is the rolling 24h ticker rollup.
type PublicTicker struct {
	Symbol              Symbol
	LastPrice           Price
	Open                Price
	High                Price
	Low                 Price
	Volume              Quantity
	PriceChange         int64
	PriceChangePercent  float64
	Timestamp           int64
}

// OrderUpdateKind distinguishes the four private order-lifecycle variants.
type OrderUpdateKind int

const (
	OrderUpdateAck OrderUpdateKind = iota
	OrderUpdateFill
	OrderUpdateReject
	OrderUpdateCancelled
)

// OrderUpdate is the private, per-user projection of an engine event.
// Kind selects which of the optional fields below are meaningful.
type OrderUpdate struct {
	Kind              OrderUpdateKind
	OrderId           OrderId
	UserId            UserId
	Symbol            Symbol
	FilledQuantity    Quantity
	FilledPrice       Price
	RemainingQuantity Quantity
	RejectReason      string
	RejectMessage     string
	CancelReason      CancelReason
	Timestamp         int64
}
