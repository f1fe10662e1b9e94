package marketdata

import "clob/internal/domain"

// DefaultDepthIntervalMs is the debounce window between consecutive
// depth emissions for a single symbol.
const DefaultDepthIntervalMs = 100

type tickerState struct {
	hasOpen       bool
	open          domain.Price
	high          domain.Price
	low           domain.Price
	lastPrice     domain.Price
	hasLastPrice  bool
	volume        domain.Quantity
	lastTradeTime int64
}

// Aggregator holds per-symbol ticker rollups and depth-debounce state. It
// is owned exclusively by the fan-out pipeline (C7); nothing else
// mutates it.
type Aggregator struct {
	depthIntervalMs int64
	now             func() int64

	lastDepth     map[domain.Symbol]domain.PublicDepth
	lastDepthEmit map[domain.Symbol]int64
	ticker        map[domain.Symbol]*tickerState
}

// NewAggregator builds an Aggregator with the given depth debounce window
// and clock. Pass DefaultDepthIntervalMs for depthIntervalMs to match the
// spec's default.
func NewAggregator(depthIntervalMs int64, now func() int64) *Aggregator {
	return &Aggregator{
		depthIntervalMs: depthIntervalMs,
		now:             now,
		lastDepth:       make(map[domain.Symbol]domain.PublicDepth),
		lastDepthEmit:   make(map[domain.Symbol]int64),
		ticker:          make(map[domain.Symbol]*tickerState),
	}
}

// Process folds one external event through the aggregator, returning zero
// or more events to forward to publishers. Trades always yield the trade
// itself plus a derived Ticker; Depth is throttled to at most one
// emission per depthIntervalMs per symbol; everything else passes
// through unchanged.
func (a *Aggregator) Process(ev domain.ExternalEvent) []domain.ExternalEvent {
	switch {
	case ev.PublicTrade != nil:
		trade := ev.PublicTrade
		a.updateTickerFromTrade(trade)
		out := []domain.ExternalEvent{ev}
		if ticker := a.buildTicker(trade.Symbol); ticker != nil {
			out = append(out, domain.ExternalEvent{PublicTicker: ticker})
		}
		return out

	case ev.PublicDepth != nil:
		depth := *ev.PublicDepth
		symbol := depth.Symbol
		a.lastDepth[symbol] = depth

		now := a.now()
		lastEmit, seen := a.lastDepthEmit[symbol]
		if !seen || now-lastEmit >= a.depthIntervalMs {
			a.lastDepthEmit[symbol] = now
			latest := a.lastDepth[symbol]
			return []domain.ExternalEvent{{PublicDepth: &latest}}
		}
		return nil

	default:
		return []domain.ExternalEvent{ev}
	}
}

func (a *Aggregator) updateTickerFromTrade(t *domain.PublicTrade) {
	state, ok := a.ticker[t.Symbol]
	if !ok {
		state = &tickerState{}
		a.ticker[t.Symbol] = state
	}

	if !state.hasOpen {
		state.hasOpen = true
		state.open = t.Price
		state.high = t.Price
		state.low = t.Price
	}

	state.hasLastPrice = true
	state.lastPrice = t.Price
	state.lastTradeTime = t.Timestamp

	state.volume = saturatingAdd(state.volume, t.Quantity)

	if t.Price > state.high {
		state.high = t.Price
	}
	if t.Price < state.low {
		state.low = t.Price
	}
}

func (a *Aggregator) buildTicker(symbol domain.Symbol) *domain.PublicTicker {
	state, ok := a.ticker[symbol]
	if !ok || !state.hasOpen || !state.hasLastPrice {
		return nil
	}

	change := int64(state.lastPrice) - int64(state.open)
	var changePct float64
	if state.open != 0 {
		changePct = float64(change) / float64(state.open) * 100.0
	}

	return &domain.PublicTicker{
		Symbol:             symbol,
		LastPrice:          state.lastPrice,
		Open:               state.open,
		High:               state.high,
		Low:                state.low,
		Volume:             state.volume,
		PriceChange:        change,
		PriceChangePercent: changePct,
		Timestamp:          a.now(),
	}
}

// ResetTicker clears the rolling 24h window for symbol. Intended to be
// called by an out-of-core daily housekeeping tick (spec leaves eviction
// unspecified beyond "a separate housekeeping tick may reset state
// daily").
func (a *Aggregator) ResetTicker(symbol domain.Symbol) {
	delete(a.ticker, symbol)
}

func saturatingAdd(a, b domain.Quantity) domain.Quantity {
	sum := a + b
	if sum < a {
		return ^domain.Quantity(0)
	}
	return sum
}
