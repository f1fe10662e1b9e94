// Package engine implements the single-threaded command consumer (C4):
// one goroutine owns every symbol's order book, dispatches PlaceOrder/
// CancelOrder/GetDepth commands to the matcher, and emits Ack/Reject/
// Cancelled/Trade/Fill/BookUpdate events for the fan-out pipeline to pick
// up. No lock is held across command boundaries because nothing is
// shared outside this goroutine.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/book"
	"clob/internal/domain"
	"clob/internal/matcher"
	"clob/internal/metrics"
)

// commandQueueSize is generous rather than tight: commands never time
// out and the channel is meant to behave as unbounded in practice.
const commandQueueSize = 4096

// Engine owns one order book per symbol and runs the matching loop on a
// single dedicated goroutine.
type Engine struct {
	books          map[domain.Symbol]*book.OrderBook
	lastTradePrice map[domain.Symbol]domain.Price
	commands       chan domain.OrderCommand
	events         chan domain.EngineEvent

	now func() int64
	m   *metrics.Metrics
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithClock overrides the millisecond clock used to stamp orders and
// trades. Intended for deterministic tests.
func WithClock(now func() int64) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics attaches a Metrics bundle the engine updates as it runs.
// Without this option the engine runs with metrics disabled.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.m = m }
}

// New creates an Engine with one empty order book per symbol.
func New(symbols []domain.Symbol, opts ...Option) *Engine {
	e := &Engine{
		books:          make(map[domain.Symbol]*book.OrderBook, len(symbols)),
		lastTradePrice: make(map[domain.Symbol]domain.Price, len(symbols)),
		commands:       make(chan domain.OrderCommand, commandQueueSize),
		events:         make(chan domain.EngineEvent, commandQueueSize),
		now:            func() int64 { return time.Now().UnixMilli() },
	}
	for _, symbol := range symbols {
		e.books[symbol] = book.New(symbol)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Commands returns the send side of the command FIFO.
func (e *Engine) Commands() chan<- domain.OrderCommand { return e.commands }

// Events returns the receive side of the emitted engine-event stream,
// consumed by the fan-out pipeline (C7).
func (e *Engine) Events() <-chan domain.EngineEvent { return e.events }

// Run consumes commands until t starts dying or the command channel is
// closed, then closes the event channel. Intended to be run under a tomb
// so the pipeline and engine shut down cooperatively.
func (e *Engine) Run(t *tomb.Tomb) error {
	defer close(e.events)
	log.Info().Msg("engine loop starting")
	for {
		select {
		case <-t.Dying():
			log.Info().Msg("engine loop shutting down")
			return nil
		case cmd, ok := <-e.commands:
			if !ok {
				log.Info().Msg("engine command channel closed, shutting down")
				return nil
			}
			e.dispatch(cmd)
		}
	}
}

// RunContext is a convenience wrapper for callers that want a bare
// context instead of wiring up a tomb themselves.
func (e *Engine) RunContext(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(e.events)
			return
		case cmd, ok := <-e.commands:
			if !ok {
				close(e.events)
				return
			}
			e.dispatch(cmd)
		}
	}
}

func (e *Engine) dispatch(cmd domain.OrderCommand) {
	switch {
	case cmd.PlaceOrder != nil:
		if e.m != nil {
			e.m.CommandsTotal.WithLabelValues("place_order").Inc()
		}
		e.handlePlaceOrder(*cmd.PlaceOrder)
	case cmd.CancelOrder != nil:
		if e.m != nil {
			e.m.CommandsTotal.WithLabelValues("cancel_order").Inc()
		}
		e.handleCancelOrder(*cmd.CancelOrder)
	case cmd.GetDepth != nil:
		if e.m != nil {
			e.m.CommandsTotal.WithLabelValues("get_depth").Inc()
		}
		e.handleGetDepth(*cmd.GetDepth)
	}
}

func (e *Engine) emit(ev domain.EngineEvent) {
	e.events <- ev
}

func (e *Engine) reject(orderId domain.OrderId, userId domain.UserId, symbol domain.Symbol, reason domain.RejectReason, message string) {
	if e.m != nil {
		e.m.RejectsTotal.WithLabelValues(symbol, reason.String()).Inc()
	}
	e.emit(domain.EngineEvent{OrderReject: &domain.OrderReject{
		OrderId: orderId,
		UserId:  userId,
		Symbol:  symbol,
		Reason:  reason,
		Message: message,
	}})
}

func (e *Engine) handlePlaceOrder(cmd domain.PlaceOrderCommand) {
	ob, ok := e.books[cmd.Symbol]
	if !ok {
		log.Warn().Str("symbol", cmd.Symbol).Msg("place order: unknown symbol")
		e.reject(cmd.OrderId, cmd.UserId, cmd.Symbol, domain.SymbolNotFound, "unknown symbol")
		return
	}
	if cmd.Quantity == 0 {
		e.reject(cmd.OrderId, cmd.UserId, cmd.Symbol, domain.InvalidQuantity, "quantity must be greater than zero")
		return
	}
	if cmd.OrderType == domain.Limit && cmd.Price == 0 {
		e.reject(cmd.OrderId, cmd.UserId, cmd.Symbol, domain.InvalidPrice, "limit order requires a positive price")
		return
	}

	order := domain.Order{
		OrderId:   cmd.OrderId,
		UserId:    cmd.UserId,
		Symbol:    cmd.Symbol,
		Side:      cmd.Side,
		OrderType: cmd.OrderType,
		Price:     cmd.Price,
		Quantity:  cmd.Quantity,
		Remaining: cmd.Quantity,
		Timestamp: e.now(),
	}

	e.emit(domain.EngineEvent{OrderAck: &domain.OrderAck{
		OrderId: order.OrderId,
		UserId:  order.UserId,
		Symbol:  order.Symbol,
	}})

	var (
		res matcher.Result
		err error
	)
	switch cmd.OrderType {
	case domain.Limit:
		res, err = matcher.PlaceLimit(ob, order)
	case domain.Market:
		res, err = matcher.PlaceMarket(ob, order)
	}
	if err != nil {
		log.Error().Err(err).Uint64("order_id", cmd.OrderId).Msg("matcher rejected order after ack")
		return
	}

	e.emitMatchResult(ob, cmd.Symbol, res)
}

// emitMatchResult forwards every Trade/Fill produced by a sweep, in the
// order the matcher generated them, followed by a BookUpdate if the sweep
// changed the book (any fill or a rested remainder).
func (e *Engine) emitMatchResult(ob *book.OrderBook, symbol domain.Symbol, res matcher.Result) {
	fillIdx := 0
	for _, trade := range res.Trades {
		t := trade
		e.lastTradePrice[symbol] = t.Price
		e.emit(domain.EngineEvent{Trade: &t})
		if e.m != nil {
			e.m.TradesTotal.WithLabelValues(symbol).Inc()
		}
		// Two Fills per Trade, maker then taker, in the order the matcher
		// appended them.
		for i := 0; i < 2 && fillIdx < len(res.Fills); i++ {
			f := res.Fills[fillIdx]
			e.emit(domain.EngineEvent{Fill: &f})
			if e.m != nil {
				e.m.FillsTotal.WithLabelValues(symbol, f.Side.String()).Inc()
			}
			fillIdx++
		}
	}

	if res.BookChanged {
		update := e.snapshotBookUpdate(ob, symbol)
		e.emit(domain.EngineEvent{BookUpdate: &update})
	}
}

func (e *Engine) handleCancelOrder(cmd domain.CancelOrderCommand) {
	ob, ok := e.books[cmd.Symbol]
	if !ok {
		e.reject(cmd.OrderId, cmd.UserId, cmd.Symbol, domain.SymbolNotFound, "unknown symbol")
		return
	}

	existing, ok := ob.GetOrder(cmd.OrderId)
	if !ok || existing.UserId != cmd.UserId {
		e.reject(cmd.OrderId, cmd.UserId, cmd.Symbol, domain.InvalidOrder, "order not found or not owned by caller")
		return
	}

	if _, err := ob.RemoveOrder(cmd.OrderId); err != nil {
		e.reject(cmd.OrderId, cmd.UserId, cmd.Symbol, domain.InvalidOrder, err.Error())
		return
	}

	e.emit(domain.EngineEvent{OrderCancelled: &domain.OrderCancelled{
		OrderId: cmd.OrderId,
		UserId:  cmd.UserId,
		Symbol:  cmd.Symbol,
		Reason:  domain.UserRequested,
	}})

	update := e.snapshotBookUpdate(ob, cmd.Symbol)
	e.emit(domain.EngineEvent{BookUpdate: &update})
}

func (e *Engine) handleGetDepth(cmd domain.GetDepthCommand) {
	ob, ok := e.books[cmd.Symbol]
	if !ok {
		cmd.Reply <- domain.DepthReply{Err: errUnknownSymbol(cmd.Symbol)}
		return
	}
	update := e.snapshotBookUpdate(ob, cmd.Symbol)
	if cmd.Limit > 0 {
		d := ob.GetDepth(cmd.Limit)
		update.Bids = d.Bids
		update.Asks = d.Asks
	}
	cmd.Reply <- domain.DepthReply{Update: update}
}

func (e *Engine) snapshotBookUpdate(ob *book.OrderBook, symbol domain.Symbol) domain.BookUpdate {
	d := ob.GetDepth(book.CacheLimit)
	update := domain.BookUpdate{Symbol: symbol, Bids: d.Bids, Asks: d.Asks}
	if price, ok := e.lastTradePrice[symbol]; ok {
		p := price
		update.LastPrice = &p
	}
	return update
}
