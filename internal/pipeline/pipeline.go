// Package pipeline implements the fan-out worker (C7): a single
// consumer of engine events that runs each one through the transformer
// and aggregator, then hands the result to every registered publisher.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/domain"
	"clob/internal/marketdata"
	"clob/internal/metrics"
	"clob/internal/publisher"
)

// Pipeline owns the transformer, the aggregator, and the set of
// publishers events are fanned out to. It is single-threaded: exactly
// one goroutine ever calls Transform/Process/Publish, preserving the
// Trade(n) < Trade(n+1) and OrderAck < Fill < terminal ordering the
// engine already established.
type Pipeline struct {
	events      <-chan domain.EngineEvent
	transformer *marketdata.Transformer
	aggregator  *marketdata.Aggregator
	publishers  []NamedPublisher
	m           *metrics.Metrics
}

// NamedPublisher pairs a Publisher with a short name used for metric
// labels and log lines.
type NamedPublisher struct {
	Name string
	publisher.Publisher
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithMetrics attaches a Metrics bundle the pipeline updates as it runs.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.m = m }
}

// New builds a Pipeline reading from events and fanning the result of
// each one out to publishers, in registration order.
func New(events <-chan domain.EngineEvent, transformer *marketdata.Transformer, aggregator *marketdata.Aggregator, publishers []NamedPublisher, opts ...Option) *Pipeline {
	p := &Pipeline{
		events:      events,
		transformer: transformer,
		aggregator:  aggregator,
		publishers:  publishers,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run drains events until the channel closes or t starts dying.
func (p *Pipeline) Run(t *tomb.Tomb) error {
	log.Info().Msg("pipeline worker starting")
	for {
		select {
		case <-t.Dying():
			log.Info().Msg("pipeline worker stopping")
			return nil
		case ev, ok := <-p.events:
			if !ok {
				log.Info().Msg("pipeline worker stopping: engine events closed")
				return nil
			}
			p.handle(ev)
		}
	}
}

// RunContext is a context.Context-driven variant of Run, for callers
// that don't otherwise use a tomb.
func (p *Pipeline) RunContext(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-p.events:
			if !ok {
				return
			}
			p.handle(ev)
		}
	}
}

func (p *Pipeline) handle(ev domain.EngineEvent) {
	external := p.transformer.Transform(ev)
	out := p.aggregator.Process(external)
	if len(out) == 0 {
		if p.m != nil && external.PublicDepth != nil {
			p.m.DepthEmitSkipped.WithLabelValues(external.PublicDepth.Symbol).Inc()
		}
		return
	}
	for _, pub := range p.publishers {
		start := time.Now()
		err := pub.PublishBatch(out)
		if p.m != nil {
			p.m.PublishLatency.WithLabelValues(pub.Name).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			if p.m != nil {
				p.m.PublishErrors.WithLabelValues(pub.Name).Inc()
			}
			log.Error().Err(err).Str("publisher", pub.Name).Msg("publisher failed, continuing with remaining publishers")
		}
	}
}
