package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"clob/internal/domain"
	"clob/internal/workerpool"
)

// Topic prefixes. Public topics fan out to anyone subscribed to a
// symbol; the order-update topic is scoped to a single user and is
// never multiplexed with public data.
const (
	topicTrade  = "market:trade:"
	topicDepth  = "market:depth:"
	topicTicker = "market:ticker:"
	topicOrder  = "market:order:user:"
)

// Bus is a Publisher that broadcasts external events over Redis
// pub/sub, one channel per symbol per stream kind. Publish and
// PublishBatch never block on the network: both hand their events to a
// small internal worker pool and return once the event is queued,
// matching the pipeline's "publishers may not pause the worker" rule.
type Bus struct {
	client *redis.Client
	pool   *workerpool.Pool
}

// BusOption configures a Bus at construction time.
type BusOption func(*busConfig)

type busConfig struct {
	workers       int
	queueCapacity int
}

// WithWorkers overrides the number of goroutines draining the publish
// queue. Default is 4.
func WithWorkers(n int) BusOption {
	return func(c *busConfig) { c.workers = n }
}

// WithQueueCapacity overrides the publish queue's buffer size. Default
// is 4096.
func WithQueueCapacity(n int) BusOption {
	return func(c *busConfig) { c.queueCapacity = n }
}

// NewBus builds a Bus against an already-configured Redis client and
// starts its worker pool under t.
func NewBus(t *tomb.Tomb, client *redis.Client, opts ...BusOption) *Bus {
	cfg := busConfig{workers: 4, queueCapacity: 4096}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bus{client: client}
	b.pool = workerpool.New(cfg.workers, cfg.queueCapacity, b.publishOne)
	b.pool.Run(t)
	return b
}

// Publish enqueues ev for asynchronous delivery.
func (b *Bus) Publish(ev domain.ExternalEvent) error {
	b.pool.AddTask(ev)
	return nil
}

// PublishBatch enqueues evs in order. Delivery is asynchronous and all
// workers share one queue, so with more than one worker events can reach
// Redis in a different order than they were queued, including events of
// the same batch and of the same symbol.
func (b *Bus) PublishBatch(evs []domain.ExternalEvent) error {
	for _, ev := range evs {
		b.pool.AddTask(ev)
	}
	return nil
}

func (b *Bus) publishOne(task any) error {
	ev, ok := task.(domain.ExternalEvent)
	if !ok {
		return fmt.Errorf("bus: unexpected task type %T", task)
	}

	channel, payload, err := encode(ev)
	if err != nil {
		return fmt.Errorf("bus: encode: %w", err)
	}
	if channel == "" {
		return nil
	}

	ctx := context.Background()
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("bus publish failed")
		return err
	}
	return nil
}

func encode(ev domain.ExternalEvent) (channel string, payload []byte, err error) {
	switch {
	case ev.PublicTrade != nil:
		payload, err = json.Marshal(ev.PublicTrade)
		return topicTrade + string(ev.PublicTrade.Symbol), payload, err
	case ev.PublicDepth != nil:
		payload, err = json.Marshal(ev.PublicDepth)
		return topicDepth + string(ev.PublicDepth.Symbol), payload, err
	case ev.PublicTicker != nil:
		payload, err = json.Marshal(ev.PublicTicker)
		return topicTicker + string(ev.PublicTicker.Symbol), payload, err
	case ev.OrderUpdate != nil:
		payload, err = json.Marshal(ev.OrderUpdate)
		return fmt.Sprintf("%s%d", topicOrder, ev.OrderUpdate.UserId), payload, err
	default:
		return "", nil, nil
	}
}
