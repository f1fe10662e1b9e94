package publisher

import (
	"sync"

	"clob/internal/domain"
)

// Sink is an in-memory Publisher used by tests and by anything that
// wants to observe the pipeline's output directly without a real bus.
type Sink struct {
	mu     sync.Mutex
	events []domain.ExternalEvent
}

// NewSink creates an empty Sink.
func NewSink() *Sink {
	return &Sink{}
}

// Publish appends ev to the sink's recorded events.
func (s *Sink) Publish(ev domain.ExternalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// PublishBatch appends evs in order.
func (s *Sink) PublishBatch(evs []domain.ExternalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evs...)
	return nil
}

// Events returns a snapshot copy of everything published so far.
func (s *Sink) Events() []domain.ExternalEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ExternalEvent, len(s.events))
	copy(out, s.events)
	return out
}
