// Package workerpool provides a small tomb-supervised pool of goroutines
// draining a task queue, the same shape the exchange's TCP ingress and
// connection-handling loop use to avoid spinning up one goroutine per
// unit of work.
package workerpool

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Work is executed by a pool worker for each task pulled off the queue.
// A returned error is logged by the pool and does not stop the worker.
type Work func(task any) error

// Pool runs n workers pulling tasks off a shared, buffered channel.
type Pool struct {
	n     int
	tasks chan any
	work  Work
}

// New creates a Pool with n workers and a task queue of the given
// capacity. Call Run to start the workers under a tomb.
func New(n, queueCapacity int, work Work) *Pool {
	return &Pool{
		n:     n,
		tasks: make(chan any, queueCapacity),
		work:  work,
	}
}

// AddTask enqueues task for some worker to pick up. Blocks if the queue
// is full.
func (p *Pool) AddTask(task any) {
	p.tasks <- task
}

// Run starts n workers, each looping until t is dying.
func (p *Pool) Run(t *tomb.Tomb) {
	log.Info().Int("workers", p.n).Msg("worker pool starting")
	for i := 0; i < p.n; i++ {
		t.Go(func() error {
			p.runWorker(t)
			return nil
		})
	}
}

func (p *Pool) runWorker(t *tomb.Tomb) {
	for {
		select {
		case <-t.Dying():
			return
		case task := <-p.tasks:
			if err := p.work(task); err != nil {
				log.Error().Err(err).Msg("worker pool task failed")
			}
		}
	}
}
