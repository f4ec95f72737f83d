// Package worker runs row jobs from the queue through a processor and reports
// one result per processed job.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/okian/fsingest/internal/adapters/mq/queue"
	"github.com/okian/fsingest/internal/domain/model"
	"github.com/okian/fsingest/pkg/logger"
	"github.com/okian/fsingest/pkg/metrics"
)

// Processor handles one job. It must be safe for concurrent use.
type Processor interface {
	Process(ctx context.Context, j queue.Job) (model.Outcome, bool)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, j queue.Job) (model.Outcome, bool)

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, j queue.Job) (model.Outcome, bool) {
	return f(ctx, j)
}

// Result is the outcome of one processed job.
type Result struct {
	Index   int
	Outcome model.Outcome
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// InMemoryWorker pulls jobs until the queue is drained or it is stopped.
type InMemoryWorker struct {
	queue     Queue
	processor Processor
	results   chan<- Result
	name      string
	logger    logger.Logger
}

// NewInMemoryWorker creates a worker that sends results to results.
func NewInMemoryWorker(q Queue, p Processor, results chan<- Result, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		processor: p,
		results:   results,
		name:      "worker",
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until the queue closes or stop is done. Calls made by
// the processor use ctx, so a stop never interrupts a call in flight; jobs
// received after the stop are left unprocessed.
func (w *InMemoryWorker) Run(ctx, stop context.Context) {
	jobs := w.queue.Dequeue(stop)
	for {
		select {
		case <-stop.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if stop.Err() != nil {
				return
			}
			outcome, ok := w.processor.Process(ctx, j)
			if !ok {
				w.logger.Warn(ctx, "job skipped", logger.Int("row", j.Index))
				continue
			}
			w.results <- Result{Index: j.Index, Outcome: outcome}
		}
	}
}

// Pool runs a fixed number of workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates workerCount workers sharing q, p and results.
func NewPool(workerCount int, q Queue, p Processor, results chan<- Result) (*Pool, error) {
	if workerCount < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workerCount)
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewInMemoryWorker(q, p, results, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return pool, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx, stop context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx, stop)
		}(w)
	}
	p.logger.Debug(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
