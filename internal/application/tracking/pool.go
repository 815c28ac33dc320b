package tracking

import (
	"context"
	"sync"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
)

// Pool runs interaction writes on a fixed set of workers behind a bounded
// queue. Submit never blocks: when the queue is full the job is rejected.
type Pool struct {
	workers int
	jobs    chan func(context.Context)
	wg      sync.WaitGroup

	// base context handed to jobs; canceled only when Stop gives up draining
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewPool starts workers goroutines reading from a queue of queueSize jobs.
func NewPool(workers, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = workers * 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers: workers,
		jobs:    make(chan func(context.Context), queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		metrics.SetTrackingQueueDepth(len(p.jobs))
		p.run(job)
	}
}

func (p *Pool) run(job func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.Component("tracking")
			log.Error().Interface("panic", r).Msg("tracking job panicked")
		}
	}()
	job(p.ctx)
}

// Submit enqueues job and reports whether it was accepted. It returns false
// when the queue is full or the pool is stopping.
func (p *Pool) Submit(job func(ctx context.Context)) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job:
		metrics.SetTrackingQueueDepth(len(p.jobs))
		return true
	default:
		return false
	}
}

// Stop rejects new jobs and waits for queued ones to finish. If ctx expires
// first, running jobs see their context canceled and ctx.Err() is returned.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}
