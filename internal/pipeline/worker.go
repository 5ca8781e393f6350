package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tablescope/tablescope/internal/store"
	"github.com/tablescope/tablescope/pkg/models"
)

// Submission is one queued analysis job. The options travel with the
// submission so workers don't re-read them from the store.
type Submission struct {
	JobID     uuid.UUID
	Reference string
	Options   models.AnalysisOptions
}

// WorkerPool fans queued submissions out to a fixed set of workers. Each
// worker claims the job before running it, so a submission duplicated or
// cancelled while queued is dropped harmlessly.
type WorkerPool struct {
	orch    *Orchestrator
	store   store.Store
	jobs    chan Submission
	workers int

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closed  bool
}

func NewWorkerPool(orch *Orchestrator, st store.Store, workers, queueSize int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		orch:    orch,
		store:   st,
		jobs:    make(chan Submission, queueSize),
		workers: workers,
	}
}

// Start launches the workers. ctx bounds all job runs: cancelling it makes
// in-flight jobs fail fast and idle workers exit once the queue closes.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	slog.Info("worker pool started", "workers", p.workers, "queue_size", cap(p.jobs))
}

// Submit enqueues a job without blocking. Returns ErrQueueFull when the
// queue is at capacity so the API can answer with backpressure instead of
// hanging the request.
func (p *WorkerPool) Submit(sub Submission) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("worker pool is shut down")
	}
	p.mu.Unlock()

	select {
	case p.jobs <- sub:
		return nil
	default:
		return ErrQueueFull
	}
}

// Shutdown stops intake and waits for queued and in-flight jobs to drain.
func (p *WorkerPool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.jobs)
	p.wg.Wait()
	slog.Info("worker pool drained")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for sub := range p.jobs {
		p.runOne(ctx, id, sub)
	}
}

func (p *WorkerPool) runOne(ctx context.Context, workerID int, sub Submission) {
	claimed, err := p.store.Claim(ctx, sub.JobID)
	if err != nil {
		slog.Error("claim failed", "worker", workerID, "job_id", sub.JobID, "error", err)
		return
	}
	if !claimed {
		// Cancelled before pickup, expired, or a duplicate submission.
		slog.Info("skipping unclaimable job", "worker", workerID, "job_id", sub.JobID)
		return
	}

	slog.Info("worker picked up job", "worker", workerID, "job_id", sub.JobID)
	if _, err := p.orch.Run(ctx, sub.JobID, sub.Reference, sub.Options); err != nil {
		if errors.Is(err, ErrCancelled) {
			return
		}
		slog.Error("job run failed", "worker", workerID, "job_id", sub.JobID, "error", err)
	}
}
