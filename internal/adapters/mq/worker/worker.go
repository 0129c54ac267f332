package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/smoothiebar/pkg/logger"
	"github.com/okian/smoothiebar/pkg/metrics"
)

// defaultLimitMultiplier scales runtime.NumCPU() when no limit is given.
const defaultLimitMultiplier = 4

// Job is one unit of work. Index is its position in the batch.
type Job func(ctx context.Context, index int) error

// JobError reports which job of a batch failed first.
type JobError struct {
	Index int
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %d: %v", e.Index, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// Pool runs a batch of jobs with at most limit in flight.
type Pool struct {
	limit int
	name  string

	logger logger.Logger
}

// NewPool creates a pool. A limit below 1 defaults to a multiple of NumCPU.
func NewPool(limit int, opts ...Option) *Pool {
	if limit < 1 {
		limit = runtime.NumCPU() * defaultLimitMultiplier
	}

	p := &Pool{
		limit: limit,
		name:  "worker-pool",
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	return p
}

// Limit returns the maximum number of concurrently running jobs.
func (p *Pool) Limit() int { return p.limit }

// Run executes every job and waits for them. The first failure cancels the
// context handed to the remaining jobs, and jobs not yet started are skipped.
// The returned error is a *JobError for the first failure.
func (p *Pool) Run(ctx context.Context, jobs []Job) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &JobError{Index: i, Err: err}
			}
			return p.process(gctx, i, job)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// Parent cancellation can stop the loop before any job observed it.
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (p *Pool) process(ctx context.Context, index int, job Job) error {
	metrics.AddWorkerInflight(1)
	start := time.Now()
	defer func() {
		metrics.AddWorkerInflight(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := job(ctx, index); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "job_error")
		p.logger.Debug(ctx, "job failed", logger.Int("index", index), logger.Error(err))
		return &JobError{Index: index, Err: err}
	}
	return nil
}
