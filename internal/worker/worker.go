// Package worker runs the periodic tick that claims and processes
// ingestion jobs.
package worker

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-run/ingestor/internal/domain/ingestion"
	"github.com/inkwell-run/ingestor/internal/infra/eventbus"
	"github.com/inkwell-run/ingestor/internal/infra/metrics"
)

// Event topics published to the worker's event bus as a job moves through
// its lifecycle. Payload is always the job id.
const (
	TopicJobClaimed   = "job.claimed"
	TopicJobCompleted = "job.completed"
	TopicJobFailed    = "job.failed"
	TopicJobRetried   = "job.retried"
)

// Config controls the worker's tick cadence and startup DB wait.
type Config struct {
	PollInterval  time.Duration
	DBWaitTimeout time.Duration
	DBWaitPoll    time.Duration
}

// Worker ticks on PollInterval, claiming and processing at most one job per
// tick. Ticks never overlap (guarded by a reentrancy flag, mirroring the
// single in-flight-job invariant.
type Worker struct {
	cfg       Config
	queue     *ingestion.Queue
	processor *ingestion.Processor
	db        *sql.DB
	log       *zap.Logger
	metrics   *metrics.Metrics
	bus       *eventbus.Bus

	ticking   atomic.Bool
	loggedErr atomic.Bool

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// New builds a Worker. db is used only for the optional startup
// reachability wait. bus may be nil, in which case lifecycle events are
// simply not published.
func New(cfg Config, queue *ingestion.Queue, processor *ingestion.Processor, db *sql.DB, log *zap.Logger, m *metrics.Metrics, bus *eventbus.Bus) *Worker {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.DBWaitTimeout == 0 {
		cfg.DBWaitTimeout = 30 * time.Second
	}
	if cfg.DBWaitPoll == 0 {
		cfg.DBWaitPoll = 500 * time.Millisecond
	}
	return &Worker{
		cfg:       cfg,
		bus:       bus,
		queue:     queue,
		processor: processor,
		db:        db,
		log:       log,
		metrics:   m,
	}
}

// Start waits for the database to become reachable (best effort, bounded by
// DBWaitTimeout) and then begins ticking in a background goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.stoppedCh = make(chan struct{})
	w.mu.Unlock()

	w.waitForDB(ctx)

	go w.run(ctx)
}

// Stop signals the loop to stop taking new ticks and blocks until the
// in-flight tick, if any, finishes naturally.
func (w *Worker) Stop(ctx context.Context) {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	select {
	case <-w.stoppedCh:
	case <-ctx.Done():
		w.log.Warn("worker stop deadline exceeded, returning before in-flight tick finished")
	}
}

func (w *Worker) waitForDB(ctx context.Context) {
	if w.db == nil {
		return
	}
	deadline := time.Now().Add(w.cfg.DBWaitTimeout)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, w.cfg.DBWaitPoll)
		err := w.db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			w.log.Warn("database not reachable after startup wait, continuing with retries", zap.Error(err))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.DBWaitPoll):
		}
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.stoppedCh)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick claims at most one job and drives it through the processor.
func (w *Worker) tick(ctx context.Context) {
	select {
	case <-w.stopCh:
		return
	default:
	}

	if !w.ticking.CompareAndSwap(false, true) {
		return
	}
	defer w.ticking.Store(false)

	job, err := w.queue.ClaimNext(ctx)
	if err != nil {
		if ingestion.IsTransientInfra(err) {
			if w.loggedErr.CompareAndSwap(false, true) {
				w.log.Warn("transient infrastructure error claiming job, will keep retrying", zap.Error(err))
			}
			return
		}
		w.loggedErr.Store(false)
		w.log.Error("claim next job failed", zap.Error(err))
		return
	}
	w.loggedErr.Store(false)

	if job == nil {
		return
	}

	if w.metrics != nil {
		w.metrics.JobsClaimed.Inc()
		w.metrics.JobsInFlight.Inc()
		defer w.metrics.JobsInFlight.Dec()
	}
	w.publish(TopicJobClaimed, job.ID)

	start := time.Now()
	w.processor.Process(ctx, job.ID)

	if w.metrics != nil {
		w.metrics.ProcessSeconds.Observe(time.Since(start).Seconds())
	}

	final, err := w.queue.GetJob(ctx, job.ID)
	if err != nil || final == nil {
		return
	}
	switch final.Status {
	case ingestion.JobStatusCompleted:
		if w.metrics != nil {
			w.metrics.JobsCompleted.Inc()
		}
		w.publish(TopicJobCompleted, job.ID)
	case ingestion.JobStatusFailed:
		if w.metrics != nil {
			w.metrics.JobsFailed.Inc()
		}
		w.publish(TopicJobFailed, job.ID)
	case ingestion.JobStatusQueued:
		if w.metrics != nil {
			w.metrics.JobsRetried.Inc()
		}
		w.publish(TopicJobRetried, job.ID)
	}
}

func (w *Worker) publish(topic, jobID string) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(topic, jobID)
}
