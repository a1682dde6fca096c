package integration

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cleared-dev/ledger/internal/logger"
	"github.com/cleared-dev/ledger/internal/model"
)

// Job is one queued event.
type Job struct {
	Event model.ExternalEvent
	Kind  model.EventKind
}

// Worker drains a job channel into a Listener.
type Worker struct {
	l    *Listener
	jobs <-chan Job
	log  *zap.Logger

	recorded atomic.Int64
	failed   atomic.Int64
}

// NewWorker creates a Worker reading from jobs.
func NewWorker(l *Listener, jobs <-chan Job, log *zap.Logger) *Worker {
	return &Worker{l: l, jobs: jobs, log: logger.OrNop(log)}
}

// Run dispatches jobs until the channel is closed, returning nil, or ctx is
// done, returning ctx.Err(). A failed job is logged and skipped.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("integration worker started")
	defer w.log.Info("integration worker stopped",
		zap.Int64("recorded", w.recorded.Load()),
		zap.Int64("failed", w.failed.Load()),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-w.jobs:
			if !ok {
				return nil
			}
			if _, err := w.l.Handle(ctx, job.Event, job.Kind); err != nil {
				w.failed.Add(1)
				continue
			}
			w.recorded.Add(1)
		}
	}
}

// Recorded returns how many jobs were booked.
func (w *Worker) Recorded() int64 { return w.recorded.Load() }

// Failed returns how many jobs gave up.
func (w *Worker) Failed() int64 { return w.failed.Load() }
