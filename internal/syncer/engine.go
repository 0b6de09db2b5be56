package syncer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Teja-9024/black-bus/internal/models"
	"github.com/Teja-9024/black-bus/internal/remote"
	"github.com/Teja-9024/black-bus/pkg/infra"
	"github.com/Teja-9024/black-bus/pkg/metrics"
)

// Queue defines the outbox access the engine drains.
type Queue interface {
	OldestBatch(ctx context.Context, afterID int64, limit int) ([]models.OutboxJob, error)
	MarkDone(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
	PendingCount(ctx context.Context) (int64, error)
}

// Records defines the reconciliation hook: marking the originating row synced
// once its job has been accepted remotely.
type Records interface {
	MarkSynced(ctx context.Context, entity string, localID int64, serverID string) error
}

// Requester defines the contract for replaying a job's request.
type Requester interface {
	Do(ctx context.Context, method, path string, body []byte, headers map[string]string) ([]byte, error)
}

// Engine is the reachability monitor and sync loop. It caches the online
// signal for write-path queries and, on every offline-to-online transition or
// manual trigger, drains the outbox strictly in job-id order. At most one
// drain runs at a time; concurrent triggers are dropped.
type Engine struct {
	queue   Queue
	records Records
	remote  Requester
	logger  *slog.Logger

	batchSize int
	backoff   *infra.Backoff

	online  atomic.Bool
	syncing atomic.Bool
}

func NewEngine(queue Queue, records Records, remote Requester, batchSize int, logger *slog.Logger) *Engine {
	e := &Engine{
		queue:     queue,
		records:   records,
		remote:    remote,
		logger:    logger,
		batchSize: batchSize,
		backoff:   infra.NewBackoff(1*time.Second, 30*time.Second, 2.0),
	}
	// Assume reachable until the first connectivity report says otherwise,
	// so early writes take the direct path and fall back on real failures.
	e.online.Store(true)
	metrics.Online.Set(1)
	return e
}

// Online reports the cached reachability signal.
func (e *Engine) Online() bool {
	return e.online.Load()
}

// SetOnline consumes one connectivity transition. A transition to reachable
// starts a background drain; everything else only updates the cached flag.
func (e *Engine) SetOnline(ctx context.Context, online bool) {
	was := e.online.Swap(online)
	if online {
		metrics.Online.Set(1)
	} else {
		metrics.Online.Set(0)
	}
	if online && !was {
		e.logger.Info("Connectivity restored, draining outbox")
		go func() {
			if err := e.TriggerSync(ctx); err != nil {
				e.logger.Error("Drain pass aborted", "error", err)
			}
		}()
	}
}

// Watch consumes a reachability event stream until the stream closes or the
// context is canceled. The underlying detection mechanism lives outside this
// core; it only delivers booleans here.
func (e *Engine) Watch(ctx context.Context, events <-chan bool) {
	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-events:
			if !ok {
				return
			}
			e.SetOnline(ctx, online)
		}
	}
}

// TriggerSync runs one drain pass to quiescence. It is the manual trigger and
// the entry point used by SetOnline. When a drain is already in progress the
// call is a no-op; the guard is released on every exit path so a failed drain
// cannot wedge the engine into permanently busy.
func (e *Engine) TriggerSync(ctx context.Context) error {
	if !e.syncing.CompareAndSwap(false, true) {
		e.logger.Debug("Drain already in progress, trigger dropped")
		return nil
	}
	defer e.syncing.Store(false)

	return e.drain(ctx)
}

// drain walks the backlog in ascending job-id order, one bounded batch at a
// time. A failing job gets its try counter bumped and the pass moves on; the
// job is revisited on the next pass, not retried in a tight loop. A batch
// where nothing succeeded waits out a jittered backoff before the next fetch.
func (e *Engine) drain(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.DrainDuration.Observe(time.Since(start).Seconds())
		e.observeBacklog(ctx)
	}()

	e.backoff.Reset()
	var afterID int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := e.queue.OldestBatch(ctx, afterID, e.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		metrics.DrainBatchSize.Observe(float64(len(batch)))

		succeeded := 0
		for _, job := range batch {
			afterID = job.ID
			if err := e.replay(ctx, job); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			succeeded++
		}

		if succeeded == 0 {
			wait := e.backoff.Next()
			e.logger.Warn("Entire batch failed, backing off",
				"count", len(batch),
				"wait", wait,
			)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			e.backoff.Reset()
		}
	}
}

// replay re-issues one queued request with the headers frozen at enqueue
// time. Success deletes the job and reconciles the originating row; failure
// of either class records a try and leaves the job for the next pass.
func (e *Engine) replay(ctx context.Context, job models.OutboxJob) error {
	l := e.logger.With(
		"correlation_id", job.CorrelationID,
		"job_id", job.ID,
		"entity", job.Entity,
	)

	var headers map[string]string
	if err := json.Unmarshal(job.Headers, &headers); err != nil {
		l.Error("Job headers are unreadable", "error", err)
	}

	respBody, err := e.remote.Do(ctx, job.Method, job.URL, job.Body, headers)
	if err != nil {
		l.Warn("Job replay failed", "tries", job.Tries+1, "error", err)
		if merr := e.queue.MarkFailed(ctx, job.ID); merr != nil {
			l.Error("Failed to record replay failure", "error", merr)
		}
		metrics.JobsReplayed.WithLabelValues("failed", job.Entity).Inc()
		return err
	}

	if err := e.queue.MarkDone(ctx, job.ID); err != nil {
		// The server accepted the request but the local delete failed; the
		// job will replay again. At-least-once, by contract.
		l.Error("Job replayed but could not be deleted", "error", err)
		metrics.JobsReplayed.WithLabelValues("failed", job.Entity).Inc()
		return err
	}

	if serverID := remote.ExtractServerID(respBody); serverID != "" {
		if err := e.records.MarkSynced(ctx, job.Entity, job.LocalID, serverID); err != nil {
			l.Error("Failed to reconcile local row", "server_id", serverID, "error", err)
		}
	}

	metrics.JobsReplayed.WithLabelValues("done", job.Entity).Inc()
	l.Info("Job replayed")
	return nil
}

func (e *Engine) observeBacklog(ctx context.Context) {
	if n, err := e.queue.PendingCount(ctx); err == nil {
		metrics.OutboxBacklog.Set(float64(n))
	}
}
