// Package writer persists discoveries in rate-bounded batches. Writes
// within a batch run concurrently; batches are strictly sequential with
// a fixed inter-batch delay, bounding load on the downstream connection
// pool. Each write retries transient failures with exponential backoff,
// and the whole path runs through the persistence circuit breaker so a
// dead backend fails fast instead of burning retries.
package writer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/probelab/inquest/internal/breaker"
	"github.com/probelab/inquest/internal/model"
	"github.com/probelab/inquest/internal/store"
	"golang.org/x/time/rate"
)

// Result reports the outcome of one item's write.
type Result struct {
	ItemID    string
	Err       error // nil on success and on skipped duplicates
	Duplicate bool  // true when the item was already queued
}

// Stats summarizes one WriteAll call.
type Stats struct {
	Written    int
	Duplicates int
	Failed     int
	Batches    int
}

// Writer is the rate-limited batch writer.
type Writer struct {
	cfg     model.WriterConfig
	store   store.Store
	breaker *breaker.CircuitBreaker
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates a writer. The breaker must be the one dedicated to the
// persistence dependency.
func New(cfg model.WriterConfig, st store.Store, cb *breaker.CircuitBreaker, log *slog.Logger) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if log == nil {
		log = slog.Default()
	}
	// The limiter paces batch starts: one permit per inter-batch delay,
	// with the first batch admitted immediately.
	var limiter *rate.Limiter
	if cfg.InterBatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.InterBatchDelay), 1)
	}
	return &Writer{cfg: cfg, store: st, breaker: cb, limiter: limiter, log: log}
}

// WriteAll persists items in ceil(len/batchSize) batches. It returns
// per-item results in input order plus aggregate stats. Duplicate
// conflicts are logged and skipped, never surfaced as failures.
func (w *Writer) WriteAll(ctx context.Context, items []*model.QueueItem) ([]Result, Stats) {
	results := make([]Result, len(items))
	var stats Stats

	for start := 0; start < len(items); start += w.cfg.BatchSize {
		end := start + w.cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}

		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				for i := start; i < len(items); i++ {
					results[i] = Result{ItemID: items[i].ID, Err: err}
					stats.Failed++
				}
				return results, stats
			}
		}
		stats.Batches++

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				results[idx] = w.writeOne(ctx, items[idx])
			}(i)
		}
		wg.Wait()

		for i := start; i < end; i++ {
			switch {
			case results[i].Duplicate:
				stats.Duplicates++
			case results[i].Err != nil:
				stats.Failed++
			default:
				stats.Written++
			}
		}
	}
	return results, stats
}

// writeOne performs a single write through retry and breaker layers.
func (w *Writer) writeOne(ctx context.Context, item *model.QueueItem) Result {
	op := func() error {
		err := w.breaker.Execute(ctx, func(callCtx context.Context) error {
			return w.store.CreateQueueItem(callCtx, item)
		})
		if err == nil {
			return nil
		}
		var open *breaker.ErrOpen
		if errors.As(err, &open) {
			// Circuit open: fail fast, retrying locally is pointless.
			return backoff.Permanent(err)
		}
		if !store.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(w.newBackoff(), uint64(w.cfg.MaxRetries)),
		ctx,
	)
	err := backoff.Retry(op, policy)

	if errors.Is(err, store.ErrDuplicate) {
		w.mergeDuplicate(ctx, item)
		return Result{ItemID: item.ID, Duplicate: true}
	}
	if err != nil {
		w.log.Warn("write failed", "item", item.ID, "entity", item.EntityName, "error", err)
		return Result{ItemID: item.ID, Err: err}
	}
	return Result{ItemID: item.ID}
}

// mergeDuplicate folds a duplicate discovery's source documents onto
// the pending item that beat it there. Best-effort: the duplicate is
// already accounted for, a failed merge only loses provenance.
func (w *Writer) mergeDuplicate(ctx context.Context, item *model.QueueItem) {
	if len(item.SourceDocumentIDs) == 0 {
		w.log.Debug("duplicate discovery skipped", "item", item.ID, "entity", item.EntityName)
		return
	}
	err := w.breaker.Execute(ctx, func(callCtx context.Context) error {
		id, err := w.store.PendingItemID(callCtx, item.EntityType, item.EntityName)
		if err != nil {
			return err
		}
		return w.store.AppendToQueueItem(callCtx, id, item.SourceDocumentIDs)
	})
	if err != nil {
		w.log.Warn("duplicate source merge failed", "item", item.ID, "entity", item.EntityName, "error", err)
		return
	}
	w.log.Debug("duplicate discovery merged into pending item", "item", item.ID, "entity", item.EntityName)
}

func (w *Writer) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if w.cfg.InitialBackoff > 0 {
		b.InitialInterval = w.cfg.InitialBackoff
	}
	return b
}
