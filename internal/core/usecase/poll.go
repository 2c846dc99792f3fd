package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avoelk/paperroute/internal/core/domain"
	"github.com/avoelk/paperroute/internal/core/ports"
)

// Poller drives evaluation over the repository's most-recent feed at a
// fixed cadence. Evaluation is strictly sequential; the first error in
// an iteration abandons it, and the next tick retries naturally since
// failed documents were never marked done.
type Poller struct {
	docs     ports.DocumentStore
	ledger   ports.Ledger
	eval     ports.DocumentEvaluator
	interval time.Duration
	pageSize int
	observer Observer
	log      *slog.Logger
}

func NewPoller(
	docs ports.DocumentStore,
	ledger ports.Ledger,
	eval ports.DocumentEvaluator,
	interval time.Duration,
	pageSize int,
	observer Observer,
	log *slog.Logger,
) *Poller {
	if observer == nil {
		observer = NopObserver
	}
	return &Poller{
		docs:     docs,
		ledger:   ledger,
		eval:     eval,
		interval: interval,
		pageSize: pageSize,
		observer: observer,
		log:      log,
	}
}

// Run blocks until the context is cancelled. One iteration runs
// immediately; afterwards the loop ticks at the configured interval.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.iterate(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.iterate(ctx)
		}
	}
}

func (p *Poller) iterate(ctx context.Context) {
	iterationID := uuid.NewString()
	started := time.Now()

	err := p.runOnce(ctx, iterationID)
	p.observer.IterationFinished(time.Since(started), err)

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.log.Error("iteration_failed", "iteration_id", iterationID, "error", err)
		return
	}
	p.log.Debug("iteration_done", "iteration_id", iterationID, "duration_ms", time.Since(started).Milliseconds())
}

func (p *Poller) runOnce(ctx context.Context, iterationID string) error {
	summaries, err := p.docs.ListRecent(ctx, p.pageSize)
	if err != nil {
		return fmt.Errorf("list recent documents: %w", err)
	}

	for _, summary := range summaries {
		done, err := p.ledger.Contains(ctx, summary.ID)
		if err != nil {
			return fmt.Errorf("ledger lookup for document %d: %w", summary.ID, err)
		}
		if done {
			p.observer.DocumentEvaluated(StatusAlreadyDone)
			continue
		}

		if err := p.eval.Evaluate(ctx, summary.ID); err != nil {
			if domain.IsKind(err, domain.ErrEmptyContent) {
				p.observer.DocumentEvaluated(StatusSkippedEmpty)
				p.log.Debug("document_skipped_empty", "iteration_id", iterationID, "document_id", summary.ID)
				continue
			}
			return err
		}
		p.observer.DocumentEvaluated(StatusDone)
	}
	return nil
}
