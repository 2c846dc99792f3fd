package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avoelk/paperroute/internal/core/domain"
	"github.com/avoelk/paperroute/internal/core/ports"
)

// Evaluator runs the full pipeline for a single document: fetch text,
// classify, derive rule signals, decide, apply the outcome, and only
// then mark the document done. A document whose OCR text is not yet
// available is left unmarked so a later poll retries it.
type Evaluator struct {
	docs    ports.DocumentStore
	cascade *Cascade
	outcome *OutcomeApplier
	ledger  ports.Ledger
	policy  Policy
	log     *slog.Logger
}

func NewEvaluator(
	docs ports.DocumentStore,
	cascade *Cascade,
	outcome *OutcomeApplier,
	ledger ports.Ledger,
	policy Policy,
	log *slog.Logger,
) *Evaluator {
	return &Evaluator{
		docs:    docs,
		cascade: cascade,
		outcome: outcome,
		ledger:  ledger,
		policy:  policy,
		log:     log,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, documentID int) error {
	doc, err := e.docs.GetDetail(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document %d: %w", documentID, err)
	}

	if doc.Content == "" {
		// OCR has not produced text yet; not an error.
		return domain.WrapError(domain.ErrEmptyContent, "evaluate document", fmt.Errorf("document %d", documentID))
	}

	cls, err := e.cascade.Classify(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("classify document %d: %w", documentID, err)
	}

	signals := CollectSignals(doc.Content, e.policy)
	decision := Decide(cls, signals, e.policy)

	e.log.Info("document_decided",
		"document_id", documentID,
		"is_invoice", decision.IsInvoice,
		"confidence", decision.Confidence,
		"forwards", decision.Forwards(),
		"reasons", decision.Reasons,
	)

	if err := e.outcome.Apply(ctx, doc, cls, decision); err != nil {
		return fmt.Errorf("apply outcome for document %d: %w", documentID, err)
	}

	if err := e.ledger.MarkDone(ctx, documentID); err != nil {
		return fmt.Errorf("mark document %d done: %w", documentID, err)
	}
	return nil
}
