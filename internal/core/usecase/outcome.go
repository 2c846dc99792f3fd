package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avoelk/paperroute/internal/core/domain"
	"github.com/avoelk/paperroute/internal/core/ports"
)

// LabelNames are the repository label names the applier writes.
type LabelNames struct {
	Processed    string
	Invoice      string
	Forwarded    string
	NotForwarded string
}

// OutcomeApplier translates a routing decision into repository label
// mutations and outbound mail. Label writes are idempotent set
// unions; a re-run after a crash re-applies the same labels.
type OutcomeApplier struct {
	docs     ports.DocumentStore
	registry ports.LabelRegistry
	mailer   ports.Mailer
	policy   Policy
	names    LabelNames
	observer Observer
	log      *slog.Logger
}

func NewOutcomeApplier(
	docs ports.DocumentStore,
	registry ports.LabelRegistry,
	mailer ports.Mailer,
	policy Policy,
	names LabelNames,
	observer Observer,
	log *slog.Logger,
) *OutcomeApplier {
	if observer == nil {
		observer = NopObserver
	}
	return &OutcomeApplier{
		docs:     docs,
		registry: registry,
		mailer:   mailer,
		policy:   policy,
		names:    names,
		observer: observer,
		log:      log,
	}
}

// Apply labels the document and forwards it per the decision. The
// processed label always lands first so a later failure still leaves
// an audit trace on the document.
func (a *OutcomeApplier) Apply(ctx context.Context, doc *domain.Document, cls domain.ClassificationResult, decision domain.RoutingDecision) error {
	baseNames := []string{a.names.Processed}
	if decision.IsInvoice {
		baseNames = append(baseNames, a.names.Invoice)
	}
	if err := a.applyLabels(ctx, doc.ID, baseNames); err != nil {
		return err
	}

	forwarded, err := a.forward(ctx, doc, cls, decision)
	if err != nil {
		return err
	}

	switch {
	case forwarded:
		names := append([]string{a.names.Forwarded}, distinct(decision.Reasons)...)
		return a.applyLabels(ctx, doc.ID, names)
	case decision.IsInvoice:
		return a.applyLabels(ctx, doc.ID, []string{a.names.NotForwarded})
	default:
		return nil
	}
}

// forward sends one mail per forwarding topic, sharing a single
// binary fetch across topics.
func (a *OutcomeApplier) forward(ctx context.Context, doc *domain.Document, cls domain.ClassificationResult, decision domain.RoutingDecision) (bool, error) {
	var targets []domain.Topic
	for _, topic := range a.policy.Topics {
		if decision.Forward[topic.Name] {
			targets = append(targets, topic)
		}
	}
	if len(targets) == 0 {
		return false, nil
	}

	pdf, err := a.docs.GetBinary(ctx, doc.ID)
	if err != nil {
		return false, fmt.Errorf("fetch document binary: %w", err)
	}

	subject := fmt.Sprintf("Invoice (doc #%d): %s", doc.ID, mailTitle(doc, cls))
	body := buildMailBody(doc, cls, decision, a.policy)
	filename := fmt.Sprintf("document-%d.pdf", doc.ID)

	for _, topic := range targets {
		if err := a.mailer.Send(ctx, topic.Recipient, subject, body, filename, pdf); err != nil {
			return false, fmt.Errorf("forward to %s: %w", topic.Name, err)
		}
		a.observer.Forwarded(topic.Name)
		a.log.Info("document_forwarded",
			"document_id", doc.ID,
			"topic", topic.Name,
			"recipient", topic.Recipient,
			"reasons", decision.Reasons,
		)
	}
	return true, nil
}

func (a *OutcomeApplier) applyLabels(ctx context.Context, docID int, names []string) error {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		id, err := a.registry.IDFor(ctx, name)
		if err != nil {
			return fmt.Errorf("resolve label %q: %w", name, err)
		}
		ids = append(ids, id)
	}
	if err := a.docs.ApplyLabels(ctx, docID, ids); err != nil {
		return fmt.Errorf("apply labels: %w", err)
	}
	return nil
}

func mailTitle(doc *domain.Document, cls domain.ClassificationResult) string {
	if cls.Fields.Title != "" {
		return cls.Fields.Title
	}
	return doc.Title
}

// buildMailBody enumerates every field of the decision and the
// classification so the mailbox carries a full audit record.
func buildMailBody(doc *domain.Document, cls domain.ClassificationResult, decision domain.RoutingDecision, policy Policy) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Invoice detected.\n\n")
	fmt.Fprintf(&b, "doc_id: %d\n", doc.ID)
	fmt.Fprintf(&b, "title: %s\n", mailTitle(doc, cls))
	fmt.Fprintf(&b, "invoice_number: %s\n", cls.Fields.InvoiceNumber)
	fmt.Fprintf(&b, "total: %s %s\n", cls.Fields.AmountTotal, cls.Fields.Currency)
	fmt.Fprintf(&b, "date: %s\n", cls.Fields.Date)
	fmt.Fprintf(&b, "invoice_confidence: %.2f\n", decision.Confidence)
	for _, topic := range policy.Topics {
		fmt.Fprintf(&b, "topic %s: related=%t deductible=%t keyword_match=%t forward=%t\n",
			topic.Name,
			decision.Related[topic.Name],
			decision.Deductible[topic.Name],
			decision.Signals.KeywordMatch[topic.Name],
			decision.Forward[topic.Name],
		)
	}
	fmt.Fprintf(&b, "iban_match: %t\n", decision.Signals.IBANMatch)
	fmt.Fprintf(&b, "reasons: %s\n", strings.Join(decision.Reasons, ", "))
	fmt.Fprintf(&b, "notes: %s\n", cls.Notes)
	return b.String()
}

// distinct keeps the first occurrence of each reason, preserving
// order; labels are applied once per distinct reason.
func distinct(reasons []string) []string {
	seen := make(map[string]bool, len(reasons))
	var out []string
	for _, r := range reasons {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
