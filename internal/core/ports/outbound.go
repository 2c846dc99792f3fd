package ports

import (
	"context"

	"github.com/avoelk/paperroute/internal/core/domain"
)

// DocumentStore reads documents from the external repository and
// mutates their label sets.
type DocumentStore interface {
	ListRecent(ctx context.Context, limit int) ([]domain.DocumentSummary, error)
	GetDetail(ctx context.Context, id int) (*domain.Document, error)
	GetBinary(ctx context.Context, id int) ([]byte, error)
	// ApplyLabels performs an idempotent read-union-write of the
	// document's label set. Re-applying the same ids is a no-op.
	ApplyLabels(ctx context.Context, id int, labelIDs []int) error
}

// LabelRegistry resolves label names to repository-side ids, creating
// missing labels on first use. Resolutions are cached per run.
type LabelRegistry interface {
	IDFor(ctx context.Context, name string) (int, error)
}

// GateClassifier is the cheap first-pass judgment run on every
// document.
type GateClassifier interface {
	Gate(ctx context.Context, text string) (domain.ClassificationResult, error)
}

// ExtractClassifier is the expensive second pass, rationed to
// gate-approved candidates.
type ExtractClassifier interface {
	Extract(ctx context.Context, text string) (domain.ClassificationResult, error)
}

// Mailer dispatches one outbound message with an attachment.
type Mailer interface {
	Send(ctx context.Context, to, subject, body, filename string, attachment []byte) error
}

// Ledger is the durable processed-set providing at-least-once
// evaluation avoidance across restarts.
type Ledger interface {
	Contains(ctx context.Context, documentID int) (bool, error)
	MarkDone(ctx context.Context, documentID int) error
}
