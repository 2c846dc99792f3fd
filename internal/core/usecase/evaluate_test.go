package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/avoelk/paperroute/internal/core/domain"
)

type ledgerFake struct {
	done        map[int]bool
	markCalls   []int
	containsErr error
	markErr     error
}

func (f *ledgerFake) Contains(_ context.Context, id int) (bool, error) {
	if f.containsErr != nil {
		return false, f.containsErr
	}
	return f.done[id], nil
}

func (f *ledgerFake) MarkDone(_ context.Context, id int) error {
	if f.markErr != nil {
		return f.markErr
	}
	if f.done == nil {
		f.done = make(map[int]bool)
	}
	f.done[id] = true
	f.markCalls = append(f.markCalls, id)
	return nil
}

func newEvaluator(docs *docStoreFake, gate *gateFake, extract *extractFake, store *ledgerFake) *Evaluator {
	policy := testPolicy()
	cascade := NewCascade(gate, extract, policy, nil)
	outcome := newOutcome(docs, &registryFake{}, &mailerFake{})
	return NewEvaluator(docs, cascade, outcome, store, policy, discardLogger())
}

func TestEvaluateEmptyContentSkipsWithoutMarking(t *testing.T) {
	docs := &docStoreFake{docs: map[int]*domain.Document{5: {ID: 5, Content: ""}}}
	gate := &gateFake{}
	store := &ledgerFake{}
	eval := newEvaluator(docs, gate, &extractFake{}, store)

	err := eval.Evaluate(context.Background(), 5)
	if !domain.IsKind(err, domain.ErrEmptyContent) {
		t.Fatalf("expected empty-content kind, got %v", err)
	}
	if gate.calls != 0 {
		t.Fatalf("classifier must not run on empty content")
	}
	if len(store.markCalls) != 0 {
		t.Fatalf("document must not be marked done")
	}
}

func TestEvaluateSuccessMarksDone(t *testing.T) {
	docs := &docStoreFake{docs: map[int]*domain.Document{5: {ID: 5, Content: "some scan text"}}}
	gate := &gateFake{result: domain.ClassificationResult{IsInvoice: false, Confidence: 0.1}}
	store := &ledgerFake{}
	eval := newEvaluator(docs, gate, &extractFake{}, store)

	if err := eval.Evaluate(context.Background(), 5); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if gate.calls != 1 {
		t.Fatalf("gate calls = %d, want 1", gate.calls)
	}
	if !store.done[5] {
		t.Fatalf("document should be marked done")
	}
}

func TestEvaluateClassifierFailureLeavesUnmarked(t *testing.T) {
	docs := &docStoreFake{docs: map[int]*domain.Document{5: {ID: 5, Content: "text"}}}
	gate := &gateFake{err: domain.WrapError(domain.ErrMalformedOutput, "gate", errors.New("garbage"))}
	store := &ledgerFake{}
	eval := newEvaluator(docs, gate, &extractFake{}, store)

	err := eval.Evaluate(context.Background(), 5)
	if !domain.IsKind(err, domain.ErrMalformedOutput) {
		t.Fatalf("expected malformed-output kind, got %v", err)
	}
	if len(store.markCalls) != 0 {
		t.Fatalf("failed evaluation must not mark done")
	}
}

func TestEvaluateOutcomeFailureLeavesUnmarked(t *testing.T) {
	docs := &docStoreFake{
		docs:     map[int]*domain.Document{5: {ID: 5, Content: "text"}},
		applyErr: errors.New("patch failed"),
	}
	gate := &gateFake{result: domain.ClassificationResult{IsInvoice: false, Confidence: 0.1}}
	store := &ledgerFake{}
	eval := newEvaluator(docs, gate, &extractFake{}, store)

	if err := eval.Evaluate(context.Background(), 5); err == nil {
		t.Fatalf("expected outcome failure")
	}
	if len(store.markCalls) != 0 {
		t.Fatalf("failed evaluation must not mark done")
	}
}
