package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avoelk/paperroute/internal/core/domain"
)

type evaluatorFake struct {
	calls []int
	errs  map[int]error
}

func (f *evaluatorFake) Evaluate(_ context.Context, id int) error {
	f.calls = append(f.calls, id)
	return f.errs[id]
}

func newPoller(docs *docStoreFake, store *ledgerFake, eval *evaluatorFake) *Poller {
	return NewPoller(docs, store, eval, time.Second, 20, nil, discardLogger())
}

func TestRunOnceSkipsAlreadyDoneDocuments(t *testing.T) {
	docs := &docStoreFake{summaries: []domain.DocumentSummary{{ID: 1}, {ID: 2}}}
	store := &ledgerFake{done: map[int]bool{1: true}}
	eval := &evaluatorFake{}

	if err := newPoller(docs, store, eval).runOnce(context.Background(), "it-1"); err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}
	if len(eval.calls) != 1 || eval.calls[0] != 2 {
		t.Fatalf("evaluated %v, want only document 2", eval.calls)
	}
}

func TestRunOnceEmptyContentContinuesIteration(t *testing.T) {
	docs := &docStoreFake{summaries: []domain.DocumentSummary{{ID: 1}, {ID: 2}}}
	store := &ledgerFake{}
	eval := &evaluatorFake{errs: map[int]error{
		1: domain.WrapError(domain.ErrEmptyContent, "evaluate document", errors.New("document 1")),
	}}

	if err := newPoller(docs, store, eval).runOnce(context.Background(), "it-1"); err != nil {
		t.Fatalf("runOnce() error = %v", err)
	}
	if len(eval.calls) != 2 {
		t.Fatalf("evaluated %v, want both documents", eval.calls)
	}
}

func TestRunOnceAbortsIterationOnFirstError(t *testing.T) {
	docs := &docStoreFake{summaries: []domain.DocumentSummary{{ID: 1}, {ID: 2}, {ID: 3}}}
	store := &ledgerFake{}
	wantErr := errors.New("classifier down")
	eval := &evaluatorFake{errs: map[int]error{2: wantErr}}

	err := newPoller(docs, store, eval).runOnce(context.Background(), "it-1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("runOnce() error = %v, want %v", err, wantErr)
	}
	if len(eval.calls) != 2 {
		t.Fatalf("evaluated %v, iteration should stop at the failure", eval.calls)
	}
}

func TestRunOncePropagatesListFailure(t *testing.T) {
	wantErr := errors.New("repository unreachable")
	docs := &docStoreFake{listErr: wantErr}

	err := newPoller(docs, &ledgerFake{}, &evaluatorFake{}).runOnce(context.Background(), "it-1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("runOnce() error = %v, want %v", err, wantErr)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	docs := &docStoreFake{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newPoller(docs, &ledgerFake{}, &evaluatorFake{}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}
