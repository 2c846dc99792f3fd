package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/avoelk/paperroute/internal/core/domain"
)

type gateFake struct {
	result   domain.ClassificationResult
	err      error
	calls    int
	lastText string
}

func (f *gateFake) Gate(_ context.Context, text string) (domain.ClassificationResult, error) {
	f.calls++
	f.lastText = text
	if f.err != nil {
		return domain.ClassificationResult{}, f.err
	}
	return f.result, nil
}

type extractFake struct {
	result   domain.ClassificationResult
	err      error
	calls    int
	lastText string
}

func (f *extractFake) Extract(_ context.Context, text string) (domain.ClassificationResult, error) {
	f.calls++
	f.lastText = text
	if f.err != nil {
		return domain.ClassificationResult{}, f.err
	}
	return f.result, nil
}

func TestCascadeSkipsExtractBelowGateThreshold(t *testing.T) {
	gate := &gateFake{result: domain.ClassificationResult{
		IsInvoice:  true,
		Confidence: 0.10,
		Topics:     map[string]domain.TopicJudgment{"farming": {Related: true, Confidence: 0.8, Deductible: true}},
	}}
	extract := &extractFake{}
	cascade := NewCascade(gate, extract, testPolicy(), nil)

	result, err := cascade.Classify(context.Background(), "some scan text")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if extract.calls != 0 {
		t.Fatalf("extract stage must not run below gate threshold")
	}
	if result.IsInvoice {
		t.Fatalf("synthesized result must not be an invoice")
	}
	if result.Confidence != 0.10 {
		t.Fatalf("confidence = %v, want gate confidence 0.10", result.Confidence)
	}
	if result.Topics["farming"].Deductible {
		t.Fatalf("synthesized result must clear deductible flags")
	}
	if !result.Topics["farming"].Related {
		t.Fatalf("per-topic relatedness must be copied from the gate")
	}
}

func TestCascadeSkipsExtractWhenGateSaysNonInvoice(t *testing.T) {
	gate := &gateFake{result: domain.ClassificationResult{IsInvoice: false, Confidence: 0.99}}
	extract := &extractFake{}
	cascade := NewCascade(gate, extract, testPolicy(), nil)

	if _, err := cascade.Classify(context.Background(), "text"); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if extract.calls != 0 {
		t.Fatalf("extract stage must not run for gate-rejected documents")
	}
}

func TestCascadeRunsExtractForPlausibleInvoices(t *testing.T) {
	gate := &gateFake{result: domain.ClassificationResult{IsInvoice: true, Confidence: 0.80}}
	extract := &extractFake{result: domain.ClassificationResult{
		IsInvoice:  true,
		Confidence: 0.90,
		Fields:     domain.InvoiceFields{Title: "Seed order"},
	}}
	cascade := NewCascade(gate, extract, testPolicy(), nil)

	result, err := cascade.Classify(context.Background(), "invoice text")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if extract.calls != 1 {
		t.Fatalf("extract calls = %d, want 1", extract.calls)
	}
	if result.Fields.Title != "Seed order" {
		t.Fatalf("extract result not returned: %+v", result)
	}
}

func TestCascadeCapsStagePrefixes(t *testing.T) {
	long := strings.Repeat("a", 20000)
	gate := &gateFake{result: domain.ClassificationResult{IsInvoice: true, Confidence: 0.80}}
	extract := &extractFake{result: domain.ClassificationResult{IsInvoice: true, Confidence: 0.90}}
	cascade := NewCascade(gate, extract, testPolicy(), nil)

	if _, err := cascade.Classify(context.Background(), long); err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(gate.lastText) != gatePrefixBytes {
		t.Fatalf("gate prefix = %d bytes, want %d", len(gate.lastText), gatePrefixBytes)
	}
	if len(extract.lastText) != extractPrefixBytes {
		t.Fatalf("extract prefix = %d bytes, want %d", len(extract.lastText), extractPrefixBytes)
	}
}

func TestCascadePropagatesStageErrors(t *testing.T) {
	wantErr := errors.New("model down")
	cascade := NewCascade(&gateFake{err: wantErr}, &extractFake{}, testPolicy(), nil)

	if _, err := cascade.Classify(context.Background(), "text"); !errors.Is(err, wantErr) {
		t.Fatalf("expected gate error, got %v", err)
	}
}
