package usecase

import (
	"context"
	"fmt"

	"github.com/avoelk/paperroute/internal/core/domain"
	"github.com/avoelk/paperroute/internal/core/ports"
)

// Prefix caps bound classifier cost: the gate model sees a short
// prefix on every document, the extract model a longer one only on
// gate-approved candidates.
const (
	gatePrefixBytes    = 6000
	extractPrefixBytes = 12000
)

const (
	StageGate    = "gate"
	StageExtract = "extract"
)

// Cascade orchestrates the two-stage confidence-gated classification.
type Cascade struct {
	gate     ports.GateClassifier
	extract  ports.ExtractClassifier
	policy   Policy
	observer Observer
}

func NewCascade(gate ports.GateClassifier, extract ports.ExtractClassifier, policy Policy, observer Observer) *Cascade {
	if observer == nil {
		observer = NopObserver
	}
	return &Cascade{gate: gate, extract: extract, policy: policy, observer: observer}
}

// Classify runs the gate stage and, only when the gate believes the
// document is a plausible invoice, the extract stage. Otherwise the
// result is synthesized from gate output with deductibility cleared.
func (c *Cascade) Classify(ctx context.Context, text string) (domain.ClassificationResult, error) {
	c.observer.ClassifierCall(StageGate)
	gate, err := c.gate.Gate(ctx, prefix(text, gatePrefixBytes))
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("gate stage: %w", err)
	}

	if !gate.IsInvoice || gate.Confidence < c.policy.GateThreshold {
		return synthesizeFromGate(gate), nil
	}

	c.observer.ClassifierCall(StageExtract)
	result, err := c.extract.Extract(ctx, prefix(text, extractPrefixBytes))
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("extract stage: %w", err)
	}
	return result, nil
}

// synthesizeFromGate rejects the document while keeping the gate's
// per-topic relatedness for auditing. Deductible flags are forced
// false; the gate schema never asserts deductibility.
func synthesizeFromGate(gate domain.ClassificationResult) domain.ClassificationResult {
	topics := make(map[string]domain.TopicJudgment, len(gate.Topics))
	for name, judgment := range gate.Topics {
		judgment.Deductible = false
		topics[name] = judgment
	}
	return domain.ClassificationResult{
		IsInvoice:  false,
		Confidence: gate.Confidence,
		Topics:     topics,
		Notes:      gate.Notes,
	}
}

func prefix(text string, max int) string {
	if len(text) > max {
		return text[:max]
	}
	return text
}
