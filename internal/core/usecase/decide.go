package usecase

import "github.com/avoelk/paperroute/internal/core/domain"

// topicRelatedMin is the fixed relatedness confidence cut-off for
// per-topic AI signals.
const topicRelatedMin = 0.5

// Decide combines classifier output and rule signals into a routing
// decision. The boolean policy and the reason ordering are load
// bearing: deductibility requires relatedness, forwarding requires a
// trigger, and the default-topic fallback fires only when a trigger
// produced no topic-specific forward.
func Decide(cls domain.ClassificationResult, signals domain.RuleSignals, policy Policy) domain.RoutingDecision {
	decision := domain.RoutingDecision{
		IsInvoice:  cls.IsInvoice,
		Confidence: cls.Confidence,
		Signals:    signals,
		Related:    make(map[string]bool, len(policy.Topics)),
		Deductible: make(map[string]bool, len(policy.Topics)),
		Forward:    make(map[string]bool, len(policy.Topics)),
	}
	for _, topic := range policy.Topics {
		decision.Forward[topic.Name] = false
	}

	if !cls.IsInvoice || cls.Confidence < policy.InvoiceConfidenceMin {
		return decision
	}

	for _, topic := range policy.Topics {
		judgment := cls.Topics[topic.Name]
		related := judgment.Related && judgment.Confidence >= topicRelatedMin
		decision.Related[topic.Name] = related
		// An unrelated-but-flagged-deductible result is disregarded.
		decision.Deductible[topic.Name] = topic.Deductible && judgment.Deductible && related
	}

	triggers := signals.IBANMatch || signals.AnyKeyword() ||
		anyTrue(decision.Related) || anyTrue(decision.Deductible)
	if !triggers {
		return decision
	}

	for _, topic := range policy.Topics {
		decision.Forward[topic.Name] = decision.Related[topic.Name] ||
			signals.KeywordMatch[topic.Name] ||
			decision.Deductible[topic.Name]
	}

	if signals.IBANMatch {
		decision.Reasons = append(decision.Reasons, domain.ReasonIBAN)
	}
	for _, topic := range policy.Topics {
		if signals.KeywordMatch[topic.Name] {
			decision.Reasons = append(decision.Reasons, domain.ReasonKeyword)
		}
	}
	for _, topic := range policy.Topics {
		if decision.Related[topic.Name] {
			decision.Reasons = append(decision.Reasons, domain.ReasonAIPrefix+topic.Tag)
		}
	}
	for _, topic := range policy.Topics {
		if decision.Deductible[topic.Name] {
			decision.Reasons = append(decision.Reasons, domain.ReasonDeductPrefix+topic.Tag)
		}
	}

	// Trigger fired without a topic-specific forward, e.g. a
	// cross-topic account match. Route to the configured default.
	if !decision.Forwards() {
		decision.Forward[policy.DefaultTopic] = true
		decision.Reasons = append(decision.Reasons, domain.ReasonDefaultTopic)
	}

	return decision
}

func anyTrue(flags map[string]bool) bool {
	for _, v := range flags {
		if v {
			return true
		}
	}
	return false
}
