package domain

// TopicJudgment is the classifier's verdict for one topic.
type TopicJudgment struct {
	Related    bool    `json:"related"`
	Confidence float64 `json:"confidence"`
	Deductible bool    `json:"deductible"`
}

// InvoiceFields are best-effort string captures from the extract
// stage. They are never validated beyond being strings.
type InvoiceFields struct {
	Title         string `json:"title"`
	Date          string `json:"date"`
	AmountTotal   string `json:"amount_total"`
	Currency      string `json:"currency"`
	InvoiceNumber string `json:"invoice_number"`
}

// ClassificationResult is the output of either cascade stage.
// Confidence values are provider-supplied point estimates; the engine
// only compares them against fixed thresholds.
type ClassificationResult struct {
	IsInvoice  bool                     `json:"is_invoice"`
	Confidence float64                  `json:"confidence"`
	Topics     map[string]TopicJudgment `json:"topics"`
	Fields     InvoiceFields            `json:"fields"`
	Notes      string                   `json:"notes"`
}

// RuleSignals is the deterministic evidence derived from document
// text, recomputed fresh on every evaluation.
type RuleSignals struct {
	IBANMatch    bool
	KeywordMatch map[string]bool
}

// AnyKeyword reports whether any topic's vocabulary matched.
func (s RuleSignals) AnyKeyword() bool {
	for _, hit := range s.KeywordMatch {
		if hit {
			return true
		}
	}
	return false
}

// Reason tags appended to RoutingDecision.Reasons, in evaluation
// order. Per-topic tags are built with the topic's short tag.
const (
	ReasonIBAN         = "iban"
	ReasonKeyword      = "keyword"
	ReasonAIPrefix     = "ai_"
	ReasonDeductPrefix = "deductible_"
	ReasonDefaultTopic = "default_topic"
)

// RoutingDecision is the engine's verdict for one document. Reasons
// keeps evaluation order and preserves duplicates.
type RoutingDecision struct {
	IsInvoice  bool
	Confidence float64
	Signals    RuleSignals
	Related    map[string]bool
	Deductible map[string]bool
	Forward    map[string]bool
	Reasons    []string
}

// Forwards reports whether any topic is selected for forwarding.
func (d RoutingDecision) Forwards() bool {
	for _, f := range d.Forward {
		if f {
			return true
		}
	}
	return false
}
