package ollama

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/avoelk/paperroute/internal/core/domain"
)

type wireTopic struct {
	Related    bool    `json:"related"`
	Confidence float64 `json:"confidence"`
	Deductible bool    `json:"deductible"`
}

type wireResult struct {
	IsInvoice     bool                 `json:"is_invoice"`
	Confidence    float64              `json:"confidence"`
	Topics        map[string]wireTopic `json:"topics"`
	Title         string               `json:"title"`
	Date          string               `json:"date"`
	AmountTotal   string               `json:"amount_total"`
	Currency      string               `json:"currency"`
	InvoiceNumber string               `json:"invoice_number"`
	Notes         string               `json:"notes"`
}

// parseClassification applies the loose JSON contract: the raw
// completion must contain exactly one JSON object somewhere, located
// as the substring between the first '{' and the last '}'. Anything
// else is a malformed-output failure; the document is abandoned for
// this iteration and retried on a later poll.
func parseClassification(raw string) (domain.ClassificationResult, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return domain.ClassificationResult{}, domain.WrapError(
			domain.ErrMalformedOutput,
			"locate json object",
			fmt.Errorf("no object boundaries in %q", truncate(raw, 200)),
		)
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(raw[start:end+1]), &wire); err != nil {
		return domain.ClassificationResult{}, domain.WrapError(domain.ErrMalformedOutput, "parse json object", err)
	}
	if wire.Confidence < 0 || wire.Confidence > 1 {
		return domain.ClassificationResult{}, domain.WrapError(
			domain.ErrMalformedOutput,
			"validate confidence",
			errors.New("confidence outside [0,1]"),
		)
	}

	topics := make(map[string]domain.TopicJudgment, len(wire.Topics))
	for name, t := range wire.Topics {
		topics[name] = domain.TopicJudgment{
			Related:    t.Related,
			Confidence: t.Confidence,
			Deductible: t.Deductible,
		}
	}

	return domain.ClassificationResult{
		IsInvoice:  wire.IsInvoice,
		Confidence: wire.Confidence,
		Topics:     topics,
		Fields: domain.InvoiceFields{
			Title:         wire.Title,
			Date:          wire.Date,
			AmountTotal:   wire.AmountTotal,
			Currency:      wire.Currency,
			InvoiceNumber: wire.InvoiceNumber,
		},
		Notes: wire.Notes,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
