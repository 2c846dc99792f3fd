package ollama

import (
	"fmt"
	"strings"

	"github.com/avoelk/paperroute/internal/core/domain"
)

// The prompts pin an exact JSON schema. Topic entries are generated
// from configuration so adding a business unit never touches code.

func buildGatePrompt(topics []domain.Topic, text string) string {
	return fmt.Sprintf(`You are an invoice screening assistant.
Return ONLY one JSON object with exactly these keys:
{"is_invoice":true|false,"confidence":0.0,"topics":{%s},"notes":"short"}
confidence values are numbers from 0 to 1. No markdown, no extra keys.

OCR text:
%s`, gateTopicSchema(topics), text)
}

func buildExtractPrompt(topics []domain.Topic, text string) string {
	return fmt.Sprintf(`You are an invoice extraction assistant.
Return ONLY one JSON object with exactly these keys:
{
 "is_invoice":true|false,"confidence":0.0,
 "topics":{%s},
 "title":"short","date":"YYYY-MM-DD or empty",
 "amount_total":"string or empty","currency":"string or empty",
 "invoice_number":"string or empty","notes":"short"
}
confidence values are numbers from 0 to 1. No markdown, no extra keys.

OCR text:
%s`, extractTopicSchema(topics), text)
}

func gateTopicSchema(topics []domain.Topic) string {
	entries := make([]string, 0, len(topics))
	for _, topic := range topics {
		entries = append(entries, fmt.Sprintf(`%q:{"related":true|false,"confidence":0.0}`, topic.Name))
	}
	return strings.Join(entries, ",")
}

func extractTopicSchema(topics []domain.Topic) string {
	entries := make([]string, 0, len(topics))
	for _, topic := range topics {
		if topic.Deductible {
			entries = append(entries, fmt.Sprintf(`%q:{"related":true|false,"confidence":0.0,"deductible":true|false}`, topic.Name))
			continue
		}
		entries = append(entries, fmt.Sprintf(`%q:{"related":true|false,"confidence":0.0}`, topic.Name))
	}
	return strings.Join(entries, ",")
}
