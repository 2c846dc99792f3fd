package usecase

import (
	"regexp"
	"strings"

	"github.com/avoelk/paperroute/internal/core/domain"
)

// Bank account identifiers are matched by shape only: two letters, two
// check digits, then 4-character alphanumeric blocks. No checksum is
// validated; this is a coarse screening signal.
var (
	ibanPattern    = regexp.MustCompile(`\b[A-Z]{2}\d{2}(?:\s?[A-Z0-9]{4}){2,7}\s?[A-Z0-9]{0,4}\b`)
	ibanWhitespace = regexp.MustCompile(`\s+`)
)

const (
	ibanMinLen = 15
	ibanMaxLen = 34
)

// ExtractAccountIdentifiers scans text for bank-account-shaped strings
// and returns them normalized: internal whitespace stripped,
// upper-cased, length within [15,34].
func ExtractAccountIdentifiers(text string) map[string]struct{} {
	found := make(map[string]struct{})
	for _, match := range ibanPattern.FindAllString(text, -1) {
		normalized := strings.ToUpper(ibanWhitespace.ReplaceAllString(match, ""))
		if len(normalized) >= ibanMinLen && len(normalized) <= ibanMaxLen {
			found[normalized] = struct{}{}
		}
	}
	return found
}

// MatchesConfiguredAccount reports whether any extracted identifier is
// on the exact-match allow-list. An empty allow-list never matches.
func MatchesConfiguredAccount(text string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return false
	}
	found := ExtractAccountIdentifiers(text)
	for _, want := range allowlist {
		if _, ok := found[want]; ok {
			return true
		}
	}
	return false
}

// ContainsVocabulary reports whether any non-empty term occurs in the
// text, case-insensitively. Terms are expected lower-cased.
func ContainsVocabulary(text string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	lowered := strings.ToLower(text)
	for _, term := range terms {
		if term != "" && strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// CollectSignals derives the deterministic rule evidence for one
// document, recomputed fresh per evaluation.
func CollectSignals(text string, policy Policy) domain.RuleSignals {
	signals := domain.RuleSignals{
		IBANMatch:    MatchesConfiguredAccount(text, policy.MatchIBANs),
		KeywordMatch: make(map[string]bool, len(policy.Topics)),
	}
	for _, topic := range policy.Topics {
		signals.KeywordMatch[topic.Name] = ContainsVocabulary(text, topic.Keywords)
	}
	return signals
}
