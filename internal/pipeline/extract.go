package pipeline

import (
	"regexp"
	"strings"
)

// indexNumberPattern matches standard Kenyan index/ID numbers: a contiguous
// run of 8 to 12 digits. Longer runs match their first 12 digits.
var indexNumberPattern = regexp.MustCompile(`\d{8,12}`)

// extractIndexNumber returns the leftmost 8-12 digit run in the normalized
// text. Absence is meaningful, not an error: the index number is the only
// join key into the registry.
func extractIndexNumber(text string) (string, bool) {
	match := indexNumberPattern.FindString(text)
	return match, match != ""
}

// foundKeywords returns, in vocabulary order, the vocabulary terms present in
// the normalized text. This is an OCR-error-tolerant integrity signal: it
// catches wholesale text corruption or wrong document types even when a
// plausible index number is present.
func foundKeywords(text string, vocabulary []string) []string {
	found := make([]string, 0, len(vocabulary))
	for _, kw := range vocabulary {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	return found
}
