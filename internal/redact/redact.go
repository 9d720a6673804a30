// Package redact scrubs common PII patterns from transcript text before it
// is sent to the remote model. Stored transcripts are not redacted; only the
// copy that leaves the process is.
package redact

import "regexp"

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\b\+?\d[\d\s().-]{7,}\b`)
	cardRe  = regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`)
)

// PII replaces email addresses, phone numbers, and card-like digit runs
// with fixed placeholder tokens.
func PII(text string) string {
	if text == "" {
		return text
	}
	text = emailRe.ReplaceAllString(text, "[REDACTED_EMAIL]")
	text = phoneRe.ReplaceAllString(text, "[REDACTED_PHONE]")
	text = cardRe.ReplaceAllString(text, "[REDACTED_CARD]")
	return text
}
