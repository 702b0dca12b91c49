package services

import (
	"regexp"
	"strings"
)

// The redaction token must not itself match any scrub pattern, otherwise
// re-scrubbing already sanitized text would mangle it.
const redactionToken = "[redacted]"

var disallowedKeywords = []string{
	"password",
	"social security",
	"ssn",
	"credit card",
	"bank account",
	"routing number",
	"passport",
}

// Scrub passes run in fixed order: email addresses, SSN-shaped digit groups,
// then any long digit run. Later passes never re-match the token emitted by
// earlier ones.
var scrubPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`),
	regexp.MustCompile(`\b[0-9]{3}[-. ]?[0-9]{2}[-. ]?[0-9]{4}\b`),
	regexp.MustCompile(`\b[0-9]{10,}\b`),
}

// GuardAllows reports whether the text is free of disallowed sensitive-data
// keywords. A false result must surface to the user; it is never silently
// downgraded to a fallback reply.
func GuardAllows(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range disallowedKeywords {
		if strings.Contains(lowered, keyword) {
			return false
		}
	}
	return true
}

// GuardScrub redacts identifier-shaped substrings before any text leaves the
// process. Idempotent: scrubbing already-scrubbed text is a no-op.
func GuardScrub(text string) string {
	sanitized := text
	for _, pattern := range scrubPatterns {
		sanitized = pattern.ReplaceAllString(sanitized, redactionToken)
	}
	return sanitized
}
