package validation

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()

	// Angle brackets alone are prose ("a<b and c>d", "<nil>"). Closing
	// tags, comments and active elements are markup.
	markupHint = regexp.MustCompile(`</[A-Za-z][^>]*>|<!--|(?i:<(script|style|iframe|img|svg|object|embed|link|meta|form|input)\b)`)
)

// Text normalizes user supplied text. The value is stored as typed apart
// from surrounding whitespace; markup is rejected by the nohtml rule
// rather than silently stripped.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// ContainsMarkup reports whether s carries HTML the strict policy would
// have to remove.
func ContainsMarkup(s string) bool {
	if strict.Sanitize(s) == html.EscapeString(s) {
		return false
	}
	return markupHint.MatchString(s)
}
