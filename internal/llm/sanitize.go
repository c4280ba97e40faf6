package llm

import (
	"regexp"
)

// RemovedPlaceholder replaces every unsafe fragment found in model output.
const RemovedPlaceholder = "[REMOVED]"

type sanitizeRule struct {
	re   *regexp.Regexp
	repl string
}

var sanitizeRules = []sanitizeRule{
	// Whole script blocks, then any stray opening or closing tag.
	{regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`), RemovedPlaceholder},
	{regexp.MustCompile(`(?i)</?script\b[^>]*>`), RemovedPlaceholder},
	{regexp.MustCompile(`(?i)javascript\s*:`), RemovedPlaceholder},
	// Inline event handlers inside a tag, e.g. <img onerror="..."> or
	// <svg/onload=...>; HTML accepts "/" as an attribute separator.
	// Plain prose such as "one = 1" must survive.
	{regexp.MustCompile(`(?i)(<[a-z][^>]*?)[\s/]+on[a-z]+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`), "${1} " + RemovedPlaceholder},
	// Any media type, with or without parameters such as charset.
	{regexp.MustCompile(`(?i)data:[^,\s"'>]*;base64,[a-z0-9+/=]+`), RemovedPlaceholder},
}

var blankRuns = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// Sanitize strips script blocks, javascript: URIs, inline event handlers and
// base64 data URIs from model output, replacing each with RemovedPlaceholder.
// Runs of blank lines are collapsed to one. The boolean reports whether any
// unsafe fragment was replaced.
func Sanitize(content string) (string, bool) {
	sanitized := false
	for _, rule := range sanitizeRules {
		// A tag can carry several handlers; each pass removes one per tag.
		for rule.re.MatchString(content) {
			content = rule.re.ReplaceAllString(content, rule.repl)
			sanitized = true
		}
	}
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return content, sanitized
}
