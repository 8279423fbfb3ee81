package tools

import (
	"regexp"
	"strings"
)

// urlRE matches a maximal run of non-whitespace characters starting with an
// http(s) scheme.
var urlRE = regexp.MustCompile(`https?://\S+`)

// freshInfoTriggers are lowercase substrings signaling a need for current
// information. Data, not logic: extend the table, not the control flow.
var freshInfoTriggers = []string{
	"today", "now", "right now", "latest", "last",
	"price", "rate", "weather", "news", "won", "match",
	"did", "has", "is there",
}

// ExtractURLs returns every well-formed http(s) URL in the message, in order.
func ExtractURLs(text string) []string {
	return urlRE.FindAllString(text, -1)
}

// NeedsFreshInfo reports whether the message looks like it needs current
// information. A heuristic: false positives and negatives are acceptable,
// but the answer is deterministic for identical input.
func NeedsFreshInfo(text string) bool {
	q := strings.ToLower(text)
	for _, trigger := range freshInfoTriggers {
		if strings.Contains(q, trigger) {
			return true
		}
	}
	return false
}

// Decide returns the tool ids to auto-enable for a user message. First match
// wins: a message with URLs enables url_context only; else a fresh-info
// trigger enables google_search only; else nil, leaving the registry's
// current enabled set untouched (manual selection persists).
func Decide(userMessage string) []string {
	if len(ExtractURLs(userMessage)) > 0 {
		return []string{URLContext}
	}
	if NeedsFreshInfo(userMessage) {
		return []string{GoogleSearch}
	}
	return nil
}

// Activate applies the policy decision to the registry. It only ever adds
// activation; a nil decision leaves the registry as the user configured it.
func Activate(r *Registry, userMessage string) []string {
	ids := Decide(userMessage)
	if ids != nil {
		r.SetEnabled(ids)
	}
	return ids
}
