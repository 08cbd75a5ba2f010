package helpers

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// StrictHTMLPolicy returns a shared bluemonday policy that strips every HTML
// element and attribute.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// SanitizeHTMLStrict removes every HTML tag from s and trims surrounding
// whitespace. Entities stay escaped, so the result is safe to embed in HTML.
func SanitizeHTMLStrict(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(StrictHTMLPolicy().Sanitize(s))
}

// PlainText converts an HTML fragment into readable text: tags are removed,
// entities decoded and runs of whitespace collapsed to a single space.
func PlainText(s string) string {
	stripped := SanitizeHTMLStrict(s)
	if stripped == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(stripped)), " ")
}
