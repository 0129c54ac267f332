package page

import (
	"html/template"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	inlinePolicyOnce sync.Once
	inlinePolicy     *bluemonday.Policy
)

// sanitizeInline keeps emphasis markup from recipe text and drops everything else.
func sanitizeInline(raw string) template.HTML {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	//nolint:gosec // output is produced by the sanitizer policy
	return template.HTML(strings.TrimSpace(inlineSanitizer().Sanitize(trimmed)))
}

func inlineSanitizer() *bluemonday.Policy {
	inlinePolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("em", "strong", "i", "b", "br")
		inlinePolicy = policy
	})
	return inlinePolicy
}
