package email

import (
	"html"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_.]+)\)`)

// Substitutor replaces $(name) placeholders in a template string. Two
// strategies exist, raw for subject and text bodies, HTML-escaping for HTML
// bodies; the call site picks one explicitly per output channel. Placeholders
// with no matching variable are left literal so a misconfigured template is
// visible in the output rather than silently blanked.
type Substitutor interface {
	Substitute(template string, vars map[string]string) string
}

// RawSubstitutor inserts values verbatim.
type RawSubstitutor struct{}

func (RawSubstitutor) Substitute(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// HTMLEscapingSubstitutor escapes every inserted value for HTML context. The
// template text itself is trusted markup and passes through untouched.
type HTMLEscapingSubstitutor struct{}

func (HTMLEscapingSubstitutor) Substitute(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := vars[name]; ok {
			return html.EscapeString(value)
		}
		return match
	})
}
