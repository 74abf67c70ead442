// Package redact provides the text-to-text hook applied to all free text
// before it is placed on a normalized message. The engine never inspects
// the hook's output; it uses it verbatim.
package redact

import "strings"

// Redactor transforms a piece of free text. Implementations must be safe
// for concurrent use.
type Redactor func(string) string

// Placeholder replaces matched strings in the built-in replacer.
const Placeholder = "[REDACTED]"

// NoOp returns its input unchanged.
func NoOp(s string) string { return s }

// NewReplacer builds a Redactor that replaces every occurrence of the given
// literals with Placeholder. Empty literals are ignored. With no usable
// literals the result is NoOp.
func NewReplacer(literals []string) Redactor {
	var pairs []string
	for _, l := range literals {
		if l == "" {
			continue
		}
		pairs = append(pairs, l, Placeholder)
	}
	if len(pairs) == 0 {
		return NoOp
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace
}

// Chain composes redactors left to right.
func Chain(rs ...Redactor) Redactor {
	return func(s string) string {
		for _, r := range rs {
			if r != nil {
				s = r(s)
			}
		}
		return s
	}
}
