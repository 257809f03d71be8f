package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes every tag and attribute and escapes what is left.
	// Place names, types, services, cities and tags go through it.
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy keeps basic formatting (<p>, <b>, <em>, <a>, lists) and drops
	// scripts, frames, event handlers and style attributes.
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all markup and returns escaped plain text.
// Text(Text(s)) == Text(s) for any s.
func Text(input string) string {
	return StrictPolicy.Sanitize(input)
}

// Trimmed is Text followed by whitespace trimming.
func Trimmed(input string) string {
	return strings.TrimSpace(Text(input))
}

// HTML sanitizes free-form descriptions.
func HTML(input string) string {
	return UGCPolicy.Sanitize(input)
}

// TextSlice applies Trimmed to each element.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	sanitized := make([]string, len(inputs))
	for i, input := range inputs {
		sanitized[i] = Trimmed(input)
	}
	return sanitized
}

// NonEmpty returns the sanitized elements that still carry text, preserving order.
func NonEmpty(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	for _, input := range TextSlice(inputs) {
		if input != "" {
			out = append(out, input)
		}
	}
	return out
}
