package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all HTML tags and attributes
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy keeps basic formatting, used for event and club descriptions
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML and surrounding whitespace. Entities escaped by the
// policy are decoded back since the result is stored as plain text.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// HTML sanitizes rich text, dropping scripts, event handlers and styles
func HTML(input string) string {
	return strings.TrimSpace(UGCPolicy.Sanitize(input))
}

// OptionalText applies Text to a nullable field, mapping blank results to nil
func OptionalText(input *string) *string {
	if input == nil {
		return nil
	}
	out := Text(*input)
	if out == "" {
		return nil
	}
	return &out
}
