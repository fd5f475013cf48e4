// Package normalize derives the URL and preview fields of a blog from its raw
// title and body. Validation of length bounds happens before any of these run.
package normalize

import (
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
)

const (
	// ExcerptLength is the target excerpt size; the cut backs off to the
	// nearest preceding word boundary.
	ExcerptLength = 320
	// MetaDescriptionLength is how much of the body feeds the meta description.
	MetaDescriptionLength = 160
	// excerptSuffix marks a truncated excerpt, matching the public site.
	excerptSuffix = " ..."
)

var stripper = bluemonday.StrictPolicy()

// Slugify converts a title into a lower-case hyphenated identifier. Runs of
// whitespace and punctuation collapse into a single hyphen; non-ASCII letters
// are transliterated.
func Slugify(title string) string {
	return slug.Make(strings.TrimSpace(title))
}

// SmartTrim shortens body to at most maxLen runes, backing off to the last
// word boundary inside the window and appending an ellipsis. Bodies that
// already fit are returned unchanged.
func SmartTrim(body string, maxLen int) string {
	runes := []rune(body)
	if len(runes) <= maxLen {
		return body
	}
	window := runes[:maxLen+1]
	cut := len(window)
	for i := len(window) - 1; i >= 0; i-- {
		if unicode.IsSpace(window[i]) {
			cut = i
			break
		}
	}
	trimmed := strings.TrimRight(string(window[:cut]), " \t\r\n")
	if trimmed == "" {
		trimmed = string(runes[:maxLen])
	}
	return trimmed + excerptSuffix
}

// Excerpt produces the stored preview of a body.
func Excerpt(body string) string {
	return SmartTrim(body, ExcerptLength)
}

// MetaTitle builds the SEO title for a blog.
func MetaTitle(title, appName string) string {
	return title + " | " + appName
}

// MetaDescription takes the first MetaDescriptionLength runes of the body and
// strips any markup, leaving plain text.
func MetaDescription(body string) string {
	runes := []rune(body)
	if len(runes) > MetaDescriptionLength {
		runes = runes[:MetaDescriptionLength]
	}
	return strings.TrimSpace(StripHTML(string(runes)))
}

// StripHTML removes all markup from content, used when deriving plain-text
// fields from a rich body.
func StripHTML(content string) string {
	return stripper.Sanitize(content)
}
