package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans submitted HTML content to prevent stored XSS while keeping
// user-generated formatting.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
