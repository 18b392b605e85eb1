package catalog

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// cleanTitle normalizes a title to NFC and collapses runs of whitespace.
func cleanTitle(title string) string {
	cleaned := norm.NFC.String(title)
	cleaned = whitespaceRegex.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
