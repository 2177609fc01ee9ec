// Package sanitize cleans scraped text before it is stored.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	entityReplacer  = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
		"&nbsp;", " ",
	)
)

// StripHTML removes tags and decodes the common entities. Tags hidden behind
// entities are stripped on a second pass.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Line strips HTML and collapses all whitespace runs to single spaces.
// Used for single-line fields such as names and handles copied off web pages.
func Line(s string) string {
	return whitespaceRegex.ReplaceAllString(StripHTML(s), " ")
}
