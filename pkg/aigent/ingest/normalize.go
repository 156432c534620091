package ingest

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	nonWordPattern = regexp.MustCompile(`[^\w\s#]`)
	spacePattern   = regexp.MustCompile(`\s+`)
	hashtagPattern = regexp.MustCompile(`#\w+`)
)

// Normalize lowercases text, removes scheme-prefixed URLs, replaces every
// character that is not a word character, whitespace or '#' with a space,
// collapses whitespace runs and trims the result.
//
// Normalize is a fixed point: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = nonWordPattern.ReplaceAllString(text, " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Hashtags returns the hashtags in normalized text with the marker removed,
// in order of appearance. Duplicates are kept.
func Hashtags(normalized string) []string {
	matches := hashtagPattern.FindAllString(normalized, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1:]))
	}
	return tags
}
