package annotate

import (
	"regexp"
	"strings"
)

// Token shapes, matched against the lowercased token. More specific shapes
// are tried first.
var (
	// URL: scheme-prefixed or www.
	reURL = regexp.MustCompile(`^(https?://|www\.)\S+$`)

	// Email: standard pattern
	reEmail = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

	reHashtag   = regexp.MustCompile(`^#\w+$`)
	reAtMention = regexp.MustCompile(`^@\w+$`)

	// Money: $5, $1,200, $3.5m
	reMoney = regexp.MustCompile(`^\$\d[\d,]*(\.\d+)?[kmb]?$`)

	// Phone: 555-1234, 555-123-4567, 1-555-123-4567 (dots allowed too)
	rePhone = regexp.MustCompile(`^(\d{1,3}[-.])?(\d{3}[-.])?\d{3}[-.]\d{4}$`)

	// Date: 2024-01-15
	reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// Value: 42, 1,000, 3.5, 50%, 10k, 1st
	reValue = regexp.MustCompile(`^\d[\d,]*(\.\d+)?(%|k|m|bn|st|nd|rd|th|s)?$`)
)

// shapeTags returns the entity tags implied by the form of a single token,
// and whether the token is fully resolved by its shape (no lexicon lookup
// or part-of-speech guess needed).
func shapeTags(lower string) (TagSet, bool) {
	switch {
	case reURL.MatchString(lower):
		return NewTagSet(Url), true
	case reEmail.MatchString(lower):
		return NewTagSet(Email), true
	case reHashtag.MatchString(lower):
		return NewTagSet(Hashtag), true
	case reAtMention.MatchString(lower):
		return NewTagSet(AtMention), true
	case reMoney.MatchString(lower):
		return NewTagSet(Money, Value), true
	case reISODate.MatchString(lower):
		return NewTagSet(Date, Value), true
	case rePhone.MatchString(lower):
		return NewTagSet(PhoneNumber), true
	case reValue.MatchString(lower):
		return NewTagSet(Value), true
	}
	return 0, false
}

// isNumeric reports whether s is an amount that a following currency word
// turns into money ("5 dollars").
func isNumeric(s string) bool {
	return reValue.MatchString(s) && !strings.HasSuffix(s, "%")
}
