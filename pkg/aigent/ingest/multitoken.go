package ingest

import "strings"

// MultiTokenParser recognizes multi-word lexicon phrases ("machine learning",
// "open source") in a token stream
type MultiTokenParser struct {
	dict   map[string]DictEntry // phrase → entry
	maxLen int
}

// DictEntry represents a dictionary entry for a multi-token phrase
type DictEntry struct {
	Canonical string
	Category  string
	Variants  []string
}

// Span marks tokens[Start:End] as one occurrence of Entry.
type Span struct {
	Start int
	End   int
	Entry DictEntry
}

// NewMultiTokenParser creates a new parser with the given dictionary
func NewMultiTokenParser(entries []DictEntry) *MultiTokenParser {
	dict := make(map[string]DictEntry)
	maxLen := 1
	for _, e := range entries {
		canonical := strings.ToLower(e.Canonical)
		dict[canonical] = e
		if l := phraseLen(canonical); l > maxLen {
			maxLen = l
		}
		for _, v := range e.Variants {
			variant := strings.ToLower(v)
			dict[variant] = e
			if l := phraseLen(variant); l > maxLen {
				maxLen = l
			}
		}
	}
	return &MultiTokenParser{dict: dict, maxLen: maxLen}
}

// Spans applies greedy longest-match and returns every multi-word match
// (two or more tokens). Spans never overlap and are ordered by Start.
func (p *MultiTokenParser) Spans(tokens []string) []Span {
	var spans []Span
	if p.maxLen < 2 {
		return spans
	}

	i := 0
	for i < len(tokens) {
		maxPhrase := p.maxLen
		if remaining := len(tokens) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}

		matchLen := 1
		for n := maxPhrase; n >= 2; n-- {
			phraseKey := strings.ToLower(strings.Join(tokens[i:i+n], " "))
			if entry, ok := p.dict[phraseKey]; ok {
				spans = append(spans, Span{Start: i, End: i + n, Entry: entry})
				matchLen = n
				break
			}
		}
		i += matchLen
	}

	return spans
}

func phraseLen(phrase string) int {
	if phrase == "" {
		return 1
	}
	return len(strings.Fields(phrase))
}
