package stoplist

import (
	"strings"
	"unicode"
)

// MinTermLen is the shortest term that can survive the filter.
const MinTermLen = 3

// DefaultTerms is the curated stopword set applied when no stoplist file is
// configured: pronouns, articles, conjunctions, temporal deictics and a few
// words that carry no topical signal in short posts.
var DefaultTerms = []string{
	"you", "your", "our", "we", "they", "them", "its", "it's", "this", "that",
	"what", "who", "when", "where", "why", "how", "the", "and", "but", "or",
	"for", "nor", "yet", "so", "im", "i'm", "mine", "yours", "his", "hers",
	"some", "any", "many", "few", "all", "both", "time", "people", "thing",
	"way", "day", "man", "men", "woman", "women", "today", "tomorrow", "year",
	"month", "week", "here", "there", "now", "then", "always", "never", "just",
	"don t", "don", "amp",
}

// Manager decides which candidate terms are too weak to become topics
type Manager struct {
	stops map[string]struct{}
}

// NewManager creates a new stoplist manager
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]struct{}, len(initialStops))
	for _, s := range initialStops {
		stops[strings.ToLower(s)] = struct{}{}
	}
	return &Manager{stops: stops}
}

// Default returns a manager seeded with DefaultTerms.
func Default() *Manager {
	return NewManager(DefaultTerms)
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// ShouldExclude reports whether term must be dropped from topic scoring.
// A term is excluded when it is shorter than MinTermLen bytes, matches a
// stopword exactly, or consists only of digits. The same rule applies to
// hashtags, phrases, nouns and domain terms.
func (m *Manager) ShouldExclude(term string) bool {
	return len(term) < MinTermLen || m.IsStop(term) || isDigits(term)
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	m.stops[strings.ToLower(token)] = struct{}{}
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// Len returns the number of stopwords.
func (m *Manager) Len() int {
	return len(m.stops)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
