package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kljensen/snowball"
	"gopkg.in/yaml.v3"
)

//go:embed english.yaml
var englishYAML []byte

// Lexicon maps words to the categories they belong to: parts of speech
// (Noun, Verb, Pronoun, ...), sentiment (Positive, Negative), subject
// domains (Technology, Crypto, ...) and register (Slang, Expression).
// Category names are free-form strings; the annotator decides which ones
// it understands.
//
// Lookups are case-insensitive. A word with no exact entry falls back to
// its English snowball stem, so "shipping" and "shipped" both find "ship".
type Lexicon struct {
	// word -> categories, in the order they were first added
	words map[string][]string

	// stem of every word -> categories
	stems map[string][]string

	phrases []Phrase
}

// Phrase is a multi-word entry ("machine learning") that the tagger merges
// into a single token before lookup.
type Phrase struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
	Category  string   `yaml:"category"`
}

// document is the on-disk YAML shape.
type document struct {
	Categories map[string][]string `yaml:"categories"`
	Phrases    []Phrase            `yaml:"phrases"`
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		words: make(map[string][]string),
		stems: make(map[string][]string),
	}
}

// Default returns a fresh copy of the embedded English lexicon.
func Default() *Lexicon {
	lex, err := Parse(englishYAML)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded english.yaml: %v", err))
	}
	return lex
}

// LoadFromYAML loads a lexicon from a YAML file.
//
// Expected format:
//
//	categories:
//	  Positive: [love, great]
//	  Crypto: [bitcoin, defi]
//	phrases:
//	  - canonical: machine learning
//	    variants: [ml]
//	    category: AI
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds a lexicon from YAML bytes.
func Parse(data []byte) (*Lexicon, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	lex := New()

	// map iteration order is random; sort so category order is stable
	names := make([]string, 0, len(doc.Categories))
	for name := range doc.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lex.AddCategory(name, doc.Categories[name])
	}

	for _, p := range doc.Phrases {
		lex.AddPhrase(p)
	}

	return lex, nil
}

// AddCategory assigns category to every word.
func (l *Lexicon) AddCategory(category string, words []string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		l.words[w] = appendUnique(l.words[w], category)
		if stem := Stem(w); stem != "" {
			l.stems[stem] = appendUnique(l.stems[stem], category)
		}
	}
}

// AddPhrase registers a phrase. Single-word variants are also added as
// plain words of the phrase category.
func (l *Lexicon) AddPhrase(p Phrase) {
	p.Canonical = strings.ToLower(strings.TrimSpace(p.Canonical))
	if p.Canonical == "" {
		return
	}
	variants := make([]string, 0, len(p.Variants))
	for _, v := range p.Variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || v == p.Canonical {
			continue
		}
		variants = append(variants, v)
		if !strings.Contains(v, " ") && p.Category != "" {
			l.AddCategory(p.Category, []string{v})
		}
	}
	p.Variants = variants
	l.phrases = append(l.phrases, p)
}

// Merge adds every entry of other to l.
func (l *Lexicon) Merge(other *Lexicon) {
	if other == nil {
		return
	}
	for w, cats := range other.words {
		for _, c := range cats {
			l.AddCategory(c, []string{w})
		}
	}
	for _, p := range other.phrases {
		l.AddPhrase(p)
	}
}

// Lookup returns the categories of word. Exact entries win; otherwise the
// word's stem is consulted. The returned slice must not be modified.
func (l *Lexicon) Lookup(word string) []string {
	word = strings.ToLower(word)
	if cats, ok := l.words[word]; ok {
		return cats
	}
	if stem := Stem(word); stem != "" {
		return l.stems[stem]
	}
	return nil
}

// Has reports whether word (or its stem) carries category.
func (l *Lexicon) Has(word, category string) bool {
	for _, c := range l.Lookup(word) {
		if c == category {
			return true
		}
	}
	return false
}

// Exact returns only the categories listed for word itself, without the
// stem fallback.
func (l *Lexicon) Exact(word string) []string {
	return l.words[strings.ToLower(word)]
}

// Phrases returns the registered multi-word entries.
func (l *Lexicon) Phrases() []Phrase {
	return l.phrases
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() LexiconStats {
	perCategory := make(map[string]int)
	for _, cats := range l.words {
		for _, c := range cats {
			perCategory[c]++
		}
	}
	return LexiconStats{
		Words:       len(l.words),
		Stems:       len(l.stems),
		Phrases:     len(l.phrases),
		PerCategory: perCategory,
	}
}

// LexiconStats holds statistics about lexicon contents.
type LexiconStats struct {
	Words       int            // distinct words
	Stems       int            // distinct stems
	Phrases     int            // multi-word entries
	PerCategory map[string]int // words per category
}

// Stem returns the English snowball stem of an alphabetic word of three or
// more letters, and "" for anything else.
func Stem(word string) string {
	if len(word) < 3 {
		return ""
	}
	for _, r := range word {
		if r < 'a' || r > 'z' {
			return ""
		}
	}
	stem, err := snowball.Stem(word, "english", false)
	if err != nil {
		return ""
	}
	return stem
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
