package annotate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/aigent/pkg/aigent/ingest"
	"github.com/cognicore/aigent/pkg/aigent/lexicon"
)

// DefaultMaxTextBytes bounds the input accepted by a RuleTagger.
const DefaultMaxTextBytes = 1 << 20

// closedClass tags are only taken from exact lexicon entries, never from a
// stem match ("likes" must not become a preposition through "like").
var closedClass = NewTagSet(Pronoun, Determiner, Preposition, Conjunction, Auxiliary, QuestionWord)

var copulas = map[string]bool{
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true, "am": true,
	"isn't": true, "aren't": true, "wasn't": true, "isnt": true, "arent": true, "wasnt": true,
}

var possessives = map[string]bool{
	"my": true, "your": true, "his": true, "her": true, "its": true, "our": true, "their": true,
}

// RuleTagger is a lexicon- and rule-based Annotator. It is stateless after
// construction and safe for concurrent use.
type RuleTagger struct {
	lex     *lexicon.Lexicon
	phrases *ingest.MultiTokenParser

	// MaxTextBytes rejects longer input with ErrUnannotatable. Zero means
	// DefaultMaxTextBytes.
	MaxTextBytes int
}

// NewRuleTagger creates a tagger backed by lex. A nil lexicon means
// lexicon.Default().
func NewRuleTagger(lex *lexicon.Lexicon) *RuleTagger {
	if lex == nil {
		lex = lexicon.Default()
	}
	var entries []ingest.DictEntry
	for _, p := range lex.Phrases() {
		entries = append(entries, ingest.DictEntry{
			Canonical: p.Canonical,
			Category:  p.Category,
			Variants:  p.Variants,
		})
	}
	return &RuleTagger{
		lex:     lex,
		phrases: ingest.NewMultiTokenParser(entries),
	}
}

// Annotate tokenizes and tags text.
func (t *RuleTagger) Annotate(ctx context.Context, text string) (*Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrUnannotatable)
	}
	limit := t.MaxTextBytes
	if limit <= 0 {
		limit = DefaultMaxTextBytes
	}
	if len(text) > limit {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrUnannotatable, len(text), limit)
	}

	return t.tag(ingest.Tokenize(text)), nil
}

// draft is a token before part-of-speech resolution.
type draft struct {
	text     string
	lower    string
	sentence int
	tags     TagSet // candidate parts of speech plus categories
	fixed    bool   // shape or phrase token; tags are final
}

func (t *RuleTagger) tag(toks ingest.Tokens) *Annotation {
	drafts := t.drafts(toks)

	ann := &Annotation{Tokens: make([]Token, len(drafts))}

	// POS resolution runs left to right; the resolved tag of the previous
	// token is context for the next one.
	prevPOS := noPOS
	prevLower := ""
	for i, d := range drafts {
		if i == 0 || drafts[i-1].sentence != d.sentence {
			prevPOS, prevLower = noPOS, ""
		}
		var next *draft
		if i+1 < len(drafts) && drafts[i+1].sentence == d.sentence {
			next = &drafts[i+1]
		}

		tags := d.tags
		if !d.fixed {
			pos := resolve(d, prevPOS, prevLower, next)
			tags &^= PartsOfSpeech
			if pos != noPOS {
				tags = tags.With(pos)
			}
		}
		if tags.Has(Auxiliary) {
			tags = tags.With(Verb)
		}

		ann.Tokens[i] = Token{Text: d.text, Normal: d.lower, Tags: tags, Sentence: d.sentence}
		prevPOS, prevLower = primaryPOS(tags), d.lower
	}

	// "5 dollars" is money
	for i := 0; i+1 < len(ann.Tokens); i++ {
		if ann.Tokens[i+1].Tags.Has(Money) && ann.Tokens[i].Tags.Has(Value) && isNumeric(ann.Tokens[i].Normal) {
			ann.Tokens[i].Tags = ann.Tokens[i].Tags.With(Money)
		}
	}

	ann.Sentences = sentences(ann.Tokens, toks.Sentences)
	return ann
}

// drafts builds one draft per word, merging lexicon phrases into single
// tokens.
func (t *RuleTagger) drafts(toks ingest.Tokens) []draft {
	lowers := toks.Texts()
	for i, w := range lowers {
		lowers[i] = strings.ToLower(w)
	}

	var out []draft
	spans := t.phrases.Spans(lowers)
	si := 0
	for i := 0; i < len(toks.Words); {
		for si < len(spans) && spans[si].Start < i {
			si++
		}
		if si < len(spans) && spans[si].Start == i && sameSentence(toks.Words[i:spans[si].End]) {
			s := spans[si]
			texts := make([]string, 0, s.End-s.Start)
			for _, w := range toks.Words[s.Start:s.End] {
				texts = append(texts, w.Text)
			}
			tags := NewTagSet(Noun)
			if cat, ok := ParseTag(s.Entry.Category); ok {
				tags = tags.With(cat)
			}
			out = append(out, draft{
				text:     strings.Join(texts, " "),
				lower:    strings.ToLower(s.Entry.Canonical),
				sentence: toks.Words[i].Sentence,
				tags:     tags,
				fixed:    true,
			})
			i = s.End
			continue
		}

		w := toks.Words[i]
		d := draft{text: w.Text, lower: lowers[i], sentence: w.Sentence}
		if tags, ok := shapeTags(d.lower); ok {
			d.tags, d.fixed = tags, true
		} else {
			d.tags = t.lookup(d.lower)
		}
		out = append(out, d)
		i++
	}
	return out
}

func sameSentence(words []ingest.Word) bool {
	for _, w := range words[1:] {
		if w.Sentence != words[0].Sentence {
			return false
		}
	}
	return true
}

// lookup collects lexicon categories for a word.
func (t *RuleTagger) lookup(word string) TagSet {
	exact := true
	cats := t.lex.Exact(word)
	if len(cats) == 0 {
		exact = false
		cats = t.lex.Lookup(word)
	}
	var tags TagSet
	for _, c := range cats {
		tag, ok := ParseTag(c)
		if !ok {
			continue
		}
		if !exact && closedClass.Has(tag) {
			continue
		}
		tags = tags.With(tag)
	}
	// a derivational suffix overrides the part of speech of the stem:
	// "quickly" is not an adjective even though "quick" is
	if !exact && tags.HasAny(PartsOfSpeech) {
		if pos, ok := suffixPOS(word); ok {
			tags = tags&^PartsOfSpeech | NewTagSet(pos)
		}
	}
	return tags
}

const noPOS Tag = numTags

func primaryPOS(tags TagSet) Tag {
	pos := tags & PartsOfSpeech
	if pos.Has(Auxiliary) {
		return Auxiliary
	}
	if tags := pos.Tags(); len(tags) > 0 {
		return tags[0]
	}
	return noPOS
}

// resolve picks a single part of speech for d from its candidates and its
// neighbours.
func resolve(d draft, prevPOS Tag, prevLower string, next *draft) Tag {
	cands := d.tags & PartsOfSpeech
	verbContext := (prevPOS == Pronoun && !possessives[prevLower]) ||
		prevPOS == Auxiliary || prevPOS == Adverb || prevLower == "to"
	nounContext := prevPOS == Determiner || prevPOS == Adjective || prevPOS == Preposition ||
		prevPOS == Verb || prevPOS == Value || possessives[prevLower]

	switch {
	case cands == 0:
		if d.tags.Has(Expression) {
			return noPOS
		}
		return guess(d.lower, prevPOS, verbContext)
	case cands.Has(Auxiliary):
		return Auxiliary
	case cands.Has(Pronoun) && cands.Has(Determiner):
		// "this code" vs "this is"
		if next != nil && nounish(next) {
			return Determiner
		}
		return Pronoun
	case cands.Has(Pronoun):
		return Pronoun
	case cands.Has(Adjective) && copulas[prevLower]:
		return Adjective
	case cands.Has(Verb) && verbContext:
		return Verb
	case cands.Has(Determiner):
		return Determiner
	case cands.Has(Preposition):
		return Preposition
	case cands.Has(Conjunction):
		return Conjunction
	case cands.Has(Adverb):
		return Adverb
	case cands.Has(Adjective):
		switch {
		case !cands.Has(Noun) && !cands.Has(Verb):
			return Adjective
		case prevPOS == Auxiliary:
			return Adjective
		case next != nil && nounish(next):
			return Adjective
		case cands.Has(Noun):
			return Noun
		case nounContext:
			return Adjective
		}
		return Verb
	case cands.Has(Noun):
		// noun/verb ambiguity outside a verb context: "research is fun"
		return Noun
	case cands.Has(Verb):
		return Verb
	case cands.Has(Value):
		return Value
	}
	return Noun
}

// nounish reports whether a following token can be the head noun of a
// phrase started by the current one.
func nounish(d *draft) bool {
	cands := d.tags & PartsOfSpeech
	if cands.Has(Noun) || cands.Has(Adjective) {
		return true
	}
	return !d.fixed && cands == 0 && !d.tags.Has(Expression)
}

// guess assigns a part of speech to a word the lexicon does not know, from
// its suffix.
func guess(word string, prevPOS Tag, verbContext bool) Tag {
	if pos, ok := suffixPOS(word); ok {
		return pos
	}
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ing"):
		if verbContext {
			return Verb
		}
		return Noun
	case len(word) > 3 && strings.HasSuffix(word, "ed"):
		if prevPOS == Determiner {
			return Adjective
		}
		return Verb
	}
	return Noun
}

func suffixPOS(word string) (Tag, bool) {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ly"):
		return Adverb, true
	case hasAnySuffix(word, "tion", "sion", "ment", "ness", "ity", "ism", "ist", "ship", "ance", "ence"):
		return Noun, true
	case hasAnySuffix(word, "ous", "ful", "ive", "able", "ible", "less", "ical", "ish"):
		return Adjective, true
	}
	return 0, false
}

func hasAnySuffix(word string, suffixes ...string) bool {
	for _, s := range suffixes {
		if len(word) > len(s)+1 && strings.HasSuffix(word, s) {
			return true
		}
	}
	return false
}

// sentences converts word-level sentences to token ranges and classifies
// them. Token sentence indexes are renumbered to match the result.
func sentences(tokens []Token, src []ingest.Sentence) []Sentence {
	out := make([]Sentence, 0, len(src))
	i := 0
	for si, s := range src {
		start := i
		for i < len(tokens) && tokens[i].Sentence == si {
			i++
		}
		if i == start {
			continue
		}
		for j := start; j < i; j++ {
			tokens[j].Sentence = len(out)
		}
		sent := Sentence{Start: start, End: i}
		switch {
		case strings.Contains(s.Terminal, "?"):
			sent.Question = true
		case s.Terminal == "" && tokens[start].Tags.Has(QuestionWord):
			sent.Question = true
		}
		sent.Exclamations = strings.Count(s.Terminal, "!")
		out = append(out, sent)
	}
	return out
}
