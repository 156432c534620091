// Package annotate provides linguistic annotation of short texts: tokens
// tagged with parts of speech, entity shapes and lexicon categories, split
// into sentences, and a small pattern language for matching tag sequences.
//
// The Annotator interface is the only thing feature extraction depends on.
// RuleTagger is the built-in, in-process implementation; Retrying wraps an
// annotator that may fail transiently (for example one backed by a remote
// service).
package annotate

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUnannotatable is returned for input the annotator cannot process.
	// Callers are expected to skip the text and carry on.
	ErrUnannotatable = errors.New("annotate: text cannot be annotated")

	// ErrTransient marks failures that may succeed on retry.
	ErrTransient = errors.New("annotate: transient failure")
)

// Annotator tags text. Implementations must be safe for concurrent use and
// free of side effects, so that a failed call can be repeated.
type Annotator interface {
	Annotate(ctx context.Context, text string) (*Annotation, error)
}

// Token is one word (or merged multi-word phrase) of an annotated text.
type Token struct {
	Text     string `json:"text"`
	Normal   string `json:"normal"` // lowercased; canonical form for phrases
	Tags     TagSet `json:"tags"`
	Sentence int    `json:"sentence"`
}

// Sentence spans tokens [Start, End).
type Sentence struct {
	Start    int  `json:"start"`
	End      int  `json:"end"`
	Question bool `json:"question"`
	// number of '!' in the terminal punctuation
	Exclamations int `json:"exclamations"`
}

// Annotation is the result of annotating a text.
type Annotation struct {
	Tokens    []Token    `json:"tokens"`
	Sentences []Sentence `json:"sentences"`
}

// Span is a match of a pattern over tokens [Start, End).
type Span struct {
	Start int
	End   int
}

// Text joins the surface text of tokens in span.
func (a *Annotation) Text(s Span) string {
	parts := make([]string, 0, s.End-s.Start)
	for _, tok := range a.Tokens[s.Start:s.End] {
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}

// Spans returns every non-overlapping match of p, scanning left to right.
// Matches never cross a sentence boundary.
func (a *Annotation) Spans(p *Pattern) []Span {
	var spans []Span
	for _, s := range a.Sentences {
		m := newMatcher(p, a, s.Start, s.End)
		i := s.Start
		for i < s.End {
			end, ok := m.matchAt(i)
			if !ok {
				i++
				continue
			}
			spans = append(spans, Span{Start: i, End: end})
			i = end
		}
	}
	return spans
}

// Match returns the text of every match of p.
func (a *Annotation) Match(p *Pattern) []string {
	spans := a.Spans(p)
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = a.Text(s)
	}
	return out
}

// Count returns the number of tokens carrying any tag in set.
func (a *Annotation) Count(set TagSet) int {
	n := 0
	for _, tok := range a.Tokens {
		if tok.Tags.HasAny(set) {
			n++
		}
	}
	return n
}

// Questions returns the number of interrogative sentences.
func (a *Annotation) Questions() int {
	n := 0
	for _, s := range a.Sentences {
		if s.Question {
			n++
		}
	}
	return n
}

// Exclamations returns the number of exclamation marks ending sentences.
func (a *Annotation) Exclamations() int {
	n := 0
	for _, s := range a.Sentences {
		n += s.Exclamations
	}
	return n
}

// Append adds the tokens and sentences of other after those of a.
func (a *Annotation) Append(other *Annotation) {
	if other == nil {
		return
	}
	tokenOffset := len(a.Tokens)
	sentenceOffset := len(a.Sentences)
	for _, tok := range other.Tokens {
		tok.Sentence += sentenceOffset
		a.Tokens = append(a.Tokens, tok)
	}
	for _, s := range other.Sentences {
		s.Start += tokenOffset
		s.End += tokenOffset
		a.Sentences = append(a.Sentences, s)
	}
}
