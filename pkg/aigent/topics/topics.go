// Package topics ranks the terms a user posts about.
//
// Every post is normalized and annotated, then four strategies add weight
// to candidate terms in one shared table: hashtags, multi-word noun
// phrases, single nouns and domain-category words. Terms failing the
// stoplist filter are never scored.
package topics

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cognicore/aigent/pkg/aigent/annotate"
	"github.com/cognicore/aigent/pkg/aigent/ingest"
	"github.com/cognicore/aigent/pkg/aigent/stoplist"
)

// DefaultLimit is the number of topics kept in a profile.
const DefaultLimit = 10

// Weights are the points each strategy adds per occurrence. A weight of
// zero or less disables the strategy.
type Weights struct {
	Hashtag int `yaml:"hashtag" json:"hashtag"`
	Phrase  int `yaml:"phrase" json:"phrase"`
	Noun    int `yaml:"noun" json:"noun"`
	Domain  int `yaml:"domain" json:"domain"`
}

// DefaultWeights favours hashtags over phrases and domain terms, and those
// over plain nouns.
func DefaultWeights() Weights {
	return Weights{Hashtag: 3, Phrase: 2, Noun: 1, Domain: 2}
}

var nounPhrase = annotate.MustCompile("#Noun+ (#Preposition? #Noun+)?")

// nouns of these kinds are not topics on their own
var notTopical = annotate.NewTagSet(
	annotate.Pronoun,
	annotate.Url,
	annotate.Email,
	annotate.PhoneNumber,
	annotate.Date,
	annotate.Money,
	annotate.Hashtag,
)

// Extractor scores topics across a collection of posts.
type Extractor struct {
	annotator annotate.Annotator
	stops     *stoplist.Manager
	weights   Weights
	logger    *slog.Logger
}

// NewExtractor creates an extractor. A nil stoplist uses stoplist.Default()
// and a nil logger uses slog.Default().
func NewExtractor(a annotate.Annotator, stops *stoplist.Manager, w Weights, logger *slog.Logger) *Extractor {
	if stops == nil {
		stops = stoplist.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{annotator: a, stops: stops, weights: w, logger: logger}
}

// Extract returns up to limit topics, highest score first. Posts the
// annotator cannot process are skipped; the only error is cancellation
// of ctx.
func (e *Extractor) Extract(ctx context.Context, posts []string, limit int) ([]string, error) {
	ranked, err := e.Rank(ctx, posts)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Term
	}
	return out, nil
}

// Rank returns every candidate term with its score, highest first.
func (e *Extractor) Rank(ctx context.Context, posts []string) ([]Scored, error) {
	board := newScoreboard()
	skipped := 0
	for i, post := range posts {
		if err := e.score(ctx, board, post); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			skipped++
			e.logger.Warn("skipping post: annotation failed", "post", i, "error", err)
		}
	}
	e.logger.Debug("topics scored", "posts", len(posts), "skipped", skipped, "candidates", board.len())
	return board.ranked(), nil
}

func (e *Extractor) score(ctx context.Context, board *scoreboard, post string) error {
	text := ingest.Normalize(post)
	ann, err := e.annotator.Annotate(ctx, text)
	if err != nil {
		return err
	}

	add := func(term string, weight int) {
		if weight <= 0 || e.stops.ShouldExclude(term) {
			return
		}
		board.add(term, weight)
	}

	for _, tag := range ingest.Hashtags(text) {
		add(strings.ToLower(tag), e.weights.Hashtag)
	}

	for _, span := range ann.Spans(nounPhrase) {
		tokens := ann.Tokens[span.Start:span.End]
		if allPronouns(tokens) {
			continue
		}
		phrase := joinNormal(tokens)
		if len(strings.Fields(phrase)) > 1 {
			add(phrase, e.weights.Phrase)
		}
	}

	for _, tok := range ann.Tokens {
		if tok.Tags.Has(annotate.Noun) && !tok.Tags.HasAny(notTopical) {
			add(tok.Normal, e.weights.Noun)
		}
	}

	for _, tok := range ann.Tokens {
		if tok.Tags.HasAny(annotate.DomainTags) {
			add(tok.Normal, e.weights.Domain)
		}
	}

	return nil
}

func joinNormal(tokens []annotate.Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Normal
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func allPronouns(tokens []annotate.Token) bool {
	for _, tok := range tokens {
		if !tok.Tags.Has(annotate.Pronoun) {
			return false
		}
	}
	return len(tokens) > 0
}
