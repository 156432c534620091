package topics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/cognicore/aigent/pkg/aigent/annotate"
	"github.com/cognicore/aigent/pkg/aigent/stoplist"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newExtractor(a annotate.Annotator) *Extractor {
	if a == nil {
		a = annotate.NewRuleTagger(nil)
	}
	return NewExtractor(a, stoplist.Default(), DefaultWeights(), quiet)
}

func extract(t *testing.T, e *Extractor, posts []string, limit int) []string {
	t.Helper()
	got, err := e.Extract(context.Background(), posts, limit)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return got
}

func scoreOf(ranked []Scored, term string) int {
	for _, s := range ranked {
		if s.Term == term {
			return s.Score
		}
	}
	return 0
}

func TestExtractCombinesStrategies(t *testing.T) {
	e := newExtractor(nil)
	posts := []string{"I love #AI and #AI research.", "AI research is fun."}

	got := extract(t, e, posts, 5)

	// "ai" is shorter than the minimum term length, so it never scores
	if slices.Contains(got, "ai") {
		t.Errorf("'ai' must be filtered out, got %v", got)
	}
	if !slices.Contains(got, "ai research") {
		t.Errorf("expected the noun phrase 'ai research', got %v", got)
	}
	if len(got) == 0 || got[0] != "research" {
		t.Errorf("expected 'research' to rank first, got %v", got)
	}

	ranked, _ := e.Rank(context.Background(), posts)
	// noun (+1) and science term (+2) in both posts
	if s := scoreOf(ranked, "research"); s != 6 {
		t.Errorf("research score = %d, want 6", s)
	}
	if s := scoreOf(ranked, "ai research"); s != 2 {
		t.Errorf("'ai research' score = %d, want 2", s)
	}
}

func TestHashtagOutscoresBareNoun(t *testing.T) {
	e := newExtractor(nil)

	tagged, err := e.Rank(context.Background(), []string{"#pottery"})
	if err != nil {
		t.Fatal(err)
	}
	bare, err := e.Rank(context.Background(), []string{"pottery"})
	if err != nil {
		t.Fatal(err)
	}

	if scoreOf(tagged, "pottery") != 3 || scoreOf(bare, "pottery") != 1 {
		t.Errorf("hashtag=%d bare=%d, want 3 and 1", scoreOf(tagged, "pottery"), scoreOf(bare, "pottery"))
	}
}

func TestExtractProperties(t *testing.T) {
	e := newExtractor(nil)
	posts := []string{
		"Shipping a new #golang release today! Check https://example.com/notes",
		"They say the stock market hates uncertainty. I say buy the dip.",
		"Our team is hiring engineers for the data platform. DM me!",
		"What do you think about large language models in healthcare?",
		"2024 was a wild year for #crypto and #defi",
		"Kubernetes upgrades at 3am are not fun lol",
		"Reading a paper on quantum error correction with my coffee",
		"123 456 it is what it is",
		"",
	}
	stops := stoplist.Default()

	for _, limit := range []int{1, 3, 10, 100} {
		got := extract(t, e, posts, limit)
		if len(got) > limit {
			t.Errorf("limit %d: got %d topics", limit, len(got))
		}
		seen := make(map[string]bool)
		for _, topic := range got {
			if seen[topic] {
				t.Errorf("limit %d: duplicate topic %q", limit, topic)
			}
			seen[topic] = true
			if stops.ShouldExclude(topic) {
				t.Errorf("limit %d: topic %q should have been filtered", limit, topic)
			}
		}
	}

	got := extract(t, e, posts, 100)
	for _, want := range []string{"golang", "crypto", "defi", "stock market", "kubernetes"} {
		if !slices.Contains(got, want) {
			t.Errorf("expected %q among topics %v", want, got)
		}
	}
	for _, topic := range got {
		if strings.Contains(topic, "example.com") || strings.HasPrefix(topic, "#") {
			t.Errorf("unexpected topic %q", topic)
		}
	}
}

func TestExtractTieBreakIsFirstSeen(t *testing.T) {
	e := newExtractor(nil)
	got := extract(t, e, []string{"pottery and knitting", "knitting and pottery"}, 10)
	want := []string{"pottery", "knitting"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractLimits(t *testing.T) {
	e := newExtractor(nil)
	posts := []string{"pottery knitting baking gardening"}

	if got := extract(t, e, posts, 0); len(got) != 0 {
		t.Errorf("limit 0 should return nothing, got %v", got)
	}
	if got := extract(t, e, posts, -1); len(got) != 0 {
		t.Errorf("negative limit should return nothing, got %v", got)
	}
	if got := extract(t, e, nil, 10); len(got) != 0 {
		t.Errorf("no posts should return nothing, got %v", got)
	}
}

func TestExtractMergesLexiconPhrases(t *testing.T) {
	e := newExtractor(nil)
	ranked, err := e.Rank(context.Background(), []string{"Machine learning is the future"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) == 0 || ranked[0].Term != "machine learning" {
		t.Fatalf("expected 'machine learning' first, got %v", ranked)
	}
	// phrase +2, noun +1, AI term +2
	if ranked[0].Score != 5 {
		t.Errorf("score = %d, want 5", ranked[0].Score)
	}
}

func TestExtractWeightsDisableStrategies(t *testing.T) {
	e := NewExtractor(annotate.NewRuleTagger(nil), nil, Weights{Hashtag: 3}, quiet)
	got := extract(t, e, []string{"#pottery bitcoin"}, 10)
	if !slices.Equal(got, []string{"pottery"}) {
		t.Errorf("only hashtags should score, got %v", got)
	}
}

// failing rejects any text containing a marker word.
type failing struct {
	next   annotate.Annotator
	marker string
}

func (f failing) Annotate(ctx context.Context, text string) (*annotate.Annotation, error) {
	if strings.Contains(text, f.marker) {
		return nil, annotate.ErrUnannotatable
	}
	return f.next.Annotate(ctx, text)
}

func TestExtractSkipsUnannotatablePosts(t *testing.T) {
	e := newExtractor(failing{next: annotate.NewRuleTagger(nil), marker: "boom"})
	got := extract(t, e, []string{"#pottery rocks", "boom #knitting"}, 10)

	if !slices.Contains(got, "pottery") {
		t.Errorf("healthy post should still score, got %v", got)
	}
	if slices.Contains(got, "knitting") {
		t.Errorf("failed post should contribute nothing, got %v", got)
	}
}

func TestExtractCancelled(t *testing.T) {
	e := newExtractor(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Extract(ctx, []string{"pottery"}, 10); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestScoreboardRanking(t *testing.T) {
	b := newScoreboard()
	b.add("alpha", 1)
	b.add("beta", 2)
	b.add("gamma", 1)
	b.add("alpha", 1)

	got := b.ranked()
	want := []Scored{{"alpha", 2}, {"beta", 2}, {"gamma", 1}}
	if !slices.Equal(got, want) {
		t.Errorf("ranked = %v, want %v", got, want)
	}
	if b.entries[0].Term != "alpha" {
		t.Error("ranked must not reorder the board itself")
	}
}
