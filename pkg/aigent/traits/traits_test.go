package traits

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/cognicore/aigent/pkg/aigent/annotate"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	neutralTone    = "Generally maintains a neutral tone in discussions."
	positiveTone   = "Generally maintains a positive tone in discussions."
	conversational = "Communicates in an accessible, conversational style."
	technical      = "Uses technical language and industry-specific terms frequently."
	engages        = "Engages actively with audience through questions and discussions."
	enthusiastic   = "Expresses ideas with enthusiasm and energy."
)

func generate(t *testing.T, posts []string) []string {
	t.Helper()
	g := NewGenerator(annotate.NewRuleTagger(nil), quiet)
	got, err := g.Generate(context.Background(), posts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return got
}

func TestGenerateEmpty(t *testing.T) {
	for _, posts := range [][]string{nil, {}} {
		got := generate(t, posts)
		want := []string{neutralTone, conversational}
		if !slices.Equal(got, want) {
			t.Errorf("Generate(%v) = %q, want %q", posts, got, want)
		}
	}
}

func TestGenerateInteractive(t *testing.T) {
	got := generate(t, []string{
		"I love building tools!",
		"We ship code every day!",
		"What do you think?",
	})
	want := []string{
		"Frequently talks about love, ship, think.",
		positiveTone,
		conversational,
		engages,
		enthusiastic,
	}
	if !slices.Equal(got, want) {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestGenerateTechnical(t *testing.T) {
	got := generate(t, []string{
		"The latency spikes are terrible.",
		"Our database migration failed again.",
		"Throughput matters.",
	})
	want := []string{
		"Frequently talks about failed.",
		"Often discusses latency spikes are; database migration failed.",
		neutralTone,
		technical,
	}
	if !slices.Equal(got, want) {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestGenerateNegativeIsNeutral(t *testing.T) {
	got := generate(t, []string{"I hate this awful crash", "terrible bug"})
	if !slices.Contains(got, neutralTone) {
		t.Errorf("negative text should read as neutral, got %q", got)
	}
}

func TestAnalyzeLimitsLists(t *testing.T) {
	g := NewGenerator(annotate.NewRuleTagger(nil), quiet)
	sig, err := g.Analyze(context.Background(), []string{
		"We build, we ship, we test, we deploy, we learn, we teach, we write.",
		"Data matters. Code matters. Design matters. People matter.",
		"We build again.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"build", "ship", "test", "deploy", "learn"}; !slices.Equal(sig.Verbs, want) {
		t.Errorf("Verbs = %q, want %q", sig.Verbs, want)
	}
	if len(sig.TopicActions) > maxTopicActions {
		t.Errorf("TopicActions has %d entries", len(sig.TopicActions))
	}
	if sig.Posts != 3 {
		t.Errorf("Posts = %d", sig.Posts)
	}
}

func TestGenerateCountsEveryExclamationMark(t *testing.T) {
	posts := []string{"Great news!!!"}
	for len(posts) < 10 {
		posts = append(posts, "We met today.")
	}
	g := NewGenerator(annotate.NewRuleTagger(nil), quiet)
	sig, err := g.Analyze(context.Background(), posts)
	if err != nil {
		t.Fatal(err)
	}
	if sig.Exclamations != 3 {
		t.Errorf("Exclamations = %d, want 3", sig.Exclamations)
	}
	if got := Describe(sig); !slices.Contains(got, enthusiastic) {
		t.Errorf("3 marks in 10 posts should read as enthusiastic, got %q", got)
	}
}

func TestGenerateLongNounRun(t *testing.T) {
	post := strings.Repeat("data ", 20000)
	start := time.Now()
	sig, err := NewGenerator(annotate.NewRuleTagger(nil), quiet).Analyze(context.Background(), []string{post})
	if err != nil {
		t.Fatal(err)
	}
	if len(sig.TopicActions) != 0 {
		t.Errorf("TopicActions = %q, want none", sig.TopicActions)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("20000-word noun run took %v", elapsed)
	}
}

func TestDescribeInteractionThresholds(t *testing.T) {
	tests := []struct {
		name      string
		sig       Signals
		questions bool
		excited   bool
	}{
		{"exactly ten percent does not fire", Signals{Posts: 20, Questions: 2, Exclamations: 2}, false, false},
		{"above ten percent fires", Signals{Posts: 20, Questions: 3, Exclamations: 3}, true, true},
		{"independent", Signals{Posts: 10, Questions: 0, Exclamations: 5}, false, true},
		{"no posts", Signals{}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Describe(tt.sig)
			if slices.Contains(got, engages) != tt.questions {
				t.Errorf("questions sentence present=%v, want %v", !tt.questions, tt.questions)
			}
			if slices.Contains(got, enthusiastic) != tt.excited {
				t.Errorf("enthusiasm sentence present=%v, want %v", !tt.excited, tt.excited)
			}
		})
	}
}

func TestDescribeOrder(t *testing.T) {
	got := Describe(Signals{
		Posts:        1,
		Verbs:        []string{"build", "ship"},
		TopicActions: []string{"rust compiles", "code works"},
		Positive:     1,
		Technical:    2,
		Casual:       1,
		Questions:    1,
		Exclamations: 1,
	})
	want := []string{
		"Frequently talks about build, ship.",
		"Often discusses rust compiles; code works.",
		positiveTone,
		technical,
		engages,
		enthusiastic,
	}
	if !slices.Equal(got, want) {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

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

func TestGenerateFallsBackToSinglePosts(t *testing.T) {
	g := NewGenerator(failing{next: annotate.NewRuleTagger(nil), marker: "boom"}, quiet)
	got, err := g.Generate(context.Background(), []string{"I love it!", "boom"})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(got, positiveTone) || !slices.Contains(got, enthusiastic) {
		t.Errorf("healthy post should still count, got %q", got)
	}
}

func TestGenerateCancelled(t *testing.T) {
	g := NewGenerator(annotate.NewRuleTagger(nil), quiet)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Generate(ctx, []string{"hello"}); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
