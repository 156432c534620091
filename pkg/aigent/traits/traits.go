// Package traits describes how a user writes: the actions they mention,
// their tone, register and interaction style. All posts are read as one
// text, so the result reflects the aggregate voice rather than any one post.
package traits

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cognicore/aigent/pkg/aigent/annotate"
)

const (
	maxVerbs        = 5
	maxTopicActions = 3

	// questions or exclamations must exceed this share of the post count
	interactionRatio = 0.1
)

var topicAction = annotate.MustCompile("#Noun+ (#Verb|#Adjective)")

var (
	technicalTags = annotate.NewTagSet(annotate.Technical, annotate.Science, annotate.Technology)
	casualTags    = annotate.NewTagSet(annotate.Expression, annotate.Slang)
)

// Signals are the raw counts behind the generated characteristics.
type Signals struct {
	Posts        int      `json:"posts"`
	Verbs        []string `json:"verbs"`
	TopicActions []string `json:"topicActions"`
	Positive     int      `json:"positive"`
	Negative     int      `json:"negative"`
	Technical    int      `json:"technical"`
	Casual       int      `json:"casual"`
	Questions    int      `json:"questions"`
	Exclamations int      `json:"exclamations"`
}

// Generator derives characteristics from posts.
type Generator struct {
	annotator annotate.Annotator
	logger    *slog.Logger
}

// NewGenerator creates a generator. A nil logger uses slog.Default().
func NewGenerator(a annotate.Annotator, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{annotator: a, logger: logger}
}

// Generate returns the characteristic sentences for posts, in heuristic
// order: actions, topic actions, tone, register, interaction.
func (g *Generator) Generate(ctx context.Context, posts []string) ([]string, error) {
	sig, err := g.Analyze(ctx, posts)
	if err != nil {
		return nil, err
	}
	return Describe(sig), nil
}

// Analyze annotates the joined posts and collects signals. If the joined
// text cannot be annotated, posts are annotated one at a time and those
// that fail are left out.
func (g *Generator) Analyze(ctx context.Context, posts []string) (Signals, error) {
	ann, err := g.annotate(ctx, posts)
	if err != nil {
		return Signals{}, err
	}

	sig := Signals{
		Posts:        len(posts),
		Verbs:        verbs(ann),
		TopicActions: ann.Match(topicAction),
		Positive:     ann.Count(annotate.NewTagSet(annotate.Positive)),
		Negative:     ann.Count(annotate.NewTagSet(annotate.Negative)),
		Technical:    ann.Count(technicalTags),
		Casual:       ann.Count(casualTags),
		Questions:    ann.Questions(),
		Exclamations: ann.Exclamations(),
	}
	if len(sig.TopicActions) > maxTopicActions {
		sig.TopicActions = sig.TopicActions[:maxTopicActions]
	}
	return sig, nil
}

func (g *Generator) annotate(ctx context.Context, posts []string) (*annotate.Annotation, error) {
	ann, err := g.annotator.Annotate(ctx, strings.Join(posts, " "))
	if err == nil {
		return ann, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	g.logger.Warn("annotating joined posts failed; falling back to single posts", "error", err)

	merged := &annotate.Annotation{}
	for i, post := range posts {
		one, err := g.annotator.Annotate(ctx, post)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.logger.Warn("skipping post: annotation failed", "post", i, "error", err)
			continue
		}
		merged.Append(one)
	}
	return merged, nil
}

// verbs returns the first distinct non-auxiliary verbs, lowercased.
func verbs(ann *annotate.Annotation) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range ann.Tokens {
		if !tok.Tags.Has(annotate.Verb) || tok.Tags.Has(annotate.Auxiliary) || seen[tok.Normal] {
			continue
		}
		seen[tok.Normal] = true
		out = append(out, tok.Normal)
		if len(out) == maxVerbs {
			break
		}
	}
	return out
}

// Describe turns signals into characteristic sentences. Tone and register
// are always described; the other heuristics only when they fire.
func Describe(sig Signals) []string {
	var out []string

	if len(sig.Verbs) > 0 {
		out = append(out, fmt.Sprintf("Frequently talks about %s.", strings.Join(sig.Verbs, ", ")))
	}

	if len(sig.TopicActions) > 0 {
		out = append(out, fmt.Sprintf("Often discusses %s.", strings.Join(sig.TopicActions, "; ")))
	}

	// negative-leaning text is reported as neutral
	tone := "neutral"
	if sig.Positive > sig.Negative {
		tone = "positive"
	}
	out = append(out, fmt.Sprintf("Generally maintains a %s tone in discussions.", tone))

	if sig.Technical > sig.Casual {
		out = append(out, "Uses technical language and industry-specific terms frequently.")
	} else {
		out = append(out, "Communicates in an accessible, conversational style.")
	}

	threshold := float64(sig.Posts) * interactionRatio
	if float64(sig.Questions) > threshold {
		out = append(out, "Engages actively with audience through questions and discussions.")
	}
	if float64(sig.Exclamations) > threshold {
		out = append(out, "Expresses ideas with enthusiasm and energy.")
	}

	return out
}
