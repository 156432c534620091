package ingest

import (
	"strings"

	"github.com/cognicore/aigent/internal/markup"
)

// Pipeline prepares raw posts before feature extraction:
// raw post → markup stripping (optional) → line-ending cleanup
type Pipeline struct {
	stripMarkup bool
}

// NewPipeline creates a preparation pipeline. When stripMarkup is set, HTML
// tags are removed and entities decoded before any other processing.
func NewPipeline(stripMarkup bool) *Pipeline {
	return &Pipeline{stripMarkup: stripMarkup}
}

// Prepare runs every post through the pipeline. The result has exactly one
// entry per input post, in input order; empty posts are kept so that
// per-post ratios downstream stay correct.
func (p *Pipeline) Prepare(posts []string) []string {
	out := make([]string, len(posts))
	for i, post := range posts {
		out[i] = p.Clean(post)
	}
	return out
}

// Clean applies markup stripping and line-ending cleanup to a single post.
func (p *Pipeline) Clean(post string) string {
	if p.stripMarkup {
		post = markup.StripHTML(post)
	}
	return strings.ReplaceAll(post, "\r\n", "\n")
}
