// Package aigent turns a user's sample posts into a compact profile: the
// topics they post about, sentences describing how they write, and a
// random selection of their posts.
package aigent

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/aigent/pkg/aigent/annotate"
	"github.com/cognicore/aigent/pkg/aigent/ingest"
	"github.com/cognicore/aigent/pkg/aigent/sample"
	"github.com/cognicore/aigent/pkg/aigent/stoplist"
	"github.com/cognicore/aigent/pkg/aigent/store"
	"github.com/cognicore/aigent/pkg/aigent/topics"
	"github.com/cognicore/aigent/pkg/aigent/traits"
)

// DefaultLanguage is the language tag written to every profile.
const DefaultLanguage = "en"

// Aigent is the profile builder facade
type Aigent struct {
	store    store.Store
	pipeline *ingest.Pipeline
	topics   *topics.Extractor
	traits   *traits.Generator

	topicLimit int
	sampleSize int
	language   string
	logger     *slog.Logger

	mu      sync.Mutex // guards rng and entropy
	rng     *mrand.Rand
	entropy *ulid.MonotonicEntropy
}

// Options configures an Aigent instance. Zero values select defaults.
type Options struct {
	Store     store.Store        // required by Process; Build works without
	Annotator annotate.Annotator // nil: annotate.NewRuleTagger(nil)
	Stoplist  *stoplist.Manager  // nil: stoplist.Default()
	Weights   topics.Weights     // zero: topics.DefaultWeights()

	TopicLimit  int    // zero: topics.DefaultLimit
	SampleSize  int    // zero: sample.DefaultSize
	Language    string // empty: DefaultLanguage
	StripMarkup bool   // strip HTML from posts before analysis

	// Rand drives post sampling. Nil uses the process-wide source, so
	// tests pass a seeded one for reproducible profiles.
	Rand   *mrand.Rand
	Logger *slog.Logger
}

// New creates an Aigent with the given dependencies
func New(opts Options) *Aigent {
	a := opts.Annotator
	if a == nil {
		a = annotate.NewRuleTagger(nil)
	}
	w := opts.Weights
	if w == (topics.Weights{}) {
		w = topics.DefaultWeights()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ag := &Aigent{
		store:      opts.Store,
		pipeline:   ingest.NewPipeline(opts.StripMarkup),
		topics:     topics.NewExtractor(a, opts.Stoplist, w, logger),
		traits:     traits.NewGenerator(a, logger),
		topicLimit: opts.TopicLimit,
		sampleSize: opts.SampleSize,
		language:   opts.Language,
		logger:     logger,
		rng:        opts.Rand,
		entropy:    ulid.Monotonic(rand.Reader, 0),
	}
	if ag.topicLimit <= 0 {
		ag.topicLimit = topics.DefaultLimit
	}
	if ag.sampleSize <= 0 {
		ag.sampleSize = sample.DefaultSize
	}
	if ag.language == "" {
		ag.language = DefaultLanguage
	}
	return ag
}

// Close releases the underlying store.
func (ag *Aigent) Close() error {
	if ag.store == nil {
		return nil
	}
	return ag.store.Close()
}

// Store returns the configured store, or nil.
func (ag *Aigent) Store() store.Store {
	return ag.store
}

// Process loads the character stored for handle, builds its profile and
// saves it. Nothing is written unless the profile was built completely.
func (ag *Aigent) Process(ctx context.Context, handle string) (store.Profile, error) {
	if ag.store == nil {
		return store.Profile{}, fmt.Errorf("process %s: no store configured", handle)
	}
	if err := store.ValidateHandle(handle); err != nil {
		return store.Profile{}, err
	}

	c, err := ag.store.LoadCharacter(ctx, handle)
	if err != nil {
		return store.Profile{}, err
	}

	p, err := ag.Build(ctx, handle, c)
	if err != nil {
		return store.Profile{}, err
	}

	if err := ag.store.SaveProfile(ctx, p); err != nil {
		return store.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

// Build derives the profile of character c without touching the store.
func (ag *Aigent) Build(ctx context.Context, handle string, c store.Character) (store.Profile, error) {
	if err := store.ValidateHandle(handle); err != nil {
		return store.Profile{}, err
	}
	start := time.Now()
	posts := ag.pipeline.Prepare(c.PostExamples)

	topicList, err := ag.topics.Extract(ctx, posts, ag.topicLimit)
	if err != nil {
		return store.Profile{}, fmt.Errorf("extract topics: %w", err)
	}

	characteristics, err := ag.traits.Generate(ctx, posts)
	if err != nil {
		return store.Profile{}, fmt.Errorf("generate characteristics: %w", err)
	}

	ag.mu.Lock()
	examples := sample.RandomElements(c.PostExamples, ag.sampleSize, ag.rng)
	runID := ulid.MustNew(ulid.Now(), ag.entropy).String()
	ag.mu.Unlock()

	p := store.Profile{
		Name:            c.Name,
		TweetExamples:   examples,
		Characteristics: characteristics,
		Topics:          topicList,
		Language:        ag.language,
		TwitterUsername: handle,
		RunID:           runID,
	}

	ag.logger.Info("profile built",
		"handle", handle,
		"run_id", runID,
		"posts", len(posts),
		"topics", len(p.Topics),
		"characteristics", len(p.Characteristics),
		"duration", time.Since(start),
	)
	return p, nil
}
