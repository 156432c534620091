package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cognicore/aigent/internal/remote"
	"github.com/cognicore/aigent/pkg/aigent/annotate"
	"github.com/cognicore/aigent/pkg/aigent/internalerr"
	"github.com/cognicore/aigent/pkg/aigent/lexicon"
	"github.com/cognicore/aigent/pkg/aigent/stoplist"
	"github.com/cognicore/aigent/pkg/aigent/store"
	"github.com/cognicore/aigent/pkg/aigent/store/filestore"
	"github.com/cognicore/aigent/pkg/aigent/store/memstore"
	"github.com/cognicore/aigent/pkg/aigent/store/sqlite"
)

// Loader loads all resource files and constructs components
type Loader struct {
	StoplistPath   string
	LexiconPath    string
	DictPath       string
	ExtraStopwords []string
	KeepWords      []string
	Logger         *slog.Logger
}

// NewLoader returns a loader for the resources in cfg.
func NewLoader(cfg ResourceConfig, logger *slog.Logger) *Loader {
	return &Loader{
		StoplistPath:   cfg.StoplistPath,
		LexiconPath:    cfg.LexiconPath,
		DictPath:       cfg.DictPath,
		ExtraStopwords: cfg.ExtraStopwords,
		KeepWords:      cfg.KeepWords,
		Logger:         logger,
	}
}

// Components holds all loaded components
type Components struct {
	Stoplist *stoplist.Manager
	Lexicon  *lexicon.Lexicon
}

// Load reads all resource files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	// Load stoplist; a configured list replaces the default one
	if l.StoplistPath != "" {
		sl, err := LoadStoplist(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = stoplist.NewManager(sl.Terms)
	} else {
		comp.Stoplist = stoplist.Default()
	}
	for _, w := range l.ExtraStopwords {
		comp.Stoplist.Add(w)
	}
	for _, w := range l.KeepWords {
		comp.Stoplist.Remove(w)
	}

	// Load lexicon; entries are merged over the embedded one
	comp.Lexicon = lexicon.Default()
	if l.LexiconPath != "" {
		extra, err := lexicon.LoadFromYAML(l.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon.Merge(extra)
	}

	// Load dictionary
	if l.DictPath != "" {
		dict, err := LoadDict(l.DictPath)
		if err != nil {
			return nil, fmt.Errorf("load dictionary: %w", err)
		}
		for _, e := range dict.Entries {
			comp.Lexicon.AddPhrase(lexicon.Phrase{
				Canonical: e.Canonical,
				Variants:  e.Variants,
				Category:  e.Category,
			})
		}
	}

	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	stats := comp.Lexicon.Stats()
	logger.Debug("resources loaded",
		"stopwords", comp.Stoplist.Len(),
		"words", stats.Words,
		"stems", stats.Stems,
		"phrases", stats.Phrases,
		"categories", len(stats.PerCategory))

	return comp, nil
}

// Annotator builds the configured annotator: a client for the remote
// service when cfg.URL is set, otherwise the rule tagger over the loaded
// lexicon. With more than one attempt configured it is wrapped in a
// retrying annotator.
func (c *Components) Annotator(cfg AnnotatorConfig, logger *slog.Logger) annotate.Annotator {
	var a annotate.Annotator
	if cfg.URL != "" {
		a = &remote.Client{
			URL:        cfg.URL,
			APIKey:     cfg.APIKey,
			HTTPClient: &http.Client{Timeout: cfg.Timeout},
		}
	} else {
		tagger := annotate.NewRuleTagger(c.Lexicon)
		if cfg.MaxTextBytes > 0 {
			tagger.MaxTextBytes = cfg.MaxTextBytes
		}
		a = tagger
	}

	if cfg.Attempts <= 1 {
		return a
	}
	return annotate.NewRetrying(a, cfg.Attempts, cfg.Backoff, logger)
}

// OpenStore opens the store selected by cfg.Kind.
func OpenStore(ctx context.Context, cfg StoreConfig) (store.Store, error) {
	switch cfg.Kind {
	case StoreFile, "":
		return filestore.Open(cfg.InputDir, cfg.OutputDir)
	case StoreSQLite:
		return sqlite.OpenSQLite(ctx, cfg.SQLitePath)
	case StoreMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store kind %q", internalerr.ErrInvalidConfig, cfg.Kind)
	}
}
