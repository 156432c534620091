package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/aigent/pkg/aigent/internalerr"
	"github.com/cognicore/aigent/pkg/aigent/sample"
	"github.com/cognicore/aigent/pkg/aigent/topics"
)

// Store kinds
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config is the runtime configuration of the CLI and the server.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Profile   ProfileConfig   `yaml:"profile"`
	Annotator AnnotatorConfig `yaml:"annotator"`
	Resources ResourceConfig  `yaml:"resources"`
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
}

// StoreConfig selects where characters are read and profiles written.
type StoreConfig struct {
	Kind       string `yaml:"kind"`        // file, sqlite or memory
	InputDir   string `yaml:"input_dir"`   // file: character records
	OutputDir  string `yaml:"output_dir"`  // file: generated profiles
	SQLitePath string `yaml:"sqlite_path"` // sqlite: database file
}

// ProfileConfig shapes the generated profile.
type ProfileConfig struct {
	TopicLimit int            `yaml:"topic_limit"`
	SampleSize int            `yaml:"sample_size"`
	Language   string         `yaml:"language"`
	StripHTML  bool           `yaml:"strip_html"`
	Weights    topics.Weights `yaml:"weights"`
}

// AnnotatorConfig controls the built-in annotator.
type AnnotatorConfig struct {
	Attempts     int           `yaml:"attempts"`       // calls per text on transient failure
	Backoff      time.Duration `yaml:"backoff"`        // first retry delay, doubling
	MaxTextBytes int           `yaml:"max_text_bytes"` // 0 = annotate.DefaultMaxTextBytes

	// Remote annotation service; empty URL annotates in process.
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// ResourceConfig points at optional word lists; empty paths use the
// embedded defaults.
type ResourceConfig struct {
	StoplistPath string `yaml:"stoplist"` // YAML: terms: [...]
	LexiconPath  string `yaml:"lexicon"`  // YAML, merged over the default lexicon
	DictPath     string `yaml:"dict"`     // canonical|variant|...|category lines

	// applied to whichever stoplist is in effect
	ExtraStopwords []string `yaml:"extra_stopwords"`
	KeepWords      []string `yaml:"keep_words"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Kind:       StoreFile,
			InputDir:   "characters",
			OutputDir:  "aigents",
			SQLitePath: "aigent.db",
		},
		Profile: ProfileConfig{
			TopicLimit: topics.DefaultLimit,
			SampleSize: sample.DefaultSize,
			Language:   "en",
			Weights:    topics.DefaultWeights(),
		},
		Annotator: AnnotatorConfig{
			Attempts: 3,
			Backoff:  50 * time.Millisecond,
			Timeout:  15 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBodyBytes:    4 << 20,
		},
	}
}

// Load reads .env (if present) into the environment, then the YAML file at
// path over the defaults, then AIGENT_* environment overrides. An empty
// path skips the file.
func Load(path string) (*Config, error) {
	// a missing .env is fine; system environment still applies
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := []struct {
		key string
		dst *string
	}{
		{"AIGENT_INPUT_DIR", &c.Store.InputDir},
		{"AIGENT_OUTPUT_DIR", &c.Store.OutputDir},
		{"AIGENT_STORE", &c.Store.Kind},
		{"AIGENT_SQLITE_PATH", &c.Store.SQLitePath},
		{"AIGENT_LOG_LEVEL", &c.Log.Level},
		{"AIGENT_LOG_FORMAT", &c.Log.Format},
		{"AIGENT_ADDR", &c.Server.Addr},
		{"AIGENT_STOPLIST", &c.Resources.StoplistPath},
		{"AIGENT_LEXICON", &c.Resources.LexiconPath},
		{"AIGENT_ANNOTATOR_URL", &c.Annotator.URL},
		{"AIGENT_ANNOTATOR_API_KEY", &c.Annotator.APIKey},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	if v := os.Getenv("AIGENT_TOPIC_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: AIGENT_TOPIC_LIMIT=%q", internalerr.ErrInvalidConfig, v)
		}
		c.Profile.TopicLimit = n
	}
	return nil
}

// Validate reports every problem with the configuration. Each returned
// error wraps internalerr.ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{internalerr.ErrInvalidConfig}, args...)...))
	}

	switch c.Store.Kind {
	case StoreFile:
		if c.Store.InputDir == "" || c.Store.OutputDir == "" {
			bad("store.input_dir and store.output_dir are required for the file store")
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			bad("store.sqlite_path is required for the sqlite store")
		}
	case StoreMemory:
	default:
		bad("unknown store.kind %q", c.Store.Kind)
	}

	if c.Profile.TopicLimit < 0 {
		bad("profile.topic_limit must not be negative")
	}
	if c.Profile.SampleSize < 0 {
		bad("profile.sample_size must not be negative")
	}
	w := c.Profile.Weights
	if w.Hashtag < 0 || w.Phrase < 0 || w.Noun < 0 || w.Domain < 0 {
		bad("profile.weights must not be negative")
	}
	if c.Annotator.Attempts < 1 {
		bad("annotator.attempts must be at least 1")
	}
	if c.Annotator.Backoff < 0 {
		bad("annotator.backoff must not be negative")
	}
	if c.Annotator.URL != "" && c.Annotator.Timeout <= 0 {
		bad("annotator.timeout must be positive for a remote annotator")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		bad("unknown log.level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		bad("unknown log.format %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// Dict represents the multi-token dictionary
type Dict struct {
	Entries []DictEntry
}

// DictEntry represents a dictionary entry
type DictEntry struct {
	Canonical string
	Variants  []string
	Category  string
}

// LoadDict loads the multi-token dictionary from a file
// Format: canonical|variant1|variant2|category
func LoadDict(path string) (*Dict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	dict := &Dict{Entries: []DictEntry{}}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		dict.Entries = append(dict.Entries, DictEntry{
			Canonical: parts[0],
			Variants:  parts[1 : len(parts)-1],
			Category:  parts[len(parts)-1],
		})
	}

	return dict, nil
}
