// Command aigent builds the profile of one user from their stored posts.
//
//	aigent [-config aigent.yaml] [-import character.json] <username>
//	aigent [-config aigent.yaml] -batch characters.jsonl
//
// With the default file store the character is read from
// characters/<username>.json and the profile written to
// aigents/<username>.json.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cognicore/aigent/internal/jsonl"
	"github.com/cognicore/aigent/internal/logging"
	"github.com/cognicore/aigent/pkg/aigent"
	"github.com/cognicore/aigent/pkg/aigent/config"
	"github.com/cognicore/aigent/pkg/aigent/internalerr"
	"github.com/cognicore/aigent/pkg/aigent/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("aigent", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML config file (optional)")
		importPath = fs.String("import", "", "Character JSON file to store for the user before processing")
		batchPath  = fs.String("batch", "", "JSONL file of characters (with a \"handle\" field) to store and process")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() < 1 && *batchPath == "" {
		fmt.Fprintln(stderr, "Please provide a username as an argument")
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger := logging.New(cfg.Log, stderr)

	engine, cleanup, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	if *batchPath != "" {
		return runBatch(ctx, engine, *batchPath, logger, stdout, stderr)
	}

	handle := fs.Arg(0)
	if *importPath != "" {
		if err := importCharacter(ctx, engine.Store(), handle, *importPath); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	p, err := engine.Process(ctx, handle)
	if err != nil {
		if errors.Is(err, internalerr.ErrNotFound) {
			fmt.Fprintf(stderr, "Error: Character file not found for username: %s\n", handle)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}

	data, err := store.EncodeProfile(p)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Successfully processed character data:")
	fmt.Fprintln(stdout, string(data))
	return 0
}

// runBatch stores and processes every record of a JSONL file. A failed
// record does not stop the batch; the exit code reports whether any failed.
func runBatch(ctx context.Context, engine *aigent.Aigent, path string, logger *slog.Logger, stdout, stderr io.Writer) int {
	records, err := jsonl.LoadCharacters(path, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	failed := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		err := engine.Store().UpsertCharacter(ctx, rec.Handle, rec.Character)
		if err == nil {
			_, err = engine.Process(ctx, rec.Handle)
		}
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "Error: %s: %v\n", rec.Handle, err)
			continue
		}
		fmt.Fprintf(stdout, "Processed %s\n", rec.Handle)
	}

	fmt.Fprintf(stdout, "Successfully processed %d of %d characters\n", len(records)-failed, len(records))
	if failed > 0 {
		return 1
	}
	return 0
}

func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*aigent.Aigent, func(), error) {
	components, err := config.NewLoader(cfg.Resources, logger).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load resources: %w", err)
	}

	st, err := config.OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	engine := aigent.New(aigent.Options{
		Store:       st,
		Annotator:   components.Annotator(cfg.Annotator, logger),
		Stoplist:    components.Stoplist,
		Weights:     cfg.Profile.Weights,
		TopicLimit:  cfg.Profile.TopicLimit,
		SampleSize:  cfg.Profile.SampleSize,
		Language:    cfg.Profile.Language,
		StripMarkup: cfg.Profile.StripHTML,
		Logger:      logger,
	})

	cleanup := func() {
		if err := engine.Close(); err != nil {
			logger.Warn("close store", "error", err)
		}
	}
	return engine, cleanup, nil
}

func importCharacter(ctx context.Context, st store.Store, handle, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("import character: %w", err)
	}
	c, err := store.DecodeCharacter(data)
	if err != nil {
		return fmt.Errorf("import character: %w", err)
	}
	return st.UpsertCharacter(ctx, handle, c)
}
