// Command aigent-server serves profile building over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cognicore/aigent/internal/logging"
	"github.com/cognicore/aigent/internal/server"
	"github.com/cognicore/aigent/pkg/aigent"
	"github.com/cognicore/aigent/pkg/aigent/annotate"
	"github.com/cognicore/aigent/pkg/aigent/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (optional)")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	logger := logging.Init(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	engine, annotator, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	handler := server.New(engine, server.Options{
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       logger,
		Annotator:    annotator,
	})
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "store", cfg.Store.Kind)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*aigent.Aigent, annotate.Annotator, error) {
	components, err := config.NewLoader(cfg.Resources, logger).Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load resources: %w", err)
	}

	st, err := config.OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	annotator := components.Annotator(cfg.Annotator, logger)
	engine := aigent.New(aigent.Options{
		Store:       st,
		Annotator:   annotator,
		Stoplist:    components.Stoplist,
		Weights:     cfg.Profile.Weights,
		TopicLimit:  cfg.Profile.TopicLimit,
		SampleSize:  cfg.Profile.SampleSize,
		Language:    cfg.Profile.Language,
		StripMarkup: cfg.Profile.StripHTML,
		Logger:      logger,
	})
	return engine, annotator, nil
}
