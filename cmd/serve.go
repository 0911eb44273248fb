package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kayz/scout/internal/config"
	"github.com/kayz/scout/internal/docstore"
	"github.com/kayz/scout/internal/fetch"
	"github.com/kayz/scout/internal/llm"
	"github.com/kayz/scout/internal/logger"
	"github.com/kayz/scout/internal/research"
	"github.com/kayz/scout/internal/sched"
	"github.com/kayz/scout/internal/search"
	"github.com/kayz/scout/internal/server"
	"github.com/kayz/scout/internal/theme"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) {
	if err := serve(cmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The config file's level applies unless --log was given explicitly.
	if !cmd.Flags().Changed("log") && cfg.Logging.Level != "" {
		if level, err := logger.ParseLevel(cfg.Logging.Level); err == nil {
			logger.SetLevel(level)
		}
	}
	if port != 0 {
		cfg.Port = port
	}

	themes, err := theme.NewStore(filepath.Join(cfg.DataDir, "themes.db"))
	if err != nil {
		return fmt.Errorf("failed to open theme store: %w", err)
	}
	defer themes.Close()

	history, err := research.NewHistoryStore(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer history.Close()

	gen, err := llm.New(cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to build LLM client: %w", err)
	}

	engine, err := search.New(cfg.Search)
	if err != nil {
		return fmt.Errorf("failed to build search engine: %w", err)
	}
	logger.Info("[HTTP] using %s search, %s LLM provider", engine.Name(), cfg.LLM.Provider)

	docs, err := docstore.New(cfg.Embedding, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}

	pause := time.Duration(cfg.Research.BucketPauseSeconds) * time.Second
	orchestrator := research.NewOrchestrator(engine, gen, fetch.NewHTTP(), history, pause)
	orchestrator.SetDocumentSearcher(docs)

	extractor := theme.NewExtractor(gen, themes)
	srv := server.NewServer(themes, extractor, orchestrator, docs)

	if cfg.Scheduler.Enabled {
		scheduler := sched.New(themes, orchestrator)
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer scheduler.Stop()
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[HTTP] listening on %s", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("[HTTP] shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}
	return nil
}
