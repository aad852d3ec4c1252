package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmarceau/echeancier/internal/common"
	"github.com/jmarceau/echeancier/internal/llm"
	"github.com/jmarceau/echeancier/internal/llm/gemini"
	"github.com/jmarceau/echeancier/internal/llm/langfuse"
	"github.com/jmarceau/echeancier/internal/pipeline"
	"github.com/jmarceau/echeancier/internal/repository"
	"github.com/jmarceau/echeancier/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runs, err := repository.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Error("open run store", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := runs.Close(); err != nil {
			logger.Warn("close run store", "error", err)
		}
	}()

	var analyzer llm.DocumentAnalyzer = gemini.NewClient(gemini.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	if cfg.Langfuse.Enabled() {
		analyzer = langfuse.NewClient(langfuse.Config{
			Host:          cfg.Langfuse.Host,
			PublicKey:     cfg.Langfuse.PublicKey,
			SecretKey:     cfg.Langfuse.SecretKey,
			PromptName:    cfg.Langfuse.PromptName,
			PromptVersion: cfg.Langfuse.PromptVersion,
		}, analyzer, logger)
		logger.Info("prompt hosting enabled", "prompt_name", cfg.Langfuse.PromptName)
	}

	processor := pipeline.NewProcessor(analyzer, runs, pipeline.Config{
		RepairPayload: cfg.LLM.RepairPayload,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(processor, runs, cfg.Server.MaxUploadMB, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}
