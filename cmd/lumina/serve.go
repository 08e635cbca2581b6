package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"

	"github.com/luminalearn/lumina/internal/catalog"
	"github.com/luminalearn/lumina/internal/handler"
	appI18n "github.com/luminalearn/lumina/internal/i18n"
	"github.com/luminalearn/lumina/internal/quiz"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringSliceP("catalog", "c", nil, "Catalog JSON files to import at startup (repeatable)")
	f.StringSlice("cors-origins", []string{"http://localhost:3000"}, "Origins allowed to call the API from a browser")
	commonFlags(f)
	llmFlags(f)
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	cfg := loadConfig(viperForCmd(cmd))
	ctx := cmd.Context()

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := catalog.ImportFiles(ctx, db, cfg.Catalogs); err != nil {
		return fmt.Errorf("import catalogs: %w", err)
	}

	llmClient, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}

	h := handler.New(db, llmClient, quiz.New(llmClient, db))

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		ExposedHeaders: []string{"Content-Language"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware())
	h.Routes(r)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	slog.Info("starting server",
		"addr", cfg.Addr,
		"db", cfg.DBPath,
		"model", cfg.LLMModel,
		"llm_url", cfg.LLMURL,
		"lang", cfg.Lang,
		"num_questions", cfg.QuizQuestions,
		"difficulty", cfg.Difficulty,
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-sigCtx.Done():
	}
	stop()

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
