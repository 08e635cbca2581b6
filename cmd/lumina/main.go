package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	appI18n "github.com/luminalearn/lumina/internal/i18n"
	"github.com/luminalearn/lumina/internal/llm"
	"github.com/luminalearn/lumina/internal/llm/prompts"
	"github.com/luminalearn/lumina/internal/model"
	"github.com/luminalearn/lumina/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "lumina",
		Short:        "Course player with AI-generated lesson quizzes",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, playCmd(), historyCmd(), importCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func commonFlags(f *pflag.FlagSet) {
	f.String("db", "lumina.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Message language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func llmFlags(f *pflag.FlagSet) {
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Duration("llm-timeout", llm.DefaultTimeout, "Timeout for a single LLM request")
	f.IntP("num-questions", "n", 3, "Questions per generated quiz")
	f.StringP("difficulty", "d", "", "Quiz difficulty (easy, medium, hard)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("LUMINA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("lumina")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/lumina")
	v.AddConfigPath("/etc/lumina")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func loadConfig(v *viper.Viper) model.AppConfig {
	return model.AppConfig{
		DBPath:        v.GetString("db"),
		Addr:          v.GetString("addr"),
		Lang:          v.GetString("lang"),
		LLMURL:        v.GetString("llm-url"),
		LLMKey:        v.GetString("llm-key"),
		LLMModel:      v.GetString("llm-model"),
		LLMTimeout:    v.GetDuration("llm-timeout"),
		QuizQuestions: v.GetInt("num-questions"),
		Difficulty:    strings.ToLower(strings.TrimSpace(v.GetString("difficulty"))),
		Catalogs:      v.GetStringSlice("catalog"),
		CORSOrigins:   v.GetStringSlice("cors-origins"),
	}
}

// openStore opens the database and initializes message catalogs.
func openStore(cfg model.AppConfig) (*store.Store, error) {
	if err := appI18n.Init(cfg.Lang); err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}
	db, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// newLLMClient creates the model client and checks it is reachable. An
// unreachable endpoint is not fatal: quizzes fall back to the default
// question and the tutor endpoints report the upstream error.
func newLLMClient(ctx context.Context, cfg model.AppConfig) (*llm.Client, error) {
	difficulty := cfg.Difficulty
	if !prompts.IsValidDifficulty(difficulty) {
		slog.Warn("invalid difficulty, using default", "difficulty", difficulty)
		difficulty = ""
	}
	client, err := llm.New(cfg.LLMURL, cfg.LLMKey, cfg.LLMModel, llm.Options{
		NumQuestions: cfg.QuizQuestions,
		Difficulty:   prompts.Difficulty(difficulty),
		Timeout:      cfg.LLMTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		slog.Warn("LLM health check failed, quizzes will use the fallback question",
			"url", cfg.LLMURL, "error", err)
	} else {
		slog.Info("LLM endpoint OK", "url", cfg.LLMURL, "model", cfg.LLMModel)
	}
	return client, nil
}
