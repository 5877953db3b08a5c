package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"github.com/knoguchi/textgen/internal/auth"
	"github.com/knoguchi/textgen/internal/config"
	"github.com/knoguchi/textgen/internal/llm"
	"github.com/knoguchi/textgen/internal/server"
	"github.com/knoguchi/textgen/internal/service"
	"github.com/knoguchi/textgen/internal/textproc"
	"github.com/knoguchi/textgen/internal/ui"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:          "textgend",
	Short:        "Text generation microservice",
	Long:         "textgend forwards prompts to a pretrained language model backend and returns post-processed text.",
	SilenceUsage: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		return run()
	},
}

var (
	tokenName string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the API",
	Long:  "Mint a signed JWT for the configured JWT_SECRET, for use in the Authorization header.",
	RunE:  runToken,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the textgend version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "name", "local", "Caller name embedded in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("starting text generation service",
		"http_port", cfg.HTTPPort,
		"backend", cfg.Backend,
		"model", cfg.ModelName,
		"environment", cfg.Environment,
	)

	// Initialize Sentry error reporting when a DSN is configured
	sentryEnabled := cfg.SentryDSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
			Release:     "textgen@" + version,
		}); err != nil {
			return fmt.Errorf("failed to initialize sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
		slog.Info("sentry initialized", "environment", cfg.Environment)
	}

	// Initialize the generation backend. The model handle is constructed once
	// here and shared read-only across requests.
	var generator llm.Generator
	switch cfg.Backend {
	case config.BackendOpenAI:
		if cfg.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai backend")
		}
		generator = llm.NewOpenAIClient(cfg.OpenAIKey, llm.WithOpenAIModel(cfg.ModelName))
	default:
		generator = llm.NewOllamaClient(
			llm.WithBaseURL(cfg.OllamaURL),
			llm.WithModel(cfg.ModelName),
		)
	}
	slog.Info("initialized generation backend", "backend", cfg.Backend, "model", cfg.ModelName)

	cleaner := textproc.NewCleaner(cfg.MaxOutputWords)
	svc := service.NewGenerationService(generator, cleaner, service.Defaults{
		MaxNewTokens:      cfg.DefaultMaxNewTokens,
		Temperature:       cfg.DefaultTemperature,
		TopP:              cfg.DefaultTopP,
		RepetitionPenalty: cfg.DefaultRepetitionPenalty,
		NoRepeatNgramSize: cfg.DefaultNoRepeatNgramSize,
	}, cfg.ModelName, logger)

	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(auth.DefaultJWTConfig(cfg.JWTSecret))
		slog.Info("bearer-token authentication enabled")
	}

	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Service:        svc,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		JWTManager:     jwtManager,
		EnableSentry:   sentryEnabled,
		UI: ui.PageData{
			Model:             cfg.ModelName,
			MaxNewTokens:      cfg.DefaultMaxNewTokens,
			Temperature:       cfg.DefaultTemperature,
			TopP:              cfg.DefaultTopP,
			RepetitionPenalty: cfg.DefaultRepetitionPenalty,
			NoRepeatNgramSize: cfg.DefaultNoRepeatNgramSize,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

func runToken(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set; authentication is disabled")
	}

	manager := auth.NewJWTManager(auth.DefaultJWTConfig(cfg.JWTSecret))
	token, err := manager.GenerateTokenWithExpiry(tokenName, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
