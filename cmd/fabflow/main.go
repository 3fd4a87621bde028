package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// config is the process configuration. Environment variables (optionally
// loaded from .env) provide defaults; flags override them.
type config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string
}

func configFromEnv() config {
	return config{
		Port:      envOrDefault("PORT", "8080"),
		DBPath:    envOrDefault("DATABASE_PATH", "fabflow.db"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "text"),
	}
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := newRootCmd(configFromEnv()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg config) *cobra.Command {
	root := &cobra.Command{
		Use:          "fabflow",
		Short:        "Fabrication order workflow service",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		newServeCmd(&cfg),
		newSeedCmd(&cfg),
		newActCmd(&cfg),
	)
	return root
}

func newLogger(cfg config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
