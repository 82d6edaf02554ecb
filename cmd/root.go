// Package cmd implements the docschat command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/skatehive/docschat/internal/config"
	"github.com/skatehive/docschat/internal/log"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "docschat",
	Short: "docschat - documentation chatbot service",
	Long: `docschat answers questions about the Skatehive documentation.

It retrieves relevant documentation chunks with vector similarity search,
grades them for relevance, and composes an answer with an OpenAI model.
Run "docschat serve" to start the HTTP API or "docschat ingest" to index
documentation into the store.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// newLogger builds the process logger. Debug level comes from --debug or
// the DEBUG environment variable.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if debugFlag || os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: true})
}

// loadConfig loads and validates configuration for commands that need the
// full stack.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}
