package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skatehive/docschat/internal/app"
)

var ingestDir string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index documentation into the knowledge store",
	Long: `ingest walks a directory of markdown files, splits each file into
chunks, embeds the chunks and upserts them into the documents table.
Reruns are safe: rows are keyed by URL.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(cmd.Context())
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "docs", "directory of markdown documentation")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(parent context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	stored, err := a.Indexer.IndexDir(ctx, ingestDir, cfg.DocsBaseURL)
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", ingestDir, err)
	}

	fmt.Printf("Indexed %d chunks from %s\n", stored, ingestDir)
	return nil
}
