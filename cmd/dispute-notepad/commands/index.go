package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the similarity index of the instruction document",
	Long: `Loads the instruction document and stores its passages in the configured
index. With the chroma backend the collection persists on the server, so a
later serve only reads it. Passages already stored are skipped.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	// indexing only makes sense for the retriever
	cfg.Recommender.Strategy = "retrieval"
	if cfg.Index.Backend != "chroma" {
		logger.Warn().Str("backend", cfg.Index.Backend).Msg("The in-memory index is rebuilt by every process; this run only checks that it builds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Index.Chroma.Timeout+cfg.Provider.Timeout)
	defer cancel()

	deps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	if err := deps.retriever.Initialize(ctx); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	stats := deps.retriever.GetStats()
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %v passages from %v\n", stats["passages"], stats["document"])
	return nil
}
