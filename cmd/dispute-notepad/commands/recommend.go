package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"dispute-notepad/internal/interfaces"
	"dispute-notepad/internal/server"

	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [dispute text]",
	Short: "Print next-action suggestions for dispute text",
	Long: `Runs the configured strategy once. The dispute text is taken from the
arguments, or read from stdin when no arguments are given.`,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	input := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		input = string(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
	defer cancel()

	deps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	recommendation, err := deps.recommender.Recommend(ctx, input)
	if err != nil {
		apiErr := server.FromError(err)
		if apiErr.Severity() == "warning" {
			fmt.Fprintln(cmd.ErrOrStderr(), apiErr.Inline())
			return nil
		}
		return errors.New(apiErr.Inline())
	}

	printRecommendation(cmd.OutOrStdout(), recommendation)
	return nil
}

func printRecommendation(w io.Writer, recommendation *interfaces.Recommendation) {
	switch {
	case recommendation.Message != "":
		fmt.Fprintln(w, recommendation.Message)
	case recommendation.Answer != "":
		fmt.Fprintln(w, recommendation.Answer)
	default:
		fmt.Fprintln(w, "Suggested Next Actions:")
		for _, a := range recommendation.Advisories {
			fmt.Fprintf(w, "- %s: %s\n", a.Trigger, a.Advisory)
		}
	}
}
