package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calluna/finsight/internal/cli"
	"github.com/calluna/finsight/internal/evaluate"
)

func evaluateCmd() *cobra.Command {
	var windowDays int

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score aggregate pipeline quality over all persisted runs",
		Long: `Evaluates relevance, diversity, coverage, personalization, and
eligibility over every user with a persisted run at the given window.
This is an offline pass over completed outputs; it never touches the
per-user request path.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()

			store, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			batch, err := store.ListUserOutputs(cmd.Context(), windowDays)
			if err != nil {
				return fmt.Errorf("failed to load persisted outputs: %w", err)
			}

			metrics := evaluate.Evaluate(batch)
			cli.RenderMetrics(cmd.OutOrStdout(), metrics)
			return nil
		},
	}

	cmd.Flags().IntVar(&windowDays, "window", 90, "analysis window in days")
	return cmd
}
