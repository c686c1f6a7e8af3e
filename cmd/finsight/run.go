package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/calluna/finsight/internal/cli"
	"github.com/calluna/finsight/internal/common"
	"github.com/calluna/finsight/internal/consent"
	"github.com/calluna/finsight/internal/pipeline"
)

func runCmd() *cobra.Command {
	var (
		windowDays int
		workers    int
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "run <snapshot.json> [more snapshots...]",
		Short: "Run the full pipeline for one or more users",
		Long: `Runs signal detection, persona classification, recommendation
generation, and guardrail filtering for each snapshot file, persisting
the results. Rerunning a user supersedes the prior results for that
user and window.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			store, err := openStorage(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			consentStore, err := buildConsentStore(cfg)
			if err != nil {
				return err
			}
			engine := buildEngine(cfg, consentStore, store)

			jobs := make([]pipeline.Job, 0, len(args))
			for _, path := range args {
				snap, profile, err := loadSnapshot(path)
				if err != nil {
					return err
				}
				// Fixture users without a recorded decision imply consent
				// was collected upstream. A stored revocation still blocks.
				if err := consent.GrantIfAbsent(cmd.Context(), consentStore, snap.UserID); err != nil {
					return err
				}
				jobs = append(jobs, pipeline.Job{Snapshot: snap, Profile: profile})
			}

			var bar *progressbar.ProgressBar
			if len(jobs) > 1 && !quiet {
				bar = progressbar.NewOptions(len(jobs),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionSetDescription("Running pipeline..."),
				)
			}

			results := engine.RunBatch(cmd.Context(), jobs, windowDays, workers, func(r pipeline.BatchResult) {
				if bar != nil {
					if err := bar.Add(1); err != nil {
						slog.Warn("Failed to update progress bar", "error", err)
					}
				}
			})
			if bar != nil {
				fmt.Fprintln(os.Stderr)
			}

			var failed int
			for _, r := range results {
				if r.Err != nil {
					failed++
					msg := "pipeline run failed"
					if errors.Is(r.Err, common.ErrConsentRequired) {
						msg = "pipeline run blocked by consent gate"
					}
					common.LogError(r.Err, msg, common.Fields{"user_id": r.UserID})
					continue
				}
				if !quiet {
					cli.RenderOutputs(cmd.OutOrStdout(), r.Outputs)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d pipeline runs failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&windowDays, "window", 90, "analysis window in days")
	cmd.Flags().IntVar(&workers, "workers", 4, "parallel pipeline workers")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress per-user output")
	return cmd
}
