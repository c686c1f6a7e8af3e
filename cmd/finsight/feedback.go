package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/calluna/finsight/internal/model"
)

func feedbackCmd() *cobra.Command {
	var helpful bool

	cmd := &cobra.Command{
		Use:   "feedback <user-id> <candidate-id> <kind>",
		Short: "Record a user's reaction to a delivered recommendation",
		Long: `Stores feedback against a persisted recommendation candidate.
Feedback feeds the relevance score computed by the evaluate command.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStorage(loadConfig())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			fb := model.Feedback{
				UserID:      args[0],
				CandidateID: args[1],
				Kind:        model.RecommendationKind(args[2]),
				Helpful:     helpful,
				RecordedAt:  time.Now().UTC(),
			}
			if err := store.SaveFeedback(cmd.Context(), fb); err != nil {
				return err
			}
			cmd.Printf("feedback recorded for %s on %s\n", fb.UserID, fb.CandidateID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&helpful, "helpful", true, "whether the recommendation was helpful")
	return cmd
}
