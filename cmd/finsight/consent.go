package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calluna/finsight/internal/common"
)

func consentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consent",
		Short: "Administer analysis consent decisions",
		Long: `Records or inspects a user's consent to financial analysis. With
the default in-process backend, decisions live only for this process;
configure the redis backend to share decisions across invocations.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "grant <user-id>",
		Short: "Record granted consent for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildConsentStore(loadConfig())
			if err != nil {
				return err
			}
			if err := store.SetConsent(cmd.Context(), args[0], true); err != nil {
				return err
			}
			cmd.Printf("consent granted for %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "revoke <user-id>",
		Short: "Record revoked consent for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildConsentStore(loadConfig())
			if err != nil {
				return err
			}
			if err := store.RevokeConsent(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Printf("consent revoked for %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's recorded consent decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := buildConsentStore(loadConfig())
			if err != nil {
				return err
			}
			granted, err := store.HasConsent(cmd.Context(), args[0])
			if errors.Is(err, common.ErrNoConsentRecord) {
				cmd.Printf("no consent decision on file for %s\n", args[0])
				return nil
			}
			if err != nil {
				return err
			}
			state := "revoked"
			if granted {
				state = "granted"
			}
			cmd.Printf("consent %s for %s\n", state, args[0])
			return nil
		},
	})

	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the results database schema up to date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage(loadConfig())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			cmd.Println("database is up to date")
			return nil
		},
	}
}
