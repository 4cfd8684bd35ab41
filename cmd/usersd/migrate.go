package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := NewApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.repo.Migrate(cmd.Context()); err != nil {
			return err
		}

		app.GetLogger("migrate").Info("schema up to date")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := NewApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		ms, err := app.repo.MigrationStatus(cmd.Context())
		if err != nil {
			return err
		}

		for _, m := range ms {
			status := "pending"
			if m.IsApplied() {
				status = fmt.Sprintf("applied (group %d)", m.GroupID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s_%s: %s\n", m.Name, m.Comment, status)
		}
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateStatusCmd)
}
