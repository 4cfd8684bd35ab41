package main

import (
	"fmt"

	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"

	auth "github.com/goliatone/go-users-auth"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var (
	createName     string
	createEmail    string
	createPassword string
	createAdmin    bool
)

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := NewApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.repo.Migrate(cmd.Context()); err != nil {
			return err
		}

		msg := auth.RegisterUserMessage{
			Name:     createName,
			Email:    createEmail,
			Password: createPassword,
		}
		if err := msg.Validate(); err != nil {
			return err
		}

		role := auth.RoleUser
		if createAdmin {
			role = auth.RoleAdmin
		}

		view, err := app.auther.Register(cmd.Context(), msg, role)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(view))
		return nil
	},
}

var listRole string

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := NewApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		var views []auth.UserView
		if listRole != "" {
			views, err = app.users.ListByRole(cmd.Context(), listRole)
		} else {
			views, err = app.users.List(cmd.Context())
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(views))
		return nil
	},
}

func init() {
	usersCreateCmd.Flags().StringVar(&createName, "name", "", "display name")
	usersCreateCmd.Flags().StringVar(&createEmail, "email", "", "login email")
	usersCreateCmd.Flags().StringVar(&createPassword, "password", "", "initial password")
	usersCreateCmd.Flags().BoolVar(&createAdmin, "admin", false, "grant the ADMIN role")
	usersCreateCmd.MarkFlagRequired("name")
	usersCreateCmd.MarkFlagRequired("email")
	usersCreateCmd.MarkFlagRequired("password")

	usersListCmd.Flags().StringVar(&listRole, "role", "", "only list users holding this role (USER or ADMIN)")

	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersListCmd)
}
